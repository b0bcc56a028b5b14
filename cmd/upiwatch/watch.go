package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fairpay/upiwatch/internal/cli"
	"github.com/fairpay/upiwatch/internal/common"
	"github.com/fairpay/upiwatch/internal/live"
	"github.com/fairpay/upiwatch/internal/model"
	"github.com/fairpay/upiwatch/internal/notify"
	"github.com/fairpay/upiwatch/internal/source"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the message feed live and print detections",
		Long: `Attaches a live listener and consumes the message feed. Detected payments
are delivered to the listener and printed; they are not queued while the
listener is attached. Use "-" as the feed to read from stdin.`,
		RunE: runWatch,
	}

	cmd.Flags().String("feed", "", "message feed path (JSON lines; \"-\" for stdin)")
	cmd.Flags().Bool("check", false, "only report whether message capture is permitted")
	_ = viper.BindPFlag("feed.path", cmd.Flags().Lookup("feed"))

	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	feedPath := viper.GetString("feed.path")
	if feedPath == "" {
		feedPath = "-"
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	eng := newEngine(store, feedPath)

	if checkOnly, _ := cmd.Flags().GetBool("check"); checkOnly {
		if eng.CheckPermissions(ctx) {
			fmt.Println("granted")
			return nil
		}
		fmt.Println("denied")
		return nil
	}

	// Gate before touching the feed so denial surfaces as the structured
	// permission result, not an open error.
	if !eng.CheckPermissions(ctx) {
		return common.NewUserError(
			"watching not started: permission_denied",
			common.ErrPermissionDenied,
		)
	}

	reader, closeFeed, err := openFeed(feedPath)
	if err != nil {
		return common.NewUserError("cannot open message feed", err)
	}
	defer closeFeed()

	eng.Events().Attach(consoleListener{})
	defer eng.Close()

	result, err := eng.StartWatching(ctx, source.NewJSONLinesFeed(reader))
	if err != nil {
		return err
	}
	if !result.Started {
		return common.NewUserError(
			fmt.Sprintf("watching not started: %s", result.Reason),
			common.ErrPermissionDenied,
		)
	}

	fmt.Println(cli.TitleStyle.Render("Watching message feed " + feedPath))

	// Run until the feed drains or the user interrupts.
	for eng.Watching() {
		select {
		case <-ctx.Done():
			eng.StopWatching()
			return nil
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil
}

// openFeed opens the feed path for reading; "-" means stdin.
func openFeed(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrFeedUnavailable, err)
	}
	return f, func() { _ = f.Close() }, nil
}

// consoleListener prints live events to the terminal.
type consoleListener struct{}

func (consoleListener) OnRawMessage(event live.RawEvent) {
	fmt.Println(cli.SubtleStyle.Render(
		fmt.Sprintf("[%s] %s: %s",
			event.Timestamp.Format("15:04:05"),
			event.Address,
			event.Body)))
}

func (consoleListener) OnPaymentDetected(record model.PaymentRecord) {
	fmt.Println(cli.AmountStyle.Render(notify.FormatAlertBody(record)))
}
