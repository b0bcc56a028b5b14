package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fairpay/upiwatch/internal/model"
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest one message delivery in the background",
		Long: `One-shot pipeline invocation for a single received message, the
equivalent of the platform delivering a message while the app is closed.
Detected payments are appended to the pending queue and alerted; everything
else is dropped silently.

Message fragments are passed with repeated --body flags and joined in order,
or the whole body is read from stdin when no --body is given.`,
		RunE: runIngest,
	}

	cmd.Flags().StringArray("body", nil, "message fragment body (repeatable, joined in order)")
	cmd.Flags().String("from", "", "sender address")

	return cmd
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	bodies, _ := cmd.Flags().GetStringArray("body")
	from, _ := cmd.Flags().GetString("from")

	if len(bodies) == 0 {
		stdin, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read message from stdin: %w", err)
		}
		body := strings.TrimRight(string(stdin), "\n")
		if body == "" {
			return fmt.Errorf("no message body given")
		}
		bodies = []string{body}
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	eng := newEngine(store, "")

	fragments := make([]model.Fragment, 0, len(bodies))
	for _, body := range bodies {
		fragments = append(fragments, model.Fragment{Address: from, Body: body})
	}

	// No listener is ever attached here, so detections take the queue path.
	eng.HandleMessage(ctx, fragments, time.Now())

	return nil
}
