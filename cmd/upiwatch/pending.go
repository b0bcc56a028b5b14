package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fairpay/upiwatch/internal/cli"
	"github.com/fairpay/upiwatch/internal/model"
)

func pendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Inspect and drain the pending payment queue",
	}

	cmd.AddCommand(pendingListCmd())
	cmd.AddCommand(pendingClearCmd())

	return cmd
}

func pendingListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued payments, oldest first",
		RunE:  runPendingList,
	}

	cmd.Flags().Bool("json", false, "emit the queue in its machine-readable format")

	return cmd
}

// pendingJSON is the exposed queue format for external readers.
type pendingJSON struct {
	Payee       string  `json:"payee"`
	FullMessage string  `json:"fullMessage"`
	Amount      float64 `json:"amount"`
	Timestamp   int64   `json:"timestamp"`
}

func runPendingList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.ListPending(ctx)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		out := make([]pendingJSON, 0, len(records))
		for _, rec := range records {
			out = append(out, pendingJSON{
				Amount:      rec.Amount.InexactFloat64(),
				Payee:       rec.Payee,
				FullMessage: rec.RawMessage,
				Timestamp:   rec.DetectedAt.UnixMilli(),
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(records) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No pending payments."))
		return nil
	}

	fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("Pending payments (%d)", len(records))))
	for _, rec := range records {
		fmt.Println(renderPending(rec))
	}

	return nil
}

func renderPending(rec model.PaymentRecord) string {
	payee := rec.Payee
	if payee == "" {
		payee = cli.SubtleStyle.Render("(no payee)")
	}
	return fmt.Sprintf("  %s  %s  %s  %s",
		rec.DetectedAt.Format(time.DateTime),
		cli.AmountStyle.Render("₹"+rec.Amount.StringFixed(2)),
		payee,
		cli.SubtleStyle.Render(rec.RawMessage))
}

func pendingClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all queued payments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			count, err := store.PendingCount(ctx)
			if err != nil {
				return err
			}

			if err := store.ClearPending(ctx); err != nil {
				return err
			}

			fmt.Printf("Cleared %d pending payments\n", count)
			return nil
		},
	}
}
