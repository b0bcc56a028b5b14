package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/fairpay/upiwatch/internal/model"
	"github.com/fairpay/upiwatch/internal/source"
)

func replayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <file>",
		Short: "Re-ingest a backlog file of messages",
		Long: `Runs every message in a JSON-lines backlog file through the pipeline,
queueing detections. Useful after the watcher was down for a while.
Alerts are suppressed during replay; inspect the queue afterwards with
"upiwatch pending list".`,
		Args: cobra.ExactArgs(1),
		RunE: runReplay,
	}
}

func runReplay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	total, err := countLines(path)
	if err != nil {
		return fmt.Errorf("failed to read backlog file: %w", err)
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	before, err := store.PendingCount(ctx)
	if err != nil {
		return err
	}

	// Replaying old messages should not fire a burst of stale alerts.
	eng := newReplayEngine(store)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open backlog file: %w", err)
	}
	defer func() { _ = f.Close() }()

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Replaying messages"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	feed := source.NewJSONLinesFeed(f)
	err = feed.Run(ctx, func(ctx context.Context, fragments []model.Fragment, receivedAt time.Time) {
		eng.HandleMessage(ctx, fragments, receivedAt)
		_ = bar.Add(1)
	})
	if err != nil {
		return err
	}
	_ = bar.Finish()

	after, err := store.PendingCount(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Replayed %d messages, queued %d payments\n", total, after-before)
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			count++
		}
	}
	return count, scanner.Err()
}
