// Package source reads the device message feed that drives the pipeline.
// The feed is a stream of newline-delimited JSON objects, one received
// message per line:
//
//	{"address": "HDFCBK", "body": "...", "timestamp": 1715500000000}
//
// timestamp is epoch milliseconds; zero means "now".
package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fairpay/upiwatch/internal/common"
	"github.com/fairpay/upiwatch/internal/model"
)

// Handler consumes one message delivery from the feed.
type Handler func(ctx context.Context, fragments []model.Fragment, receivedAt time.Time)

// feedLine is the wire shape of one feed entry.
type feedLine struct {
	Address   string `json:"address"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
}

// JSONLinesFeed reads deliveries from a line-delimited JSON stream.
type JSONLinesFeed struct {
	r io.Reader
}

// NewJSONLinesFeed creates a feed over r.
func NewJSONLinesFeed(r io.Reader) *JSONLinesFeed {
	return &JSONLinesFeed{r: r}
}

// Run reads the feed until EOF or context cancellation, invoking handle once
// per line. Malformed lines are logged and skipped; the loop never halts on
// bad input, matching how the receiver swallows per-message failures.
func (f *JSONLinesFeed) Run(ctx context.Context, handle Handler) error {
	scanner := bufio.NewScanner(f.r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry feedLine
		if err := json.Unmarshal(line, &entry); err != nil {
			common.LogError(err, "Skipping malformed feed line", nil)
			continue
		}

		receivedAt := time.Now()
		if entry.Timestamp > 0 {
			receivedAt = time.UnixMilli(entry.Timestamp)
		}

		handle(ctx, []model.Fragment{{Address: entry.Address, Body: entry.Body}}, receivedAt)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrFeedUnavailable, err)
	}
	return nil
}
