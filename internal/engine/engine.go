// Package engine orchestrates the payment detection pipeline: it joins
// message fragments, classifies and extracts them, and routes the result to
// either the live listener or the durable pending queue.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fairpay/upiwatch/internal/common"
	"github.com/fairpay/upiwatch/internal/detect"
	"github.com/fairpay/upiwatch/internal/live"
	"github.com/fairpay/upiwatch/internal/model"
	"github.com/fairpay/upiwatch/internal/notify"
)

// StartResult reports the outcome of a StartWatching call. Permission denial
// is an expected condition, not an error.
type StartResult struct {
	Reason  string
	Started bool
}

// Start reasons.
const (
	ReasonPermissionDenied = "permission_denied"
	ReasonAlreadyRunning   = "already_running"
)

// Engine drives the detection pipeline. A single Engine serves both the live
// watch loop and one-shot background ingestion.
type Engine struct {
	store    Store
	notifier notify.Notifier
	gate     Gate
	detector *detect.Detector
	events   *live.EventSource

	mu       sync.Mutex
	stop     context.CancelFunc
	watching bool
}

// New creates an engine with the given collaborators.
func New(store Store, notifier notify.Notifier, gate Gate) *Engine {
	return &Engine{
		store:    store,
		notifier: notifier,
		gate:     gate,
		detector: detect.NewDetector(),
		events:   live.NewEventSource(),
	}
}

// Events exposes the live event source so callers can attach a listener.
func (e *Engine) Events() *live.EventSource {
	return e.events
}

// CheckPermissions reports whether message capture is permitted.
func (e *Engine) CheckPermissions(ctx context.Context) bool {
	return e.gate.Granted(ctx)
}

// StartWatching begins consuming the feed after the permission gate clears.
// Denial returns a structured result, never an error; starting twice reports
// already_running without a second consumer.
func (e *Engine) StartWatching(ctx context.Context, feed Feed) (StartResult, error) {
	if !e.gate.Granted(ctx) {
		slog.Warn("Message capture permission denied")
		return StartResult{Started: false, Reason: ReasonPermissionDenied}, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.watching {
		slog.Debug("Watch loop already running")
		return StartResult{Started: true, Reason: ReasonAlreadyRunning}, nil
	}

	watchCtx, cancel := context.WithCancel(ctx)
	e.stop = cancel
	e.watching = true

	go func() {
		err := feed.Run(watchCtx, e.HandleMessage)
		if err != nil && watchCtx.Err() == nil {
			common.LogError(err, "Watch loop stopped", nil)
		}

		e.mu.Lock()
		e.watching = false
		e.stop = nil
		e.mu.Unlock()
	}()

	slog.Info("Started watching message feed")
	return StartResult{Started: true}, nil
}

// StopWatching cancels the watch loop. Safe to call when not watching.
func (e *Engine) StopWatching() {
	e.mu.Lock()
	stop := e.stop
	e.mu.Unlock()

	if stop != nil {
		stop()
		slog.Info("Stopped watching message feed")
	}
}

// Watching reports whether the watch loop is running.
func (e *Engine) Watching() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.watching
}

// Close stops the watch loop and detaches any listener.
func (e *Engine) Close() {
	e.StopWatching()
	e.events.Detach()
}

// HandleMessage is the single pipeline entry for one message delivery,
// whether it arrives from the watch loop or a background trigger. Exactly
// one of live delivery and queue append happens per message, decided by
// listener attachment. Panics are recovered here so one bad message cannot
// take down the consumer, and a recovered invocation leaves no partial
// effects because the alert only follows a successful append.
func (e *Engine) HandleMessage(ctx context.Context, fragments []model.Fragment, receivedAt time.Time) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Message handling panicked, delivery abandoned", "panic", r)
		}
	}()

	if len(fragments) == 0 {
		return
	}

	msg := model.JoinFragments(fragments)
	msg.ReceivedAt = receivedAt

	var record *model.PaymentRecord
	if e.detector.IsPayment(msg.Body) {
		if extraction, ok := e.detector.Extract(msg.Body); ok {
			r := model.NewPaymentRecord(extraction.Amount, extraction.Payee, msg.Body, time.Now())
			record = &r
			slog.Debug("Payment detected",
				"amount", r.Amount.String(),
				"payee", r.Payee)
		}
	}

	event := live.RawEvent{
		Address:   msg.Sender,
		Body:      msg.Body,
		Timestamp: receivedAt,
	}
	if e.events.Deliver(event, record) {
		// Live path took the message; it is never also queued.
		return
	}

	if record == nil {
		return
	}

	if err := e.store.AppendPending(ctx, *record); err != nil {
		// The record is dropped silently; an alert must never refer to a
		// record that was not stored.
		common.LogError(err, "Dropping payment record, store write failed",
			common.Fields{"amount": record.Amount.String()})
		return
	}

	body := notify.FormatAlertBody(*record)
	if err := e.notifier.Alert(ctx, notify.AlertTitle, body, notify.PayloadFor(*record)); err != nil {
		common.LogError(err, "Alert failed for stored record",
			common.Fields{"id": record.ID})
	}
}
