// Package live delivers message events to an attached listener in real time.
// Delivery is best-effort and at-most-once: with no listener attached the
// event is simply dropped, and the durable queue is the only fallback.
package live

import (
	"sync"
	"time"

	"github.com/fairpay/upiwatch/internal/model"
)

// RawEvent is the unclassified pass-through event fired for every received
// message while a listener is attached.
type RawEvent struct {
	Timestamp time.Time
	Address   string
	Body      string
}

// Listener receives live events. OnRawMessage fires at most once per
// received message; OnPaymentDetected additionally fires when the message
// classified and extracted as a payment.
type Listener interface {
	OnRawMessage(event RawEvent)
	OnPaymentDetected(record model.PaymentRecord)
}

// EventSource holds the single attachable listener. Attach and detach may be
// toggled from a different goroutine than delivery; a delivery that observes
// an attached listener completes its handoff to that same listener instance
// even if a detach lands concurrently.
type EventSource struct {
	listener Listener
	mu       sync.RWMutex
}

// NewEventSource creates an event source with no listener attached.
func NewEventSource() *EventSource {
	return &EventSource{}
}

// Attach sets the listener, replacing any previous one.
func (s *EventSource) Attach(l Listener) {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
}

// Detach removes the current listener. Subsequent deliveries are dropped.
func (s *EventSource) Detach() {
	s.mu.Lock()
	s.listener = nil
	s.mu.Unlock()
}

// Attached reports whether a listener is currently attached.
func (s *EventSource) Attached() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listener != nil
}

// Deliver hands a raw event, and the extracted record when present, to the
// attached listener. It reports whether a handoff happened; false means the
// event was dropped and the caller owns the durable fallback.
func (s *EventSource) Deliver(event RawEvent, record *model.PaymentRecord) bool {
	s.mu.RLock()
	l := s.listener
	s.mu.RUnlock()

	if l == nil {
		return false
	}

	l.OnRawMessage(event)
	if record != nil {
		l.OnPaymentDetected(*record)
	}
	return true
}
