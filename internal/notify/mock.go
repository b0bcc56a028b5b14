package notify

import (
	"context"
	"sync"
)

// MockNotifier records alerts for tests.
type MockNotifier struct {
	err    error
	Alerts []MockAlert
	mu     sync.Mutex
}

// MockAlert is one recorded Alert call.
type MockAlert struct {
	Title   string
	Body    string
	Payload ResumePayload
}

// Alert records the call and returns the configured error, if any.
func (m *MockNotifier) Alert(_ context.Context, title, body string, payload ResumePayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Alerts = append(m.Alerts, MockAlert{Title: title, Body: body, Payload: payload})
	return m.err
}

// SetError makes subsequent Alert calls fail with err.
func (m *MockNotifier) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Count returns the number of recorded alerts.
func (m *MockNotifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Alerts)
}
