package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairpay/upiwatch/internal/common"
	"github.com/fairpay/upiwatch/internal/live"
	"github.com/fairpay/upiwatch/internal/model"
	"github.com/fairpay/upiwatch/internal/notify"
	"github.com/fairpay/upiwatch/internal/source"
	"github.com/fairpay/upiwatch/internal/storage"
	"github.com/fairpay/upiwatch/internal/testutil"
)

// failingStore wraps a real store and forces append failures.
type failingStore struct {
	Store
	failAppend bool
}

func (s *failingStore) AppendPending(ctx context.Context, record model.PaymentRecord) error {
	if s.failAppend {
		return common.ErrStoreWrite
	}
	return s.Store.AppendPending(ctx, record)
}

// deniedGate rejects every permission check.
type deniedGate struct{}

func (deniedGate) Granted(context.Context) bool { return false }

type testListener struct {
	mu       sync.Mutex
	raw      []live.RawEvent
	records  []model.PaymentRecord
	panicRaw bool
}

func (l *testListener) OnRawMessage(event live.RawEvent) {
	l.mu.Lock()
	l.raw = append(l.raw, event)
	l.mu.Unlock()
	if l.panicRaw {
		panic("listener exploded")
	}
}

func (l *testListener) OnPaymentDetected(record model.PaymentRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, record)
}

func newTestEngine(t *testing.T) (*Engine, *storage.SQLiteStore, *notify.MockNotifier) {
	t.Helper()
	store := testutil.SetupTestStore(t)
	notifier := &notify.MockNotifier{}
	return New(store, notifier, GrantedGate{}), store, notifier
}

func deliver(e *Engine, body string) {
	e.HandleMessage(context.Background(), []model.Fragment{{Address: "HDFCBK", Body: body}}, time.Now())
}

func TestEngine_BackgroundPathStoresAndAlerts(t *testing.T) {
	e, store, notifier := newTestEngine(t)
	ctx := context.Background()

	deliver(e, "You have paid Rs. 1,500 to Ramesh Kumar on 12-05.")

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "1500", pending[0].Amount.String())
	assert.Equal(t, "Ramesh Kumar", pending[0].Payee)
	assert.Equal(t, "You have paid Rs. 1,500 to Ramesh Kumar on 12-05.", pending[0].RawMessage)

	require.Equal(t, 1, notifier.Count())
	alert := notifier.Alerts[0]
	assert.Equal(t, notify.AlertTitle, alert.Title)
	assert.Equal(t, "Paid ₹1500.00 to Ramesh Kumar. Tap to add as a shared expense.", alert.Body)
	assert.Equal(t, "Ramesh Kumar", alert.Payload.Payee)
	assert.True(t, pending[0].Amount.Equal(alert.Payload.Amount))
}

func TestEngine_ClassifierRejectionIsSilent(t *testing.T) {
	e, store, notifier := newTestEngine(t)

	deliver(e, "Your OTP is 4521, do not share.")

	pending, err := store.ListPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Zero(t, notifier.Count())
}

func TestEngine_ExtractionFailureIsSilent(t *testing.T) {
	e, store, notifier := newTestEngine(t)

	// Classifier accepts (has "debited") but the amount is non-positive.
	deliver(e, "Rs.0 debited")

	pending, err := store.ListPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Zero(t, notifier.Count())
}

func TestEngine_LivePathNeverQueues(t *testing.T) {
	e, store, notifier := newTestEngine(t)
	listener := &testListener{}
	e.Events().Attach(listener)

	deliver(e, "INR 250 debited from your account ref 99812")

	// The listener got both the raw event and the extracted record.
	require.Len(t, listener.raw, 1)
	require.Len(t, listener.records, 1)
	assert.Equal(t, "250", listener.records[0].Amount.String())
	assert.Empty(t, listener.records[0].Payee)

	// Nothing queued, nothing alerted for a live-delivered message.
	pending, err := store.ListPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Zero(t, notifier.Count())
}

func TestEngine_LivePathForwardsRawForNonPayments(t *testing.T) {
	e, _, _ := newTestEngine(t)
	listener := &testListener{}
	e.Events().Attach(listener)

	deliver(e, "Your OTP is 4521, do not share.")

	require.Len(t, listener.raw, 1)
	assert.Equal(t, "HDFCBK", listener.raw[0].Address)
	assert.Empty(t, listener.records)
}

func TestEngine_DetachRestoresQueuePath(t *testing.T) {
	e, store, _ := newTestEngine(t)
	listener := &testListener{}
	e.Events().Attach(listener)
	e.Events().Detach()

	deliver(e, "Sent Rs.40 to ramesh@upi ref 1234")

	pending, err := store.ListPending(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.Empty(t, listener.records)
}

func TestEngine_FragmentsConcatenateInOrder(t *testing.T) {
	e, store, _ := newTestEngine(t)

	e.HandleMessage(context.Background(), []model.Fragment{
		{Address: "HDFCBK", Body: "You have paid Rs. "},
		{Address: "HDFCBK", Body: "1,500 to Ramesh Kumar on 12-05."},
	}, time.Now())

	pending, err := store.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "1500", pending[0].Amount.String())
	assert.Equal(t, "Ramesh Kumar", pending[0].Payee)
}

func TestEngine_EmptyDeliveryIgnored(t *testing.T) {
	e, store, notifier := newTestEngine(t)

	e.HandleMessage(context.Background(), nil, time.Now())

	pending, err := store.ListPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Zero(t, notifier.Count())
}

func TestEngine_AlertSkippedWhenStoreFails(t *testing.T) {
	base := testutil.SetupTestStore(t)
	store := &failingStore{Store: base, failAppend: true}
	notifier := &notify.MockNotifier{}
	e := New(store, notifier, GrantedGate{})

	deliver(e, "INR 250 debited from your account ref 99812")

	// Record silently dropped; no alert may reference an unstored record.
	assert.Zero(t, notifier.Count())
	pending, err := base.ListPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestEngine_AlertFailureDoesNotUnstore(t *testing.T) {
	e, store, notifier := newTestEngine(t)
	notifier.SetError(errors.New("notification service down"))

	deliver(e, "INR 250 debited from your account ref 99812")

	pending, err := store.ListPending(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.Equal(t, 1, notifier.Count())
}

func TestEngine_RecoversListenerPanic(t *testing.T) {
	e, store, notifier := newTestEngine(t)
	e.Events().Attach(&testListener{panicRaw: true})

	require.NotPanics(t, func() {
		deliver(e, "INR 250 debited from your account ref 99812")
	})

	// Abandoned without partial effects.
	pending, err := store.ListPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Zero(t, notifier.Count())
}

func TestEngine_StartWatchingPermissionDenied(t *testing.T) {
	store := testutil.SetupTestStore(t)
	e := New(store, &notify.MockNotifier{}, deniedGate{})

	feed := source.NewJSONLinesFeed(strings.NewReader(`{"body":"INR 250 debited"}` + "\n"))
	result, err := e.StartWatching(context.Background(), feed)

	require.NoError(t, err)
	assert.False(t, result.Started)
	assert.Equal(t, ReasonPermissionDenied, result.Reason)
	assert.False(t, e.Watching())
}

func TestEngine_WatchLoopEndToEnd(t *testing.T) {
	e, store, _ := newTestEngine(t)

	input := strings.Join([]string{
		`{"address":"HDFCBK","body":"You have paid Rs. 1,500 to Ramesh Kumar on 12-05."}`,
		`{"address":"AXISBK","body":"Your OTP is 4521, do not share."}`,
		`{"address":"HDFCBK","body":"INR 250 debited from your account ref 99812"}`,
	}, "\n")

	result, err := e.StartWatching(context.Background(), source.NewJSONLinesFeed(strings.NewReader(input)))
	require.NoError(t, err)
	require.True(t, result.Started)

	// Feed hits EOF and the loop winds down on its own.
	require.Eventually(t, func() bool { return !e.Watching() }, 2*time.Second, 10*time.Millisecond)

	pending, err := store.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "1500", pending[0].Amount.String())
	assert.Equal(t, "250", pending[1].Amount.String())
}

func TestEngine_StartWatchingTwice(t *testing.T) {
	e, _, _ := newTestEngine(t)

	// A blocking feed keeps the first loop alive.
	blocked := make(chan struct{})
	t.Cleanup(func() { close(blocked) })
	feed := blockingFeed{unblock: blocked}

	first, err := e.StartWatching(context.Background(), feed)
	require.NoError(t, err)
	require.True(t, first.Started)
	assert.Empty(t, first.Reason)

	second, err := e.StartWatching(context.Background(), feed)
	require.NoError(t, err)
	assert.True(t, second.Started)
	assert.Equal(t, ReasonAlreadyRunning, second.Reason)

	e.StopWatching()
	require.Eventually(t, func() bool { return !e.Watching() }, 2*time.Second, 10*time.Millisecond)

	// Stopping again is a no-op.
	e.StopWatching()
}

type blockingFeed struct {
	unblock chan struct{}
}

func (f blockingFeed) Run(ctx context.Context, _ source.Handler) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.unblock:
		return nil
	}
}
