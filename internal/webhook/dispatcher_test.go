package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/buscacontatos/buscacontatos/internal/metrics"
	"github.com/buscacontatos/buscacontatos/internal/model"
	"github.com/buscacontatos/buscacontatos/internal/testutil"
)

type received struct {
	body      []byte
	signature string
	timestamp string
	delivery  string
}

func newReceiver(t *testing.T, failFirst int) (*httptest.Server, func() []received) {
	t.Helper()

	var (
		mu    sync.Mutex
		got   []received
		calls atomic.Int32
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		if int(n) <= failFirst {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		mu.Lock()
		got = append(got, received{
			body:      body,
			signature: r.Header.Get(HeaderSignature),
			timestamp: r.Header.Get(HeaderTimestamp),
			delivery:  r.Header.Get(HeaderDeliveryID),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []received {
		mu.Lock()
		defer mu.Unlock()
		return append([]received(nil), got...)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func newTestDispatcher(t *testing.T, cfg DispatcherConfig, recorder metrics.Recorder) *Dispatcher {
	t.Helper()
	cfg.AllowPrivate = true
	d := NewDispatcher(cfg, testutil.DiscardLogger(), recorder)
	d.retryDelay = func(int) time.Duration { return 10 * time.Millisecond }
	d.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = d.Shutdown(ctx)
	})
	return d
}

func TestPublisher_DeliversSignedContactCreated(t *testing.T) {
	t.Parallel()

	srv, got := newReceiver(t, 0)
	recorder := metrics.NewInMemory()
	d := newTestDispatcher(t, DispatcherConfig{}, recorder)
	pub := NewPublisher(d, testutil.DiscardLogger())

	hook := model.Webhook{ID: "wh1", URL: srv.URL + "/hooks", SecretHash: "signing-key"}
	contact := testutil.NewTestContact(t, "p1")

	pub.PublishContactsCreated(context.Background(), []model.Webhook{hook}, []model.Contact{contact})

	waitFor(t, func() bool { return len(got()) == 1 })

	r := got()[0]
	var payload model.WebhookPayload
	if err := json.Unmarshal(r.body, &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if payload.Event != model.EventContactCreated {
		t.Errorf("event = %s, want %s", payload.Event, model.EventContactCreated)
	}
	if payload.Data.PlaceID != "p1" || payload.EventID == "" {
		t.Errorf("payload = %+v", payload)
	}

	ts, err := strconv.ParseInt(r.timestamp, 10, 64)
	if err != nil {
		t.Fatalf("timestamp header %q: %v", r.timestamp, err)
	}
	if err := ValidateSignature("signing-key", r.signature, ts, r.body, DefaultReplayWindow); err != nil {
		t.Errorf("signature does not verify: %v", err)
	}
	if r.delivery == "" {
		t.Error("missing delivery id header")
	}

	waitFor(t, func() bool { return recorder.Snapshot().WebhookDeliveries["success"] == 1 })
}

func TestDispatcher_RetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	srv, got := newReceiver(t, 2)
	recorder := metrics.NewInMemory()
	d := newTestDispatcher(t, DispatcherConfig{MaxAttempts: 5}, recorder)

	if err := d.Enqueue(&Delivery{ID: "d1", TargetURL: srv.URL, SigningKey: "k", Payload: []byte(`{}`)}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	waitFor(t, func() bool { return len(got()) == 1 })
	waitFor(t, func() bool { return recorder.Snapshot().WebhookDeliveries["success"] == 1 })

	if failed := recorder.Snapshot().WebhookDeliveries["failed"]; failed != 2 {
		t.Errorf("failed deliveries = %d, want 2", failed)
	}
}

func TestDispatcher_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	srv, got := newReceiver(t, 100)
	recorder := metrics.NewInMemory()
	d := newTestDispatcher(t, DispatcherConfig{MaxAttempts: 2}, recorder)

	if err := d.Enqueue(&Delivery{ID: "d1", TargetURL: srv.URL, SigningKey: "k", Payload: []byte(`{}`)}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	waitFor(t, func() bool { return recorder.Snapshot().WebhookDeliveries["exhausted"] == 1 })
	if len(got()) != 0 {
		t.Errorf("no delivery should have succeeded, got %d", len(got()))
	}
	if failed := recorder.Snapshot().WebhookDeliveries["failed"]; failed != 1 {
		t.Errorf("failed deliveries = %d, want 1", failed)
	}
}

func TestDispatcher_BlocksPrivateTargets(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	recorder := metrics.NewInMemory()
	d := NewDispatcher(DispatcherConfig{}, testutil.DiscardLogger(), recorder)
	d.Start()
	defer func() { _ = d.Shutdown(context.Background()) }()

	if err := d.Enqueue(&Delivery{ID: "d1", TargetURL: srv.URL, Payload: []byte(`{}`)}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	waitFor(t, func() bool { return recorder.Snapshot().WebhookDeliveries["blocked"] == 1 })
	if hits.Load() != 0 {
		t.Error("loopback target should never be contacted")
	}
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	t.Parallel()

	recorder := metrics.NewInMemory()
	// Not started: nothing drains the queue.
	d := NewDispatcher(DispatcherConfig{QueueSize: 1}, testutil.DiscardLogger(), recorder)

	if err := d.Enqueue(&Delivery{ID: "d1"}); err != nil {
		t.Fatalf("first Enqueue() error = %v", err)
	}
	if err := d.Enqueue(&Delivery{ID: "d2"}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("second Enqueue() error = %v, want ErrQueueFull", err)
	}
	if dropped := recorder.Snapshot().WebhookDeliveries["dropped"]; dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
}

func TestDispatcher_RejectsAfterShutdown(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(DispatcherConfig{}, testutil.DiscardLogger(), nil)
	d.Start()
	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := d.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
	if err := d.Enqueue(&Delivery{ID: "late"}); !errors.Is(err, ErrDispatcherClosed) {
		t.Errorf("Enqueue() after shutdown error = %v, want ErrDispatcherClosed", err)
	}
}

func TestPublisher_NoHooksNoDeliveries(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(DispatcherConfig{QueueSize: 1}, testutil.DiscardLogger(), nil)
	pub := NewPublisher(d, testutil.DiscardLogger())

	pub.PublishContactsCreated(context.Background(), nil, []model.Contact{testutil.NewTestContact(t, "p1")})
	if len(d.queue) != 0 {
		t.Errorf("queue length = %d, want 0", len(d.queue))
	}
}
