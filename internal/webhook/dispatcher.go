package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/buscacontatos/buscacontatos/internal/metrics"
)

const (
	// DefaultWorkers is the number of delivery goroutines.
	DefaultWorkers = 2
	// DefaultQueueSize bounds pending deliveries.
	DefaultQueueSize = 256
)

// Delivery is one payload addressed to one webhook.
type Delivery struct {
	ID         string
	WebhookID  string
	TargetURL  string
	SigningKey string
	Payload    []byte
	Attempt    int
}

// DispatcherConfig tunes a Dispatcher. Zero values select defaults.
type DispatcherConfig struct {
	Workers      int
	QueueSize    int
	MaxAttempts  int
	AllowPrivate bool
	Client       *http.Client
}

// Dispatcher delivers webhooks from a bounded in-memory queue.
// Enqueue never blocks; when the queue is full the delivery is dropped.
type Dispatcher struct {
	queue        chan *Delivery
	client       *http.Client
	logger       *slog.Logger
	metrics      metrics.Recorder
	workers      int
	maxAttempts  int
	allowPrivate bool
	retryDelay   func(attempt int) time.Duration

	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	retries sync.WaitGroup
	stop    chan struct{}
}

// NewDispatcher creates a dispatcher. Call Start to launch workers.
func NewDispatcher(cfg DispatcherConfig, logger *slog.Logger, recorder metrics.Recorder) *Dispatcher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Client == nil {
		cfg.Client = NewHTTPClient(cfg.AllowPrivate)
	}

	return &Dispatcher{
		queue:        make(chan *Delivery, cfg.QueueSize),
		client:       cfg.Client,
		logger:       logger.With("component", "webhook.dispatcher"),
		metrics:      recorder,
		workers:      cfg.Workers,
		maxAttempts:  cfg.MaxAttempts,
		allowPrivate: cfg.AllowPrivate,
		retryDelay:   NextRetryDelay,
		stop:         make(chan struct{}),
	}
}

// Start launches the worker goroutines.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	d.logger.Info("webhook dispatcher started", "workers", d.workers, "queue_size", cap(d.queue))
}

// Enqueue schedules a delivery without blocking.
func (d *Dispatcher) Enqueue(delivery *Delivery) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- delivery:
		d.metrics.SetWebhookQueueDepth(len(d.queue))
		return nil
	default:
		d.metrics.IncWebhookDelivery("dropped")
		d.logger.Warn("webhook queue full, dropping delivery",
			"delivery_id", delivery.ID,
			"webhook_id", delivery.WebhookID,
		)
		return ErrQueueFull
	}
}

// Shutdown stops accepting deliveries, cancels pending retries and waits for
// in-flight deliveries to finish or ctx to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.stop)
	d.mu.Unlock()

	d.retries.Wait()

	d.mu.Lock()
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("webhook dispatcher stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("webhook dispatcher shutdown: %w", ctx.Err())
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for delivery := range d.queue {
		d.metrics.SetWebhookQueueDepth(len(d.queue))
		d.deliver(delivery)
	}
}

func (d *Dispatcher) deliver(delivery *Delivery) {
	delivery.Attempt++

	ctx, cancel := context.WithTimeout(context.Background(), ClientTimeout)
	defer cancel()

	if !d.allowPrivate {
		if err := ValidateDeliveryTarget(ctx, delivery.TargetURL); err != nil {
			d.metrics.IncWebhookDelivery("blocked")
			d.logger.Warn("webhook target blocked",
				"delivery_id", delivery.ID,
				"target_host", ExtractHost(delivery.TargetURL),
				"error", err,
			)
			return
		}
	}

	start := time.Now()
	status, err := d.send(ctx, delivery)
	duration := time.Since(start)

	if err == nil {
		d.metrics.IncWebhookDelivery("success")
		d.logger.Info("webhook delivered",
			"delivery_id", delivery.ID,
			"target_host", ExtractHost(delivery.TargetURL),
			"http_status", status,
			"attempt", delivery.Attempt,
			"duration_ms", duration.Milliseconds(),
		)
		return
	}

	d.handleFailure(delivery, err)
}

func (d *Dispatcher) send(ctx context.Context, delivery *Delivery) (int, error) {
	timestamp := time.Now().Unix()
	signature := GenerateSignature(delivery.SigningKey, timestamp, delivery.Payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, delivery.TargetURL, bytes.NewReader(delivery.Payload))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	SetWebhookHeaders(req, HTTPHeaders{
		Signature:  signature,
		Timestamp:  strconv.FormatInt(timestamp, 10),
		DeliveryID: delivery.ID,
	})

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

func (d *Dispatcher) handleFailure(delivery *Delivery, err error) {
	exhausted := IsExhausted(delivery.Attempt, d.maxAttempts) || errors.Is(err, ErrPrivateIP)

	status := "failed"
	if exhausted {
		status = "exhausted"
	}
	d.metrics.IncWebhookDelivery(status)
	d.logger.Warn("webhook delivery failed",
		"delivery_id", delivery.ID,
		"target_host", ExtractHost(delivery.TargetURL),
		"attempt", delivery.Attempt,
		"exhausted", exhausted,
		"error", err,
	)
	if exhausted {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	delay := d.retryDelay(delivery.Attempt)
	d.retries.Add(1)
	go func() {
		defer d.retries.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			_ = d.Enqueue(delivery)
		case <-d.stop:
		}
	}()
}
