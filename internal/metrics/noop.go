package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin(method, result string) {}

// IncContactsSaved is a no-op.
func (n *NoopRecorder) IncContactsSaved(count int) {}

// IncContactsRemoved is a no-op.
func (n *NoopRecorder) IncContactsRemoved() {}

// IncAdminAction is a no-op.
func (n *NoopRecorder) IncAdminAction(action string) {}

// ObserveSearch is a no-op.
func (n *NoopRecorder) ObserveSearch(result string, duration time.Duration) {}

// IncWebhookDelivery is a no-op.
func (n *NoopRecorder) IncWebhookDelivery(status string) {}

// SetWebhookQueueDepth is a no-op.
func (n *NoopRecorder) SetWebhookQueueDepth(depth int) {}

// IncStoreCorruption is a no-op.
func (n *NoopRecorder) IncStoreCorruption(collection string) {}
