// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory for tests.
type Recorder interface {
	// Session metrics
	IncLogin(method, result string) // method: "password" or "external"

	// Contact metrics
	IncContactsSaved(count int)
	IncContactsRemoved()

	// Admin metrics
	IncAdminAction(action string) // action: "status", "role", "delete"

	// Search metrics
	ObserveSearch(result string, duration time.Duration) // result: "success", "timeout", "malformed", "upstream"

	// Webhook delivery metrics
	IncWebhookDelivery(status string) // status: "success", "failed", "exhausted", "dropped"
	SetWebhookQueueDepth(depth int)

	// Store metrics
	IncStoreCorruption(collection string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
