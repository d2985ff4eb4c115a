package metrics

import (
	"sync"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Logins            map[string]uint64 // "method:result"
	ContactsSaved     uint64
	ContactsRemoved   uint64
	AdminActions      map[string]uint64
	Searches          map[string]uint64
	SearchDurationNs  int64
	WebhookDeliveries map[string]uint64
	WebhookQueueDepth int
	StoreCorruptions  map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{snap: Snapshot{
		Logins:            map[string]uint64{},
		AdminActions:      map[string]uint64{},
		Searches:          map[string]uint64{},
		WebhookDeliveries: map[string]uint64{},
		StoreCorruptions:  map[string]uint64{},
	}}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.snap
	out.Logins = cloneCounts(m.snap.Logins)
	out.AdminActions = cloneCounts(m.snap.AdminActions)
	out.Searches = cloneCounts(m.snap.Searches)
	out.WebhookDeliveries = cloneCounts(m.snap.WebhookDeliveries)
	out.StoreCorruptions = cloneCounts(m.snap.StoreCorruptions)
	return out
}

// IncLogin increments the login counter for method and result.
func (m *InMemoryRecorder) IncLogin(method, result string) {
	m.mu.Lock()
	m.snap.Logins[method+":"+result]++
	m.mu.Unlock()
}

// IncContactsSaved adds count newly saved contacts.
func (m *InMemoryRecorder) IncContactsSaved(count int) {
	m.mu.Lock()
	m.snap.ContactsSaved += uint64(count)
	m.mu.Unlock()
}

// IncContactsRemoved increments the removed contacts counter.
func (m *InMemoryRecorder) IncContactsRemoved() {
	m.mu.Lock()
	m.snap.ContactsRemoved++
	m.mu.Unlock()
}

// IncAdminAction increments the admin action counter.
func (m *InMemoryRecorder) IncAdminAction(action string) {
	m.mu.Lock()
	m.snap.AdminActions[action]++
	m.mu.Unlock()
}

// ObserveSearch records a search outcome and its duration.
func (m *InMemoryRecorder) ObserveSearch(result string, duration time.Duration) {
	m.mu.Lock()
	m.snap.Searches[result]++
	m.snap.SearchDurationNs += duration.Nanoseconds()
	m.mu.Unlock()
}

// IncWebhookDelivery increments the delivery counter for status.
func (m *InMemoryRecorder) IncWebhookDelivery(status string) {
	m.mu.Lock()
	m.snap.WebhookDeliveries[status]++
	m.mu.Unlock()
}

// SetWebhookQueueDepth records the current queue depth.
func (m *InMemoryRecorder) SetWebhookQueueDepth(depth int) {
	m.mu.Lock()
	m.snap.WebhookQueueDepth = depth
	m.mu.Unlock()
}

// IncStoreCorruption increments the corruption counter for a collection.
func (m *InMemoryRecorder) IncStoreCorruption(collection string) {
	m.mu.Lock()
	m.snap.StoreCorruptions[collection]++
	m.mu.Unlock()
}

func cloneCounts(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
