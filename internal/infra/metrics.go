package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	messagesApplied  atomic.Uint64
	messagesRejected atomic.Uint64
	errorsTotal      atomic.Uint64

	// Gauges
	activeConnections atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordApplied records one message applied to the store.
func (m *Metrics) RecordApplied() {
	m.messagesApplied.Add(1)
}

// RecordReject records one rejected or unknown message.
func (m *Metrics) RecordReject() {
	m.messagesRejected.Add(1)
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// IncrementConnections increments active producer connections by 1.
func (m *Metrics) IncrementConnections() {
	m.activeConnections.Add(1)
}

// DecrementConnections decrements active producer connections by 1.
func (m *Metrics) DecrementConnections() {
	m.activeConnections.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	MessagesApplied   uint64    `json:"messages_applied"`
	MessagesRejected  uint64    `json:"messages_rejected"`
	ErrorsTotal       uint64    `json:"errors_total"`
	ActiveConnections int32     `json:"active_connections"`
	Timestamp         time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		MessagesApplied:   m.messagesApplied.Load(),
		MessagesRejected:  m.messagesRejected.Load(),
		ErrorsTotal:       m.errorsTotal.Load(),
		ActiveConnections: m.activeConnections.Load(),
		Timestamp:         time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.messagesApplied.Store(0)
	m.messagesRejected.Store(0)
	m.errorsTotal.Store(0)
	m.activeConnections.Store(0)
}
