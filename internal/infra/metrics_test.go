package infra

import (
	"testing"
)

func TestMetrics_RecordApplied(t *testing.T) {
	m := &Metrics{}

	m.RecordApplied()
	m.RecordApplied()
	m.RecordApplied()

	snap := m.Snapshot()

	if snap.MessagesApplied != 3 {
		t.Errorf("Expected 3 applied, got %d", snap.MessagesApplied)
	}
}

func TestMetrics_Rejects(t *testing.T) {
	m := &Metrics{}

	m.RecordApplied()
	m.RecordReject()
	m.RecordReject()

	snap := m.Snapshot()
	if snap.MessagesApplied != 1 {
		t.Errorf("Expected 1 applied, got %d", snap.MessagesApplied)
	}
	if snap.MessagesRejected != 2 {
		t.Errorf("Expected 2 rejected, got %d", snap.MessagesRejected)
	}
}

func TestMetrics_Connections(t *testing.T) {
	m := &Metrics{}

	m.IncrementConnections()
	m.IncrementConnections()
	m.IncrementConnections()

	snap := m.Snapshot()
	if snap.ActiveConnections != 3 {
		t.Errorf("Expected 3 connections, got %d", snap.ActiveConnections)
	}

	m.DecrementConnections()
	snap = m.Snapshot()
	if snap.ActiveConnections != 2 {
		t.Errorf("Expected 2 connections, got %d", snap.ActiveConnections)
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := &Metrics{}

	m.RecordApplied()
	m.RecordError()
	m.IncrementConnections()

	m.Reset()
	snap := m.Snapshot()

	if snap.MessagesApplied != 0 {
		t.Error("Expected 0 applied after reset")
	}
	if snap.ErrorsTotal != 0 {
		t.Error("Expected 0 errors after reset")
	}
	if snap.ActiveConnections != 0 {
		t.Error("Expected 0 connections after reset")
	}
}
