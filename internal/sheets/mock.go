package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/rfm-segments/internal/model"
)

// MockWriter is a mock implementation of service.SnapshotExporter for testing.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, title string, snap *model.Snapshot) error
	LastSnapshot   *model.Snapshot
	LastTitle      string
	WriteCalls     []WriteCall
	WriteCallCount int
	mu             sync.Mutex
}

// WriteCall represents a single call to WriteSnapshot.
type WriteCall struct {
	Error    error
	Snapshot *model.Snapshot
	Title    string
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{
		WriteCalls: make([]WriteCall, 0),
	}
}

// WriteSnapshot implements the service.SnapshotExporter interface.
func (m *MockWriter) WriteSnapshot(ctx context.Context, title string, snap *model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++
	m.LastTitle = title
	m.LastSnapshot = snap

	var err error
	if m.WriteFunc != nil {
		err = m.WriteFunc(ctx, title, snap)
	}

	m.WriteCalls = append(m.WriteCalls, WriteCall{
		Title:    title,
		Snapshot: snap,
		Error:    err,
	})

	return err
}

// GetWriteCalls returns a copy of all write calls.
func (m *MockWriter) GetWriteCalls() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]WriteCall, len(m.WriteCalls))
	copy(calls, m.WriteCalls)
	return calls
}

// SetWriteError configures the mock to return an error on every call.
func (m *MockWriter) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteFunc = func(context.Context, string, *model.Snapshot) error {
		return err
	}
}
