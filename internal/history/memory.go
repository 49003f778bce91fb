package history

import (
	"context"
	"sync"
	"time"
)

// Memory keeps the most recent entries in process.
// Used when no database is configured.
type Memory struct {
	mu       sync.Mutex
	entries  []Entry // oldest first
	capacity int
}

// NewMemory creates a store holding at most capacity entries
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Memory{capacity: capacity}
}

// Save appends entries, evicting the oldest beyond capacity
func (m *Memory) Save(_ context.Context, entries ...Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, entries...)
	if over := len(m.entries) - m.capacity; over > 0 {
		m.entries = append(m.entries[:0:0], m.entries[over:]...)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (m *Memory) Recent(_ context.Context, limit int) ([]Entry, error) {
	limit = ClampLimit(limit)

	m.mu.Lock()
	defer m.mu.Unlock()

	n := min(limit, len(m.entries))
	out := make([]Entry, 0, n)
	for i := len(m.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

// DeleteOlderThan drops entries created before cutoff
func (m *Memory) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.entries[:0]
	var deleted int64
	for _, e := range m.entries {
		if e.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return deleted, nil
}

// Summary counts the retained entries per label
func (m *Memory) Summary(ctx context.Context, recent int) (Summary, error) {
	if recent <= 0 {
		recent = SummaryRecent
	}

	var sum Summary

	m.mu.Lock()
	for _, e := range m.entries {
		sum.add(e.Result.Label, 1)
	}
	m.mu.Unlock()

	entries, err := m.Recent(ctx, recent)
	if err != nil {
		return Summary{}, err
	}
	sum.Recent = entries
	return sum, nil
}
