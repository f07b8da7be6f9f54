// Package calendar stores scheduled entries for matched events.
package calendar

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/gigradar/internal/domain/model"
	"github.com/okian/gigradar/pkg/metrics"
)

// Memory is an in-process calendar. IDs start at 1 and increase with each
// created entry.
type Memory struct {
	mu      sync.RWMutex
	entries []model.ScheduledEntry
	nextID  uint64
}

// NewMemory creates a Memory store holding seed, whose IDs are kept as given.
func NewMemory(seed ...model.ScheduledEntry) *Memory {
	m := &Memory{entries: append([]model.ScheduledEntry(nil), seed...)}
	for _, e := range seed {
		if e.ID > m.nextID {
			m.nextID = e.ID
		}
	}
	return m
}

// ListScheduled returns a snapshot of all entries in creation order.
func (m *Memory) ListScheduled(ctx context.Context) ([]model.ScheduledEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	metrics.UpdateScheduledEntries(len(m.entries))
	return append([]model.ScheduledEntry(nil), m.entries...), nil
}

// Create stores draft under the next ID.
func (m *Memory) Create(ctx context.Context, draft model.EntryDraft) (model.ScheduledEntry, error) {
	if err := ctx.Err(); err != nil {
		return model.ScheduledEntry{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	e := model.ScheduledEntry{
		ID:          m.nextID,
		Name:        draft.Name,
		Description: draft.Description,
		Start:       draft.Start,
		End:         draft.End,
		Location:    draft.Location,
	}
	m.entries = append(m.entries, e)
	return e, nil
}

// Delete removes the entry with the same ID.
func (m *Memory) Delete(ctx context.Context, entry model.ScheduledEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.ID == entry.ID {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrNotFound, entry.ID)
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
