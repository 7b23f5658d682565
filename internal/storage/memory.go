package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"remindbot/internal/reminder"
)

// Memory is an in-process Store. Nothing survives a restart; it exists for
// tests and for running without a database file.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	recs   map[int64]reminder.Reminder
}

func NewMemory() *Memory {
	return &Memory{nextID: 1, recs: map[int64]reminder.Reminder{}}
}

func (m *Memory) Create(ctx context.Context, r reminder.Reminder) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.nextID
	m.nextID++
	m.recs[r.ID] = r
	return r.ID, nil
}

func (m *Memory) ListActive(ctx context.Context, ownerID string, now time.Time) ([]reminder.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []reminder.Reminder
	for _, r := range m.recs {
		if r.OwnerID == ownerID && r.DueAt.After(now) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueAt.Before(out[j].DueAt) })
	return out, nil
}

func (m *Memory) Update(ctx context.Context, id int64, ownerID string, r reminder.Reminder) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.recs[id]
	if !ok || cur.OwnerID != ownerID {
		return false, nil
	}
	cur.Message = r.Message
	cur.Mode = r.Mode
	cur.DueAt = r.DueAt
	cur.ChannelID = r.ChannelID
	m.recs[id] = cur
	return true, nil
}

func (m *Memory) Delete(ctx context.Context, id int64, ownerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.recs[id]
	if !ok || cur.OwnerID != ownerID {
		return false, nil
	}
	delete(m.recs, id)
	return true, nil
}

func (m *Memory) PopDue(ctx context.Context, now time.Time) ([]reminder.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []reminder.Reminder
	for _, r := range m.recs {
		if !r.DueAt.After(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) Remove(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, id)
	return nil
}

func (m *Memory) Close() error { return nil }
