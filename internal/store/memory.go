package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/serroba/record-service-go/internal/record"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of record.Repository.
// Every operation scans all records under a single lock, so find-then-act is atomic.
type MemoryStore struct {
	mu      sync.Mutex
	records map[int64]*record.Record // id -> record
	nextID  int64
	now     func() time.Time
	logger  *zap.Logger
}

// NewMemoryStore creates a new in-memory record store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		records: make(map[int64]*record.Record),
		now:     time.Now,
		logger:  logger,
	}
}

func (m *MemoryStore) Get(_ context.Context, name string) (*record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matches := m.match(name)

	switch len(matches) {
	case 0:
		return nil, record.ErrNotFound
	case 1:
		found := *matches[0]

		return &found, nil
	default:
		m.logger.Error("multiple records share a name",
			zap.String("name", name),
			zap.Int("matches", len(matches)),
		)

		return nil, record.ErrNotFound
	}
}

func (m *MemoryStore) Set(_ context.Context, name string) (*record.Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matches := m.match(name)

	switch len(matches) {
	case 0:
		m.nextID++
		rec := &record.Record{ID: m.nextID, Name: name, UpdatedAt: m.now()}
		m.records[rec.ID] = rec

		m.logger.Debug("created record", zap.Int64("id", rec.ID), zap.String("name", name))

		out := *rec

		return &out, true, nil
	case 1:
		rec, err := m.update(matches[0].ID, name)
		if err != nil {
			return nil, false, err
		}

		return rec, false, nil
	default:
		m.logger.Error("refusing to write duplicated record",
			zap.String("name", name),
			zap.Int("matches", len(matches)),
		)

		return nil, false, fmt.Errorf("%w: %d records named %q", record.ErrIntegrity, len(matches), name)
	}
}

// match returns every record with the given name. m.mu must be held.
func (m *MemoryStore) match(name string) []*record.Record {
	var matches []*record.Record

	for _, rec := range m.records {
		if rec.Name == name {
			matches = append(matches, rec)
		}
	}

	return matches
}

// update rewrites the record with the given id. m.mu must be held.
func (m *MemoryStore) update(id int64, name string) (*record.Record, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("update record %d: %w", id, record.ErrNotFound)
	}

	rec.Name = name
	rec.UpdatedAt = m.now()

	m.logger.Debug("updated record", zap.Int64("id", id), zap.String("name", name))

	out := *rec

	return &out, nil
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.records)
}

// Compile-time check.
var _ record.Repository = (*MemoryStore)(nil)
