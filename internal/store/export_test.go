package store

import "github.com/serroba/record-service-go/internal/record"

// InsertDuplicate adds a record without the uniqueness scan, simulating corruption.
func (m *MemoryStore) InsertDuplicate(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.records[m.nextID] = &record.Record{ID: m.nextID, Name: name, UpdatedAt: m.now()}
}
