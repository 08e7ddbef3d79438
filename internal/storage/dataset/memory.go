package dataset

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/protrade/protrade/internal/core"
	"github.com/protrade/protrade/internal/dataset"
)

// Memory is an in-memory dataset store bounded to maxSize entries. When
// full, the oldest upload is evicted to make room.
type Memory struct {
	mu       sync.RWMutex
	datasets map[string]*dataset.Dataset
	order    []string // insertion order, oldest first
	maxSize  int
}

// NewMemory creates an in-memory store holding at most maxSize datasets.
func NewMemory(maxSize int) *Memory {
	return &Memory{
		datasets: make(map[string]*dataset.Dataset, maxSize),
		maxSize:  maxSize,
	}
}

// Put stores the dataset and assigns it a fresh ID.
func (m *Memory) Put(ctx context.Context, ds *dataset.Dataset) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	ds.ID = id
	m.datasets[id] = ds
	m.order = append(m.order, id)

	for len(m.order) > m.maxSize {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.datasets, oldest)
	}

	return id, nil
}

// Get retrieves a dataset by ID. Callers must not mutate the result.
func (m *Memory) Get(ctx context.Context, id string) (*dataset.Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ds, ok := m.datasets[id]
	if !ok {
		return nil, core.ErrDatasetNotFound
	}
	return ds, nil
}

// List returns summaries of all stored datasets, newest first.
func (m *Memory) List(ctx context.Context) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		infos = append(infos, InfoOf(m.datasets[m.order[i]]))
	}
	return infos, nil
}

// Delete removes a dataset by ID.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.datasets[id]; !ok {
		return core.ErrDatasetNotFound
	}
	delete(m.datasets, id)

	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}
