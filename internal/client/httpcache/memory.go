package httpcache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/wecare/internal/common"
)

type memGeneration struct {
	ready   bool
	entries map[string]*Entry
}

// MemoryStorage keeps generations in process memory.
type MemoryStorage struct {
	mu   sync.RWMutex
	gens map[string]*memGeneration
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{gens: make(map[string]*memGeneration)}
}

func (m *MemoryStorage) generation(name string) *memGeneration {
	g, ok := m.gens[name]
	if !ok {
		g = &memGeneration{entries: make(map[string]*Entry)}
		m.gens[name] = g
	}
	return g
}

func (m *MemoryStorage) CreateGeneration(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation(name)
	return nil
}

func (m *MemoryStorage) MarkReady(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation(name).ready = true
	return nil
}

func (m *MemoryStorage) IsReady(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.gens[name]
	return ok && g.ready, nil
}

func (m *MemoryStorage) Generations(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.gens))
	for n := range m.gens {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryStorage) DeleteGeneration(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.gens, name)
	return nil
}

func (m *MemoryStorage) Get(_ context.Context, generation, key string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.gens[generation]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", generation, key, common.ErrNotFound)
	}
	e, ok := g.entries[key]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", generation, key, common.ErrNotFound)
	}
	cp := *e
	cp.Header = e.Header.Clone()
	cp.Body = append([]byte(nil), e.Body...)
	return &cp, nil
}

func (m *MemoryStorage) Put(_ context.Context, generation, key string, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	cp.Header = e.Header.Clone()
	cp.Body = append([]byte(nil), e.Body...)
	m.generation(generation).entries[key] = &cp
	return nil
}
