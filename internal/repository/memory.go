package repository

import (
	"sort"
	"sync"
)

// Memory is an in-process Store for tests and paper trading. Safe for
// concurrent use.
type Memory struct {
	mu     sync.RWMutex
	sets   map[string]map[string]struct{}
	hashes map[string]map[string]string
	lists  map[string][][]byte
}

// NewMemory allocates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sets:   make(map[string]map[string]struct{}),
		hashes: make(map[string]map[string]string),
		lists:  make(map[string][][]byte),
	}
}

func (m *Memory) SetAdd(key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	set[member] = struct{}{}
	return nil
}

func (m *Memory) SetRemove(key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if set, ok := m.sets[key]; ok {
		delete(set, member)
	}
	return nil
}

func (m *Memory) SetMembers(key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := m.sets[key]
	out := make([]string, 0, len(set))
	for member := range set {
		out = append(out, member)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) HashSet(key, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	hash, ok := m.hashes[key]
	if !ok {
		hash = make(map[string]string)
		m.hashes[key] = hash
	}
	hash[field] = value
	return nil
}

func (m *Memory) HashGet(key, field string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.hashes[key][field]
	return value, ok, nil
}

func (m *Memory) HashGetAll(key string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hash := m.hashes[key]
	out := make(map[string]string, len(hash))
	for field, value := range hash {
		out[field] = value
	}
	return out, nil
}

func (m *Memory) ListPush(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([]byte, len(value))
	copy(copied, value)
	m.lists[key] = append(m.lists[key], copied)
	return nil
}

func (m *Memory) ListRange(key string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.lists[key]
	out := make([][]byte, len(list))
	for i, value := range list {
		copied := make([]byte, len(value))
		copy(copied, value)
		out[i] = copied
	}
	return out, nil
}

func (m *Memory) ListLen(key string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.lists[key]), nil
}

func (m *Memory) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets = make(map[string]map[string]struct{})
	m.hashes = make(map[string]map[string]string)
	m.lists = make(map[string][][]byte)
	return nil
}

func (m *Memory) Close() error { return nil }
