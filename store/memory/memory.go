package memory

import (
	"maps"
	"sync"

	"go.hackfix.me/kvdb/store"
)

// Memory is an in-memory Store. It is safe for concurrent use.
type Memory struct {
	mx   sync.RWMutex
	data map[string]string
}

var _ store.Store = &Memory{}

// New returns a new Memory store that takes ownership of data. A nil map is
// treated as empty.
func New(data map[string]string) *Memory {
	if data == nil {
		data = make(map[string]string)
	}
	return &Memory{data: data}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mx.RLock()
	defer m.mx.RUnlock()
	val, ok := m.data[key]
	return val, ok
}

func (m *Memory) Set(key, value string) {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.data[key] = value
}

func (m *Memory) Len() int {
	m.mx.RLock()
	defer m.mx.RUnlock()
	return len(m.data)
}

func (m *Memory) Snapshot() map[string]string {
	m.mx.RLock()
	defer m.mx.RUnlock()
	return maps.Clone(m.data)
}
