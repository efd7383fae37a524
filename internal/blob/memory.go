package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

type entry struct {
	info Info
	data []byte
}

// Memory implements Store backed by process memory.
type Memory struct {
	mu   sync.RWMutex
	objs map[string]entry
	now  func() time.Time
}

// NewMemory returns an in-memory blob store.
func NewMemory() *Memory {
	return &Memory{objs: make(map[string]entry), now: time.Now}
}

// Driver returns the blob driver identifier.
func (m *Memory) Driver() Driver { return DriverMemory }

// Put stores a new blob; errors if key exists.
func (m *Memory) Put(_ context.Context, key string, r io.Reader, contentType string) (Info, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Info{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.objs[key]; exists {
		return Info{}, fmt.Errorf("blob %s already exists", key)
	}
	info := Info{Key: key, Size: int64(len(b)), ContentType: contentType, LastModified: m.now().UTC()}
	m.objs[key] = entry{info: info, data: b}
	return info, nil
}

// Get returns blob metadata and a reader over a copy of its content.
func (m *Memory) Get(_ context.Context, key string) (Info, io.ReadCloser, error) {
	m.mu.RLock()
	obj, ok := m.objs[key]
	m.mu.RUnlock()
	if !ok {
		return Info{}, nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return obj.info, io.NopCloser(bytes.NewReader(bytes.Clone(obj.data))), nil
}

// Delete removes the blob if present.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objs, key)
	m.mu.Unlock()
	return nil
}
