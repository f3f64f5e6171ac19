// Package memory stores blob content in-memory for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/isaacgw/parkrun-sync/internal/storage"
)

type object struct {
	data     []byte
	modified time.Time
}

// Store keeps objects in a map guarded by a mutex.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{objects: make(map[string]object)}
}

// Get returns a copy of the stored content, or storage.ErrNotFound.
func (s *Store) Get(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), obj.data...), nil
}

// Put stores a copy of the content, stamping it with the current time.
func (s *Store) Put(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = object{
		data:     append([]byte(nil), data...),
		modified: time.Now(),
	}
	return nil
}

// List enumerates objects sorted by name for deterministic tests.
func (s *Store) List(_ context.Context) ([]storage.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]storage.ObjectInfo, 0, len(s.objects))
	for name, obj := range s.objects {
		out = append(out, storage.ObjectInfo{Name: name, LastModified: obj.modified})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes an object; missing objects are ignored.
func (s *Store) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, name)
	return nil
}

// Touch overrides an object's last-modified time. Test helper.
func (s *Store) Touch(name string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj, ok := s.objects[name]; ok {
		obj.modified = at
		s.objects[name] = obj
	}
}
