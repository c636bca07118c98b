package seen

import (
	"sync"

	"sjsage522/profitsniper/helpers"
	sniperrors "sjsage522/profitsniper/pkg/errors"
)

// DefaultCapacity bounds the seen-set when none is configured
const DefaultCapacity = 10000

// Set remembers processed listing ids. When full the oldest ids are forgotten.
type Set struct {
	mu       sync.Mutex
	path     string
	capacity int
	ids      map[string]struct{}
	order    []string
}

// NewSet creates an empty set persisted at path (empty path keeps it in memory)
func NewSet(path string, capacity int) *Set {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Set{
		path:     path,
		capacity: capacity,
		ids:      make(map[string]struct{}),
	}
}

// Contains reports whether id was seen
func (s *Set) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Add records id and reports whether it was new
func (s *Set) Add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
	for len(s.order) > s.capacity {
		delete(s.ids, s.order[0])
		s.order = s.order[1:]
	}
	return true
}

// Path returns the file the set is persisted to
func (s *Set) Path() string { return s.path }

// Len returns the number of remembered ids
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Load replaces the set with the persisted ids. A missing file leaves it empty.
func (s *Set) Load() error {
	if s.path == "" {
		return nil
	}
	var ids []string
	if _, err := helpers.ReadJSONFile(s.path, &ids); err != nil {
		return sniperrors.NewPersistence("seen", "load "+s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[string]struct{}, len(ids))
	s.order = s.order[:0]
	if len(ids) > s.capacity {
		ids = ids[len(ids)-s.capacity:]
	}
	for _, id := range ids {
		if _, ok := s.ids[id]; ok {
			continue
		}
		s.ids[id] = struct{}{}
		s.order = append(s.order, id)
	}
	return nil
}

// Save writes the ids oldest first
func (s *Set) Save() error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	s.mu.Unlock()

	if err := helpers.WriteJSONFile(s.path, ids); err != nil {
		return sniperrors.NewPersistence("seen", "save "+s.path, err)
	}
	return nil
}
