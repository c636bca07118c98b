package seen

import (
	"sync"

	"sjsage522/profitsniper/helpers"
	"sjsage522/profitsniper/internal/models"
	sniperrors "sjsage522/profitsniper/pkg/errors"
)

// DefaultFindsCapacity is how many accepted finds the log keeps
const DefaultFindsCapacity = 500

// FindLog keeps the most recent accepted listings
type FindLog struct {
	mu       sync.Mutex
	path     string
	capacity int
	entries  []models.Listing
}

// NewFindLog creates an empty log persisted at path
func NewFindLog(path string, capacity int) *FindLog {
	if capacity <= 0 {
		capacity = DefaultFindsCapacity
	}
	return &FindLog{path: path, capacity: capacity}
}

// Add appends a find, dropping the oldest beyond capacity
func (f *FindLog) Add(l models.Listing) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, l)
	if over := len(f.entries) - f.capacity; over > 0 {
		f.entries = append([]models.Listing(nil), f.entries[over:]...)
	}
}

// Path returns the file the log is persisted to
func (f *FindLog) Path() string { return f.path }

// Entries returns a copy of the log, oldest first
func (f *FindLog) Entries() []models.Listing {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Listing, len(f.entries))
	copy(out, f.entries)
	return out
}

// Load restores the persisted finds
func (f *FindLog) Load() error {
	if f.path == "" {
		return nil
	}
	var entries []models.Listing
	if _, err := helpers.ReadJSONFile(f.path, &entries); err != nil {
		return sniperrors.NewPersistence("finds", "load "+f.path, err)
	}
	if len(entries) > f.capacity {
		entries = entries[len(entries)-f.capacity:]
	}
	f.mu.Lock()
	f.entries = entries
	f.mu.Unlock()
	return nil
}

// Save writes the log to its file
func (f *FindLog) Save() error {
	if f.path == "" {
		return nil
	}
	entries := f.Entries()
	if err := helpers.WriteJSONFile(f.path, entries); err != nil {
		return sniperrors.NewPersistence("finds", "save "+f.path, err)
	}
	return nil
}
