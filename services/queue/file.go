package queue

import (
	"context"
	"sort"
	"sync"

	"sjsage522/profitsniper/helpers"
	"sjsage522/profitsniper/internal/models"
	sniperrors "sjsage522/profitsniper/pkg/errors"
)

// FileBackend keeps the queue as a JSON array. Every operation reads and
// rewrites the file under a process-local mutex, so it is safe within one
// process only. Two processes sharing the same file will lose updates; use
// RedisBackend when several scrapers share a queue.
// An empty path keeps the queue in memory.
type FileBackend struct {
	mu      sync.Mutex
	path    string
	items   []models.QueuedItem
	loaded  bool
	nextSeq int64
}

// NewFileBackend creates a backend persisted at path
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (f *FileBackend) load() error {
	if f.path == "" {
		f.loaded = true
		return nil
	}
	var items []models.QueuedItem
	if _, err := helpers.ReadJSONFile(f.path, &items); err != nil {
		return sniperrors.NewPersistence("queue", "load "+f.path, err)
	}
	f.items = items
	for _, it := range items {
		if it.Seq >= f.nextSeq {
			f.nextSeq = it.Seq + 1
		}
	}
	f.loaded = true
	return nil
}

func (f *FileBackend) save() error {
	if f.path == "" {
		return nil
	}
	items := f.items
	if items == nil {
		items = []models.QueuedItem{}
	}
	if err := helpers.WriteJSONFile(f.path, items); err != nil {
		return sniperrors.NewPersistence("queue", "save "+f.path, err)
	}
	return nil
}

func (f *FileBackend) refresh() error {
	if f.path == "" && f.loaded {
		return nil
	}
	return f.load()
}

func (f *FileBackend) sortItems() {
	sort.SliceStable(f.items, func(i, j int) bool {
		if f.items[i].Priority != f.items[j].Priority {
			return f.items[i].Priority > f.items[j].Priority
		}
		return f.items[i].Seq < f.items[j].Seq
	})
}

func (f *FileBackend) Push(ctx context.Context, item models.QueuedItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.refresh(); err != nil {
		return err
	}
	item.Seq = f.nextSeq
	f.nextSeq++
	f.items = append(f.items, item)
	f.sortItems()
	return f.save()
}

func (f *FileBackend) Pop(ctx context.Context) (*models.QueuedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.refresh(); err != nil {
		return nil, err
	}
	if len(f.items) == 0 {
		return nil, nil
	}
	item := f.items[0]
	f.items = f.items[1:]
	if err := f.save(); err != nil {
		return nil, err
	}
	return &item, nil
}

func (f *FileBackend) Len(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.refresh(); err != nil {
		return 0, err
	}
	return len(f.items), nil
}

func (f *FileBackend) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = nil
	f.loaded = true
	return f.save()
}

func (f *FileBackend) TrimTo(ctx context.Context, capacity int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.refresh(); err != nil {
		return 0, err
	}
	over := len(f.items) - capacity
	if over <= 0 {
		return 0, nil
	}
	f.items = f.items[:capacity]
	return over, f.save()
}
