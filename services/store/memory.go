package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"sjsage522/profitsniper/internal/models"
)

// MemoryStore keeps records in process memory. It is safe for concurrent use
// and can be shared by several workers inside one process.
type MemoryStore struct {
	mu       sync.RWMutex
	listings map[string]models.Listing
	order    []string
	stats    []models.CycleStats
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		listings: make(map[string]models.Listing),
	}
}

func (s *MemoryStore) UpsertListing(ctx context.Context, l models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.listings[l.ID]
	if !ok {
		if l.DiscoveredAt.IsZero() {
			l.DiscoveredAt = time.Now()
		}
		s.listings[l.ID] = l
		s.order = append(s.order, l.ID)
		return nil
	}

	existing.Title = l.Title
	if l.ImageURL != "" {
		existing.ImageURL = l.ImageURL
	}
	if l.Mechanism != models.MechanismUnknown {
		existing.Mechanism = l.Mechanism
	}
	if l.MessageRef != "" {
		existing.MessageRef = l.MessageRef
	}
	s.listings[l.ID] = existing
	return nil
}

func (s *MemoryStore) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (s *MemoryStore) FindByBrandPriceRange(ctx context.Context, brand string, min, max float64, limit int) ([]models.Listing, error) {
	return s.find(brand, min, max, "", limit), nil
}

func (s *MemoryStore) FindByBrandPriceTitleFragment(ctx context.Context, brand string, min, max float64, fragment string) ([]models.Listing, error) {
	return s.find(brand, min, max, strings.ToLower(fragment), 0), nil
}

// find walks newest first, like the SQL queries
func (s *MemoryStore) find(brand string, min, max float64, fragment string, limit int) []models.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Listing
	for i := len(s.order) - 1; i >= 0; i-- {
		l := s.listings[s.order[i]]
		if l.Brand != brand || l.PriceReference < min || l.PriceReference > max {
			continue
		}
		if fragment != "" && !strings.Contains(strings.ToLower(l.Title), fragment) {
			continue
		}
		out = append(out, l)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func (s *MemoryStore) SetMessageRef(ctx context.Context, id, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.listings[id]; ok {
		l.MessageRef = ref
		s.listings[id] = l
	}
	return nil
}

func (s *MemoryStore) RecordCycleStats(ctx context.Context, st models.CycleStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = append(s.stats, st)
	return nil
}

// CycleStats returns the recorded cycles, oldest first
func (s *MemoryStore) CycleStats() []models.CycleStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CycleStats, len(s.stats))
	copy(out, s.stats)
	return out
}

func (s *MemoryStore) TierSummary(ctx context.Context) ([]models.TierSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sums := make(map[models.ProfitTier]*models.TierSummary)
	for _, l := range s.listings {
		t := l.Profit.Tier
		if sums[t] == nil {
			sums[t] = &models.TierSummary{Tier: t}
		}
		sums[t].Count++
		sums[t].AvgROI += l.Profit.ROIPercent
	}

	out := make([]models.TierSummary, 0, len(sums))
	for _, sum := range sums {
		sum.AvgROI /= float64(sum.Count)
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tier < out[j].Tier })
	return out, nil
}

// Len returns the number of stored listings
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listings)
}

func (s *MemoryStore) Close() error { return nil }
