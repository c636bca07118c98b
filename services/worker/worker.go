package worker

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"sjsage522/profitsniper/config"
	"sjsage522/profitsniper/helpers"
	"sjsage522/profitsniper/internal"
	"sjsage522/profitsniper/internal/crawler"
	"sjsage522/profitsniper/internal/models"
	"sjsage522/profitsniper/internal/profit"
	"sjsage522/profitsniper/logger"
	sniperrors "sjsage522/profitsniper/pkg/errors"

	"github.com/google/uuid"
)

// State is the worker's position in the discovery cycle
type State int32

const (
	StateIdle State = iota
	StateSearching
	StateCooldown
)

func (s State) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateCooldown:
		return "cooldown"
	default:
		return "idle"
	}
}

const (
	// shortPage and shortPageAfter stop pagination once results thin out
	shortPage      = 20
	shortPageAfter = 5
)

// Options are the pacing knobs of a worker
type Options struct {
	KeywordsPerCycle  int
	MaxPages          int
	Filters           []crawler.Filter
	PageDelayMin      time.Duration
	PageDelayMax      time.Duration
	KeywordDelayMin   time.Duration
	KeywordDelayMax   time.Duration
	ItemDelay         time.Duration
	ErrorDelay        time.Duration
	CycleTarget       time.Duration
	CycleFloor        time.Duration
	RateRefreshCycles int
}

// OptionsFromConfig reads the pacing knobs and search passes from the configuration
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	filters, err := crawler.ParseFilters(cfg.SearchFilters)
	if err != nil {
		return Options{}, err
	}
	return Options{
		KeywordsPerCycle:  cfg.KeywordsPerCycle,
		MaxPages:          cfg.MaxPagesPerKeyword,
		Filters:           filters,
		PageDelayMin:      cfg.PageDelayMin,
		PageDelayMax:      cfg.PageDelayMax,
		KeywordDelayMin:   cfg.KeywordDelayMin,
		KeywordDelayMax:   cfg.KeywordDelayMax,
		ItemDelay:         cfg.ItemDelay,
		ErrorDelay:        5 * time.Second,
		CycleTarget:       cfg.CycleTarget,
		CycleFloor:        cfg.CycleFloor,
		RateRefreshCycles: cfg.RateRefreshCycles,
	}, nil
}

// Cooldown is max(floor, target-elapsed)
func Cooldown(elapsed, target, floor time.Duration) time.Duration {
	if d := target - elapsed; d > floor {
		return d
	}
	return floor
}

// Worker runs discovery cycles for one profile
type Worker struct {
	deps       internal.Dependencies
	opts       Options
	keywords   []string
	dispatcher *Dispatcher
	log        *logger.Logger
	sleep      func(ctx context.Context, d time.Duration) error
	rnd        *rand.Rand

	state  atomic.Int32
	cycles int
	flush  sync.Mutex
}

// NewWorker creates a worker. Keywords come from the profile.
func NewWorker(deps internal.Dependencies, opts Options) *Worker {
	if len(opts.Filters) == 0 {
		opts.Filters = []crawler.Filter{crawler.FilterAny}
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 1
	}
	return &Worker{
		deps:     deps,
		opts:     opts,
		keywords: deps.Profile.Keywords(),
		log:      logger.ForWorker().WithField("profile", deps.Profile.Name),
		sleep:    helpers.SleepContext,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithDispatcher lets cycle statistics report deliveries
func (w *Worker) WithDispatcher(d *Dispatcher) *Worker {
	w.dispatcher = d
	return w
}

// State returns the current state
func (w *Worker) State() State {
	return State(w.state.Load())
}

func (w *Worker) setState(s State) {
	w.state.Store(int32(s))
}

// Run loops cycles until ctx is cancelled
func (w *Worker) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats := w.RunCycle(ctx)

		cooldown := Cooldown(stats.Duration, w.opts.CycleTarget, w.opts.CycleFloor)
		w.setState(StateCooldown)
		w.log.Info().Dur("cooldown", cooldown).Msg("Cycle complete, cooling down")
		err := w.sleep(ctx, cooldown)
		w.setState(StateIdle)
		if err != nil {
			return err
		}
	}
}

// RunCycle searches one batch of keywords and returns the cycle statistics
func (w *Worker) RunCycle(ctx context.Context) models.CycleStats {
	w.cycles++
	stats := models.CycleStats{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Source:    w.deps.Profile.Source,
	}
	var sentBefore int64
	if w.dispatcher != nil {
		sentBefore = w.dispatcher.Delivered()
	}

	if w.opts.RateRefreshCycles > 0 && (w.cycles-1)%w.opts.RateRefreshCycles == 0 {
		w.deps.Normalizer.Refresh(ctx)
	}

	keywords := w.pickKeywords()
	w.setState(StateSearching)
	w.log.Info().
		Str("run_id", stats.RunID).
		Int("cycle", w.cycles).
		Int("keywords", len(keywords)).
		Float64("rate", w.deps.Normalizer.Rate()).
		Msg("Starting cycle")

	var roiSum float64
	for i, kw := range keywords {
		if ctx.Err() != nil {
			break
		}
		if err := w.searchKeyword(ctx, kw, &stats, &roiSum); err != nil {
			if ctx.Err() != nil {
				break
			}
			stats.Errors++
			w.recordError("worker", fmt.Errorf("keyword %q: %w", kw, err))
			if w.sleep(ctx, w.opts.ErrorDelay) != nil {
				break
			}
		}
		if i < len(keywords)-1 {
			if w.sleep(ctx, w.between(w.opts.KeywordDelayMin, w.opts.KeywordDelayMax)) != nil {
				break
			}
		}
	}

	stats.Duration = time.Since(stats.StartedAt)
	if stats.Queued > 0 {
		stats.AvgROI = roiSum / float64(stats.Queued)
	}
	if w.dispatcher != nil {
		stats.Sent = int(w.dispatcher.Delivered() - sentBefore)
	}
	w.finishCycle(stats)
	return stats
}

func (w *Worker) finishCycle(stats models.CycleStats) {
	// record even when the cycle was interrupted
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.deps.Store.RecordCycleStats(ctx, stats); err != nil {
		w.log.Warn().Err(err).Msg("Failed to record cycle statistics")
	}
	if err := w.saveState(false); err != nil {
		w.log.Warn().Err(err).Msg("Failed to save state")
	}
	w.reportTiers(ctx, stats.RunID)

	w.log.Info().
		Str("run_id", stats.RunID).
		Dur("elapsed", stats.Duration).
		Int("keywords", stats.KeywordsSearched).
		Int("found", stats.TotalFound).
		Int("profitable", stats.ProfitableFound).
		Int("ultra", stats.UltraFound).
		Int("duplicates", stats.Duplicates).
		Int("queued", stats.Queued).
		Int("sent", stats.Sent).
		Int("errors", stats.Errors).
		Float64("avg_roi", stats.AvgROI).
		Msg("Cycle statistics")
	if w.deps.Events != nil {
		w.deps.Events.Record("cycle", "worker", fmt.Sprintf("%s: %d found, %d queued, %d errors",
			stats.RunID, stats.TotalFound, stats.Queued, stats.Errors))
	}
}

// reportTiers logs the stored finds per profit tier
func (w *Worker) reportTiers(ctx context.Context, runID string) {
	tiers, err := w.deps.Store.TierSummary(ctx)
	if err != nil {
		w.log.Warn().Err(err).Msg("Failed to read tier summary")
		return
	}
	if len(tiers) == 0 {
		return
	}

	parts := make([]string, 0, len(tiers))
	ev := w.log.Info().Str("run_id", runID)
	for _, t := range tiers {
		ev = ev.Int(string(t.Tier), t.Count)
		parts = append(parts, fmt.Sprintf("%s=%d (avg roi %.0f%%)", t.Tier, t.Count, t.AvgROI))
	}
	ev.Msg("Tier summary")
	if w.deps.Events != nil {
		w.deps.Events.Record("tiers", "worker", strings.Join(parts, ", "))
	}
}

func (w *Worker) pickKeywords() []string {
	kws := make([]string, len(w.keywords))
	copy(kws, w.keywords)
	w.rnd.Shuffle(len(kws), func(i, j int) { kws[i], kws[j] = kws[j], kws[i] })
	if n := w.opts.KeywordsPerCycle; n > 0 && len(kws) > n {
		kws = kws[:n]
	}
	return kws
}

func (w *Worker) between(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(w.rnd.Int63n(int64(max-min)))
}

// searchKeyword runs one pass per filter. A panic is converted into the returned error.
func (w *Worker) searchKeyword(ctx context.Context, kw string, stats *models.CycleStats, roiSum *float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	stats.KeywordsSearched++
	maxPrice := w.deps.Normalizer.MaxOriginPrice(w.deps.Profile.MaxPriceUSD)
	pages := w.opts.MaxPages / len(w.opts.Filters)
	if pages < 1 {
		pages = 1
	}

	for _, filter := range w.opts.Filters {
		for page := 1; page <= pages; page++ {
			if page > 1 {
				if err := w.sleep(ctx, w.between(w.opts.PageDelayMin, w.opts.PageDelayMax)); err != nil {
					return err
				}
			}

			res, err := w.deps.Source.Search(ctx, crawler.Query{
				Keyword:  kw,
				Page:     page,
				MaxPrice: maxPrice,
				Filter:   filter,
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				stats.Errors++
				w.log.Warn().Err(err).Str("keyword", kw).Int("page", page).Msg("Search page failed")
				if sniperrors.IsType(err, sniperrors.ErrorTypeRateLimit) {
					break
				}
				if err := w.sleep(ctx, w.opts.ErrorDelay); err != nil {
					return err
				}
				continue
			}
			if res.Count == 0 {
				break
			}

			for _, raw := range res.Listings {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.processListing(ctx, raw, kw, stats, roiSum)
			}

			if res.Count < shortPage && page > shortPageAfter {
				break
			}
		}
	}
	return nil
}

// processListing runs the pipeline for one search result
func (w *Worker) processListing(ctx context.Context, raw crawler.RawListing, kw string, stats *models.CycleStats, roiSum *float64) {
	d := w.deps
	stats.TotalFound++
	log := w.log.WithField("auction_id", raw.ID)

	if banned, term := d.Classifier.HasBannedTerm(raw.Title); banned {
		log.Debug().Str("term", term).Msg("Skipping banned term")
		return
	}
	if !d.Classifier.IsTargetCategory(raw.Title) {
		return
	}
	if d.Seen.Contains(raw.ID) {
		stats.Duplicates++
		return
	}

	priceUSD := d.Normalizer.Convert(raw.PriceOrigin)
	if priceUSD < d.Profile.MinPriceUSD || priceUSD > d.Profile.MaxPriceUSD {
		return
	}

	brand := d.Classifier.BrandOf(raw.Title)
	marketValue := d.Estimator.EstimateMarketValue(raw.Title, brand)
	analysis := d.Estimator.CalculateProfit(priceUSD, marketValue)
	if !analysis.IsProfitable {
		return
	}
	stats.ProfitableFound++

	mechanism := d.Mechanism.Resolve(ctx, raw.ID)

	listing := models.Listing{
		ID:                   raw.ID,
		Title:                raw.Title,
		Brand:                brand,
		PriceOrigin:          raw.PriceOrigin,
		PriceReference:       priceUSD,
		Mechanism:            mechanism,
		ImageURL:             raw.ImageURL,
		ListingURL:           raw.Link,
		Keyword:              kw,
		EstimatedMarketValue: marketValue,
		Profit:               analysis,
		Source:               d.Profile.Source,
		DiscoveredAt:         time.Now(),
	}
	if err := listing.Validate(); err != nil {
		log.Warn().Err(err).Msg("Skipping malformed listing")
		return
	}

	if res := d.Detector.Check(ctx, listing); res.IsDuplicate {
		stats.Duplicates++
		d.Seen.Add(listing.ID)
		log.Debug().Str("reason", string(res.Reason)).Msg("Duplicate listing")
		return
	}

	d.Seen.Add(listing.ID)
	if err := d.Store.UpsertListing(ctx, listing); err != nil {
		log.Warn().Err(err).Msg("Failed to store listing")
	}
	d.Finds.Add(listing)
	if err := d.Queue.Enqueue(ctx, listing, profit.Priority(analysis)); err != nil {
		stats.Errors++
		w.recordError("queue", fmt.Errorf("enqueue %s: %w", listing.ID, err))
		return
	}

	stats.Queued++
	*roiSum += analysis.ROIPercent
	if analysis.Tier == models.TierUltra {
		stats.UltraFound++
	}

	log.Info().
		Str("title", helpers.Truncate(listing.Title, 60)).
		Str("brand", brand).
		Float64("price_usd", priceUSD).
		Float64("market_value", marketValue).
		Float64("roi", analysis.ROIPercent).
		Str("tier", string(analysis.Tier)).
		Str("mechanism", mechanism.String()).
		Msg("Profitable find")
	if d.Events != nil {
		d.Events.Record("find", "worker", fmt.Sprintf("%s %s $%.2f roi %.0f%%",
			listing.ID, brand, priceUSD, analysis.ROIPercent))
	}

	// detail pages were fetched for this item
	_ = w.sleep(ctx, w.opts.ItemDelay)
}

func (w *Worker) recordError(component string, err error) {
	if w.deps.Events != nil {
		w.deps.Events.LogError(component, err)
		return
	}
	w.log.Error().Err(err).Str("component", component).Msg("error")
}

// Flush persists the seen set, the finds log and the event log
func (w *Worker) Flush() error {
	return w.saveState(true)
}

// saveState serializes every save of the worker's durable state
func (w *Worker) saveState(withEvents bool) error {
	w.flush.Lock()
	defer w.flush.Unlock()

	var errs []error
	if err := w.deps.Seen.Save(); err != nil {
		errs = append(errs, err)
	}
	if err := w.deps.Finds.Save(); err != nil {
		errs = append(errs, err)
	}
	if withEvents && w.deps.Events != nil {
		if err := w.deps.Events.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
