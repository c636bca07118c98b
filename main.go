package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sjsage522/profitsniper/config"
	"sjsage522/profitsniper/helpers"
	"sjsage522/profitsniper/internal"
	"sjsage522/profitsniper/internal/classifier"
	"sjsage522/profitsniper/internal/crawler"
	"sjsage522/profitsniper/internal/currency"
	"sjsage522/profitsniper/internal/dedup"
	"sjsage522/profitsniper/internal/profile"
	"sjsage522/profitsniper/internal/profit"
	"sjsage522/profitsniper/internal/seen"
	"sjsage522/profitsniper/logger"
	"sjsage522/profitsniper/services/cache"
	"sjsage522/profitsniper/services/publisher"
	"sjsage522/profitsniper/services/queue"
	"sjsage522/profitsniper/services/store"
	"sjsage522/profitsniper/services/worker"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

const (
	rateCacheKey = "sniper:exchange_rate"
	rateCacheTTL = 6 * time.Hour

	shutdownTimeout = 15 * time.Second
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	prof, err := loadProfile(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid profile")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("profile", prof.Name).
		Float64("min_price_usd", prof.MinPriceUSD).
		Float64("max_price_usd", prof.MaxPriceUSD).
		Float64("min_roi", cfg.MinROIPercent).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	w, dispatcher, err := buildWorker(ctx, cfg, prof, services)
	if err != nil {
		services.Cleanup()
		log.Fatal().Err(err).Msg("Invalid worker options")
	}

	go dispatcher.Run(ctx)

	// Start worker in a goroutine
	workerDone := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting discovery worker")
		workerDone <- w.Run(ctx)
	}()

	// Wait for shutdown signal or worker error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
		if !waitForWorker(workerDone, shutdownTimeout) {
			log.Warn().Dur("timeout", shutdownTimeout).Msg("Worker did not stop in time")
		}
	case err := <-workerDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Worker exited with error")
		} else {
			log.Info().Msg("Worker exited normally")
		}
	}

	// In-flight work is abandoned; durable state is written before exit
	log.Info().Msg("Shutting down gracefully...")
	if err := w.Flush(); err != nil {
		log.Error().Err(err).Msg("Failed to flush state")
	}
}

// waitForWorker reports whether the worker returned within timeout
func waitForWorker(done <-chan error, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// loadProfile selects the profile and applies configured overrides
func loadProfile(cfg *config.Config) (profile.Profile, error) {
	prof, err := profile.Get(cfg.Profile)
	if err != nil {
		return profile.Profile{}, err
	}
	prof = prof.WithPriceBounds(cfg.MinPriceUSD, cfg.MaxPriceUSD)
	if cfg.BrandsFile != "" {
		brands, err := classifier.LoadBrands(cfg.BrandsFile)
		if err != nil {
			return profile.Profile{}, err
		}
		prof = prof.WithBrands(brands)
	}
	return prof, nil
}

func buildWorker(ctx context.Context, cfg *config.Config, prof profile.Profile, services *Services) (*worker.Worker, *worker.Dispatcher, error) {
	opts, err := worker.OptionsFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	events := helpers.NewEventLog(cfg.EventLogFile, 1000, 10)
	fetcher := helpers.NewFetcher(cfg.HTTPTimeout, nil)
	pages := crawler.NewCachedFetcher(fetcher, services.Cache, cfg.DetailBlockTime)

	rateStores := []currency.RateStore{&currency.FileRateStore{Path: cfg.RateFile}}
	if services.SharedCache {
		rateStores = append(rateStores, &currency.CacheRateStore{Cache: services.Cache, Key: rateCacheKey, TTL: rateCacheTTL})
	}
	normalizer := currency.NewNormalizer(currency.Options{
		RateURL:     cfg.RateURL,
		DefaultRate: cfg.DefaultRate,
		Client:      fetcher.Client(),
		Retry: helpers.RetryPolicy{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    cfg.RetryMaxDelay,
		},
		Stores: rateStores,
	})
	normalizer.Load(ctx)

	seenSet := seen.NewSet(cfg.SeenFile, cfg.SeenCapacity)
	if err := seenSet.Load(); err != nil {
		logger.ForWorker().Warn().Err(err).Msg("Starting with an empty seen set")
	}
	finds := seen.NewFindLog(cfg.FindsFile, cfg.FindsCap)
	if err := finds.Load(); err != nil {
		logger.ForWorker().Warn().Err(err).Msg("Starting with an empty finds log")
	}

	deps := internal.Dependencies{
		Profile:    prof,
		Source:     crawler.NewYahooSearch(pages, cfg.SearchURL, cfg.ListingBaseURL),
		Normalizer: normalizer,
		Classifier: prof.Classifier(),
		Mechanism:  classifier.NewMechanismResolver(pages, cfg.DetailPrimaryURL, cfg.DetailSecondaryURL),
		Estimator:  profit.NewEstimator(prof.Pricing, cfg.MinROIPercent),
		Detector:   dedup.NewDetector(services.Store),
		Seen:       seenSet,
		Finds:      finds,
		Store:      services.Store,
		Queue:      services.Queue,
		Events:     events,
	}

	dispatcher := worker.NewDispatcher(services.Queue, services.Publisher, services.Store, events,
		cfg.DispatchInterval, cfg.MaxDeliveryAttempts)
	w := worker.NewWorker(deps, opts).WithDispatcher(dispatcher)
	return w, dispatcher, nil
}

// Services holds all the initialized services
type Services struct {
	Cache       cache.CacheService
	SharedCache bool
	Publisher   publisher.Publisher
	Store       store.Store
	Queue       *queue.Queue
	redis       *redis.Client
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Store != nil {
		s.Store.Close()
	}
	if s.redis != nil {
		s.redis.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Initialize cache service
	if cfg.MemcacheAddr != "" {
		memcache := cache.NewMemcacheService(cfg.MemcacheAddr, cfg.HTTPTimeout)
		if err := memcache.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache not reachable yet")
		}
		services.Cache = memcache
		services.SharedCache = true
		logger.Info("Using Memcache at %s", cfg.MemcacheAddr)
	} else {
		services.Cache = cache.NewMemoryCache()
	}

	if cfg.Publisher == "redis" || cfg.QueueBackend == "redis" {
		services.redis = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		if err := services.redis.Ping(ctx).Err(); err != nil {
			services.Cleanup()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("Connected to Redis at %s (DB: %d)", cfg.RedisAddr, cfg.RedisDB)
	}

	// Initialize store
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			services.Cleanup()
			return nil, err
		}
		services.Store = pg
		logger.ForStore().Info().Msg("Using Postgres store")
	} else {
		services.Store = store.NewMemoryStore()
		logger.ForStore().Warn().Msg("DATABASE_URL not set, records are kept in memory")
	}

	// Initialize queue
	var backend queue.Backend
	switch cfg.QueueBackend {
	case "redis":
		backend = queue.NewRedisBackend(services.redis, cfg.QueueKey)
	default:
		backend = queue.NewFileBackend(cfg.QueueFile)
	}
	services.Queue = queue.New(backend, cfg.QueueCapacity)

	// Initialize publisher
	switch cfg.Publisher {
	case "redis":
		services.Publisher = publisher.NewRedisPublisherWithClient(services.redis, cfg.RedisStream, cfg.RedisStreamMaxLength)
		logger.Info("Publishing to Redis stream %s", cfg.RedisStream)
	default:
		services.Publisher = publisher.NewHTTPPublisher(cfg.NotifierURL, nil)
		logger.Info("Publishing to %s%s", cfg.NotifierURL, publisher.WebhookPath)
	}

	return services, nil
}
