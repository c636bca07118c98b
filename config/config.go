package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	sniperrors "sjsage522/profitsniper/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Environment
	Environment string

	// Pipeline profile
	Profile       string
	BrandsFile    string
	MinROIPercent float64
	// MinPriceUSD and MaxPriceUSD override the profile bounds when non-zero
	MinPriceUSD float64
	MaxPriceUSD float64

	// Delivery
	Publisher           string
	NotifierURL         string
	DispatchInterval    time.Duration
	MaxDeliveryAttempts int

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Queue configuration
	QueueBackend  string
	QueueKey      string
	QueueFile     string
	QueueCapacity int

	// Memcache configuration; empty disables the shared cache
	MemcacheAddr string

	// Store configuration; empty DatabaseURL keeps records in memory
	DatabaseURL string
	DBMaxConns  int

	// Local state files
	SeenFile     string
	SeenCapacity int
	FindsFile    string
	FindsCap     int
	EventLogFile string
	RateFile     string

	// Exchange rate
	RateURL           string
	DefaultRate       float64
	RateRefreshCycles int

	// Discovery source
	SearchURL          string
	ListingBaseURL     string
	DetailPrimaryURL   string
	DetailSecondaryURL string
	DetailBlockTime    time.Duration
	HTTPTimeout        time.Duration

	// SearchFilters lists the mechanism passes run per keyword ("bin", "auction", "any")
	SearchFilters string

	// Cycle pacing
	MaxPagesPerKeyword int
	KeywordsPerCycle   int
	PageDelayMin       time.Duration
	PageDelayMax       time.Duration
	KeywordDelayMin    time.Duration
	KeywordDelayMax    time.Duration
	ItemDelay          time.Duration
	CycleTarget        time.Duration
	CycleFloor         time.Duration

	// Retry policy for outbound calls
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration

	// invalid holds "KEY=value" for numeric settings that did not parse
	invalid []string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	env := &envReader{}
	cfg := &Config{
		Environment: getEnv("SNIPER_ENVIRONMENT", "development"),

		Profile:       getEnv("SNIPER_PROFILE", "luxury"),
		BrandsFile:    getEnv("BRANDS_FILE", ""),
		MinROIPercent: env.getEnvFloat("MIN_ROI_PERCENT", 200),
		MinPriceUSD:   env.getEnvFloat("MIN_PRICE_USD", 0),
		MaxPriceUSD:   env.getEnvFloat("MAX_PRICE_USD", 0),

		Publisher:           getEnv("PUBLISHER", "http"),
		NotifierURL:         getEnv("NOTIFIER_URL", ""),
		DispatchInterval:    env.getEnvDuration("DISPATCH_INTERVAL", 2*time.Second),
		MaxDeliveryAttempts: env.getEnvInt("MAX_DELIVERY_ATTEMPTS", 3),

		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              env.getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "sniper:listings"),
		RedisStreamMaxLength: env.getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000),

		QueueBackend:  getEnv("QUEUE_BACKEND", "file"),
		QueueKey:      getEnv("QUEUE_KEY", "sniper:queue"),
		QueueFile:     getEnv("QUEUE_FILE", "sniper_queue.json"),
		QueueCapacity: env.getEnvInt("QUEUE_CAPACITY", 1000),

		MemcacheAddr: getEnv("MEMCACHE_ADDR", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBMaxConns:  env.getEnvInt("DB_MAX_CONNS", 4),

		SeenFile:     getEnv("SEEN_FILE", "seen_items.json"),
		SeenCapacity: env.getEnvInt("SEEN_CAPACITY", 10000),
		FindsFile:    getEnv("FINDS_FILE", "finds.json"),
		FindsCap:     env.getEnvInt("FINDS_CAPACITY", 500),
		EventLogFile: getEnv("EVENT_LOG_FILE", "event_log.json"),
		RateFile:     getEnv("EXCHANGE_RATE_FILE", "exchange_rate.json"),

		RateURL:           getEnv("EXCHANGE_RATE_URL", "https://api.exchangerate-api.com/v4/latest/USD"),
		DefaultRate:       env.getEnvFloat("DEFAULT_EXCHANGE_RATE", 150),
		RateRefreshCycles: env.getEnvInt("RATE_REFRESH_CYCLES", 10),

		SearchURL:          getEnv("SEARCH_URL", "https://auctions.yahoo.co.jp/search/search"),
		ListingBaseURL:     getEnv("LISTING_BASE_URL", "https://auctions.yahoo.co.jp"),
		DetailPrimaryURL:   getEnv("DETAIL_PRIMARY_URL", "https://zenmarket.jp/en/auction.aspx?itemCode=%s"),
		DetailSecondaryURL: getEnv("DETAIL_SECONDARY_URL", "https://page.auctions.yahoo.co.jp/jp/auction/%s"),
		DetailBlockTime:    env.getEnvDuration("DETAIL_BLOCK_TIME", 5*time.Minute),
		HTTPTimeout:        env.getEnvDuration("HTTP_TIMEOUT", 15*time.Second),
		SearchFilters:      getEnv("SEARCH_FILTERS", "bin,auction"),

		MaxPagesPerKeyword: env.getEnvInt("MAX_PAGES_PER_KEYWORD", 20),
		KeywordsPerCycle:   env.getEnvInt("KEYWORDS_PER_CYCLE", 50),
		PageDelayMin:       env.getEnvDuration("PAGE_DELAY_MIN", 3*time.Second),
		PageDelayMax:       env.getEnvDuration("PAGE_DELAY_MAX", 6*time.Second),
		KeywordDelayMin:    env.getEnvDuration("KEYWORD_DELAY_MIN", 8*time.Second),
		KeywordDelayMax:    env.getEnvDuration("KEYWORD_DELAY_MAX", 12*time.Second),
		ItemDelay:          env.getEnvDuration("ITEM_DELAY", 500*time.Millisecond),
		CycleTarget:        env.getEnvDuration("CYCLE_TARGET", 10*time.Minute),
		CycleFloor:         env.getEnvDuration("CYCLE_FLOOR", 3*time.Minute),

		RetryMaxAttempts: env.getEnvInt("RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:   env.getEnvDuration("RETRY_BASE_DELAY", time.Second),
		RetryMaxDelay:    env.getEnvDuration("RETRY_MAX_DELAY", 10*time.Second),
	}
	cfg.invalid = env.invalid
	return cfg
}

// Validate checks required values and ranges
func (c *Config) Validate() error {
	if len(c.invalid) > 0 {
		return sniperrors.NewConfiguration("malformed settings: "+strings.Join(c.invalid, ", "), nil)
	}

	switch c.Publisher {
	case "http":
		if c.NotifierURL == "" {
			return sniperrors.NewConfiguration("NOTIFIER_URL is required when PUBLISHER=http", nil)
		}
		if _, err := url.ParseRequestURI(c.NotifierURL); err != nil {
			return sniperrors.NewConfiguration("NOTIFIER_URL is not a valid URL", err)
		}
	case "redis":
		if c.RedisStream == "" {
			return sniperrors.NewConfiguration("REDIS_STREAM is required when PUBLISHER=redis", nil)
		}
	default:
		return sniperrors.NewConfiguration(fmt.Sprintf("unknown PUBLISHER %q", c.Publisher), nil)
	}

	switch c.QueueBackend {
	case "redis", "file":
	default:
		return sniperrors.NewConfiguration(fmt.Sprintf("unknown QUEUE_BACKEND %q", c.QueueBackend), nil)
	}

	if c.Profile == "" {
		return sniperrors.NewConfiguration("SNIPER_PROFILE is required", nil)
	}
	if c.MinROIPercent <= 0 {
		return sniperrors.NewConfiguration("MIN_ROI_PERCENT must be positive", nil)
	}
	if c.MinPriceUSD < 0 || c.MaxPriceUSD < 0 {
		return sniperrors.NewConfiguration("price bounds must not be negative", nil)
	}
	if c.MaxPriceUSD > 0 && c.MinPriceUSD > c.MaxPriceUSD {
		return sniperrors.NewConfiguration("MIN_PRICE_USD exceeds MAX_PRICE_USD", nil)
	}
	if c.QueueCapacity <= 0 {
		return sniperrors.NewConfiguration("QUEUE_CAPACITY must be positive", nil)
	}
	if c.MaxPagesPerKeyword <= 0 || c.KeywordsPerCycle <= 0 {
		return sniperrors.NewConfiguration("MAX_PAGES_PER_KEYWORD and KEYWORDS_PER_CYCLE must be positive", nil)
	}
	if c.DefaultRate <= 0 {
		return sniperrors.NewConfiguration("DEFAULT_EXCHANGE_RATE must be positive", nil)
	}
	if c.RetryMaxAttempts <= 0 {
		return sniperrors.NewConfiguration("RETRY_MAX_ATTEMPTS must be positive", nil)
	}
	if c.HTTPTimeout <= 0 {
		return sniperrors.NewConfiguration("HTTP_TIMEOUT must be positive", nil)
	}
	if c.PageDelayMax < c.PageDelayMin || c.KeywordDelayMax < c.KeywordDelayMin {
		return sniperrors.NewConfiguration("delay maximums must not be below minimums", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

// envReader parses numeric settings and remembers the ones that are malformed
type envReader struct {
	invalid []string
}

func (r *envReader) reject(key, value string) {
	r.invalid = append(r.invalid, key+"="+value)
}

func (r *envReader) getEnvInt(key string, defaultValue int) int {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		r.reject(key, value)
		return defaultValue
	}
	return n
}

func (r *envReader) getEnvFloat(key string, defaultValue float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		r.reject(key, value)
		return defaultValue
	}
	return f
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds
func (r *envReader) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	r.reject(key, value)
	return defaultValue
}
