package store

import (
	"context"
	"errors"

	"sjsage522/profitsniper/internal/models"
	"sjsage522/profitsniper/internal/profit"
	sniperrors "sjsage522/profitsniper/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS profit_listings (
	id                     BIGSERIAL PRIMARY KEY,
	auction_id             TEXT NOT NULL UNIQUE,
	title                  TEXT NOT NULL,
	brand                  TEXT NOT NULL,
	price_jpy              BIGINT NOT NULL,
	price_usd              DOUBLE PRECISION NOT NULL,
	image_url              TEXT,
	listing_url            TEXT,
	listing_type           TEXT NOT NULL DEFAULT 'unknown',
	estimated_market_value DOUBLE PRECISION NOT NULL DEFAULT 0,
	purchase_price         DOUBLE PRECISION NOT NULL DEFAULT 0,
	estimated_sell_price   DOUBLE PRECISION NOT NULL DEFAULT 0,
	estimated_profit       DOUBLE PRECISION NOT NULL DEFAULT 0,
	roi_percent            DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_profitable          BOOLEAN NOT NULL DEFAULT FALSE,
	profit_tier            TEXT NOT NULL DEFAULT 'fair',
	deal_quality           DOUBLE PRECISION NOT NULL DEFAULT 0,
	priority_score         DOUBLE PRECISION NOT NULL DEFAULT 0,
	keyword_used           TEXT,
	source                 TEXT,
	message_id             TEXT,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_profit_listings_brand_price ON profit_listings (brand, price_usd);

-- written by the chat bot
CREATE TABLE IF NOT EXISTS bookmarks (
	id               BIGSERIAL PRIMARY KEY,
	user_id          TEXT NOT NULL,
	auction_id       TEXT NOT NULL,
	message_id       TEXT,
	estimated_profit DOUBLE PRECISION,
	roi_percent      DOUBLE PRECISION,
	reason           TEXT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, auction_id)
);

CREATE TABLE IF NOT EXISTS scraper_stats (
	id                 BIGSERIAL PRIMARY KEY,
	run_id             TEXT NOT NULL,
	source             TEXT,
	started_at         TIMESTAMPTZ NOT NULL,
	cycle_time_seconds DOUBLE PRECISION NOT NULL,
	keywords_searched  INTEGER NOT NULL,
	total_found        INTEGER NOT NULL,
	profitable_found   INTEGER NOT NULL,
	ultra_profit_found INTEGER NOT NULL,
	duplicates         INTEGER NOT NULL,
	queued             INTEGER NOT NULL,
	sent               INTEGER NOT NULL,
	errors_count       INTEGER NOT NULL,
	avg_roi_percent    DOUBLE PRECISION NOT NULL
);
`

const listingColumns = `auction_id, title, brand, price_jpy, price_usd,
	COALESCE(image_url, ''), COALESCE(listing_url, ''), listing_type,
	estimated_market_value, purchase_price, estimated_sell_price, estimated_profit,
	roi_percent, is_profitable, profit_tier,
	COALESCE(keyword_used, ''), COALESCE(source, ''), COALESCE(message_id, ''), created_at`

// PostgresStore implements Store on a pgx connection pool
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects, pings and applies the schema
func NewPostgresStore(ctx context.Context, dsn string, maxConns int) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, sniperrors.NewConfiguration("invalid DATABASE_URL", err)
	}
	if maxConns <= 0 {
		maxConns = 2
	}
	cfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, sniperrors.NewPersistence("postgres", "connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, sniperrors.NewPersistence("postgres", "ping", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the tables if they do not exist
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return sniperrors.NewPersistence("postgres", "migrate", err)
	}
	return nil
}

func (s *PostgresStore) UpsertListing(ctx context.Context, l models.Listing) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profit_listings
			(auction_id, title, brand, price_jpy, price_usd, image_url, listing_url, listing_type,
			 estimated_market_value, purchase_price, estimated_sell_price, estimated_profit,
			 roi_percent, is_profitable, profit_tier, deal_quality, priority_score,
			 keyword_used, source, message_id)
		VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),NULLIF($7,''),$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,NULLIF($18,''),$19,NULLIF($20,''))
		ON CONFLICT (auction_id) DO UPDATE SET
			title        = EXCLUDED.title,
			image_url    = COALESCE(EXCLUDED.image_url, profit_listings.image_url),
			listing_type = CASE WHEN EXCLUDED.listing_type = 'unknown' THEN profit_listings.listing_type ELSE EXCLUDED.listing_type END,
			message_id   = COALESCE(EXCLUDED.message_id, profit_listings.message_id)`,
		l.ID, l.Title, l.Brand, l.PriceOrigin, l.PriceReference, l.ImageURL, l.ListingURL, l.Mechanism.String(),
		l.EstimatedMarketValue, l.Profit.PurchasePrice, l.Profit.EstimatedSellPrice, l.Profit.EstimatedProfit,
		l.Profit.ROIPercent, l.Profit.IsProfitable, string(l.Profit.Tier), profit.Priority(l.Profit), profit.Priority(l.Profit),
		l.Keyword, l.Source, l.MessageRef,
	)
	if err != nil {
		return sniperrors.NewPersistence("postgres", "upsert listing "+l.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+listingColumns+` FROM profit_listings WHERE auction_id = $1`, id)
	l, err := scanListing(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, sniperrors.NewPersistence("postgres", "get listing "+id, err)
	}
	return &l, nil
}

func (s *PostgresStore) FindByBrandPriceRange(ctx context.Context, brand string, min, max float64, limit int) ([]models.Listing, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+listingColumns+` FROM profit_listings
		WHERE brand = $1 AND price_usd BETWEEN $2 AND $3
		ORDER BY created_at DESC
		LIMIT $4`, brand, min, max, limit)
	if err != nil {
		return nil, sniperrors.NewPersistence("postgres", "find by brand and price", err)
	}
	return collectListings(rows)
}

func (s *PostgresStore) FindByBrandPriceTitleFragment(ctx context.Context, brand string, min, max float64, fragment string) ([]models.Listing, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+listingColumns+` FROM profit_listings
		WHERE brand = $1 AND price_usd BETWEEN $2 AND $3
		  AND title ILIKE '%' || $4 || '%' ESCAPE '\'
		ORDER BY created_at DESC
		LIMIT 20`, brand, min, max, escapeLike(fragment))
	if err != nil {
		return nil, sniperrors.NewPersistence("postgres", "find by title fragment", err)
	}
	return collectListings(rows)
}

func (s *PostgresStore) SetMessageRef(ctx context.Context, id, ref string) error {
	_, err := s.pool.Exec(ctx, `UPDATE profit_listings SET message_id = $2 WHERE auction_id = $1`, id, ref)
	if err != nil {
		return sniperrors.NewPersistence("postgres", "set message ref "+id, err)
	}
	return nil
}

func (s *PostgresStore) RecordCycleStats(ctx context.Context, st models.CycleStats) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scraper_stats
			(run_id, source, started_at, cycle_time_seconds, keywords_searched, total_found,
			 profitable_found, ultra_profit_found, duplicates, queued, sent, errors_count, avg_roi_percent)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		st.RunID, st.Source, st.StartedAt, st.Duration.Seconds(), st.KeywordsSearched, st.TotalFound,
		st.ProfitableFound, st.UltraFound, st.Duplicates, st.Queued, st.Sent, st.Errors, st.AvgROI,
	)
	if err != nil {
		return sniperrors.NewPersistence("postgres", "record cycle stats", err)
	}
	return nil
}

func (s *PostgresStore) TierSummary(ctx context.Context) ([]models.TierSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT profit_tier, COUNT(*), COALESCE(AVG(roi_percent), 0)
		FROM profit_listings
		GROUP BY profit_tier
		ORDER BY profit_tier`)
	if err != nil {
		return nil, sniperrors.NewPersistence("postgres", "tier summary", err)
	}
	defer rows.Close()

	var out []models.TierSummary
	for rows.Next() {
		var ts models.TierSummary
		var tier string
		if err := rows.Scan(&tier, &ts.Count, &ts.AvgROI); err != nil {
			return nil, sniperrors.NewPersistence("postgres", "scan tier summary", err)
		}
		ts.Tier = models.ProfitTier(tier)
		out = append(out, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, sniperrors.NewPersistence("postgres", "tier summary rows", err)
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanListing(row pgx.Row) (models.Listing, error) {
	var l models.Listing
	var mechanism, tier string
	err := row.Scan(
		&l.ID, &l.Title, &l.Brand, &l.PriceOrigin, &l.PriceReference,
		&l.ImageURL, &l.ListingURL, &mechanism,
		&l.EstimatedMarketValue, &l.Profit.PurchasePrice, &l.Profit.EstimatedSellPrice, &l.Profit.EstimatedProfit,
		&l.Profit.ROIPercent, &l.Profit.IsProfitable, &tier,
		&l.Keyword, &l.Source, &l.MessageRef, &l.DiscoveredAt,
	)
	l.Mechanism = models.ParseMechanism(mechanism)
	l.Profit.Tier = models.ProfitTier(tier)
	return l, err
}

func collectListings(rows pgx.Rows) ([]models.Listing, error) {
	defer rows.Close()
	var out []models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, sniperrors.NewPersistence("postgres", "scan listing", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, sniperrors.NewPersistence("postgres", "listing rows", err)
	}
	return out, nil
}
