package postgres

import (
	"context"
	"fmt"

	"mlx-scraper-service/internal/contextkeys"
	"mlx-scraper-service/internal/core/domain"
	"mlx-scraper-service/internal/core/port"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createPropertiesTableSQL = `
	CREATE TABLE IF NOT EXISTS properties (
		object_hash       TEXT        NOT NULL,
		year              INT         NOT NULL,
		listing_id        TEXT        NOT NULL,
		mls_number        TEXT        NOT NULL,
		built_year        INT         NOT NULL DEFAULT 0,
		street_number     TEXT        NOT NULL,
		street_name       TEXT        NOT NULL,
		street_direction  TEXT        NOT NULL,
		street_type       TEXT        NOT NULL,
		city              TEXT        NOT NULL,
		postal_code       TEXT        NOT NULL,
		neighborhood      TEXT        NOT NULL,
		latitude          DOUBLE PRECISION NOT NULL,
		longitude         DOUBLE PRECISION NOT NULL,
		square_feet       DOUBLE PRECISION NOT NULL,
		list_price        DOUBLE PRECISION NOT NULL,
		sold_price        DOUBLE PRECISION NOT NULL,
		list_date         TEXT        NOT NULL,
		sold_date         TEXT        NOT NULL,
		bedrooms          TEXT        NOT NULL,
		bathrooms         TEXT        NOT NULL,
		agent             TEXT        NOT NULL,
		office            TEXT        NOT NULL,
		detail_url        TEXT        NOT NULL,
		source_shape      TEXT        NOT NULL,
		fetch_date        TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (object_hash, year)
	);
`

const upsertPropertySQL = `
	INSERT INTO properties (
		object_hash, year, listing_id, mls_number, built_year,
		street_number, street_name, street_direction, street_type,
		city, postal_code, neighborhood,
		latitude, longitude, square_feet,
		list_price, sold_price, list_date, sold_date,
		bedrooms, bathrooms, agent, office,
		detail_url, source_shape, fetch_date
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26
	)
	ON CONFLICT (object_hash, year) DO UPDATE SET
		listing_id = EXCLUDED.listing_id,
		mls_number = EXCLUDED.mls_number,
		built_year = CASE WHEN EXCLUDED.built_year > 0 THEN EXCLUDED.built_year ELSE properties.built_year END,
		list_price = EXCLUDED.list_price,
		sold_price = EXCLUDED.sold_price,
		list_date = EXCLUDED.list_date,
		sold_date = EXCLUDED.sold_date,
		detail_url = EXCLUDED.detail_url,
		source_shape = EXCLUDED.source_shape,
		fetch_date = EXCLUDED.fetch_date;
`

// PostgresStorageAdapter реализует RecordSinkPort для PostgreSQL.
type PostgresStorageAdapter struct {
	pool *pgxpool.Pool
}

// NewPostgresStorageAdapter создает новый экземпляр адаптера.
func NewPostgresStorageAdapter(pool *pgxpool.Pool) (*PostgresStorageAdapter, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &PostgresStorageAdapter{
		pool: pool,
	}, nil
}

// EnsureSchema создает таблицу листингов, если ее еще нет.
func (a *PostgresStorageAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.pool.Exec(ctx, createPropertiesTableSQL); err != nil {
		return fmt.Errorf("failed to create properties table: %w", err)
	}
	return nil
}

// WriteOutcome сохраняет записи года в рамках одной транзакции.
func (a *PostgresStorageAdapter) WriteOutcome(ctx context.Context, outcome domain.FetchOutcome) error {
	if len(outcome.Records) == 0 {
		return nil
	}

	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "PostgresStorageAdapter",
		"year":      outcome.Year,
	})

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, rec := range outcome.Records {
		objectHash := calculateObjectHash(buildHashPayload(rec))

		_, err := tx.Exec(ctx, upsertPropertySQL,
			objectHash, rec.Year, rec.ListingID, rec.MLSNumber, rec.YearBuilt,
			rec.StreetNumber, rec.StreetName, rec.StreetDir, rec.StreetType,
			rec.City, rec.PostalCode, rec.Subarea,
			rec.Latitude, rec.Longitude, rec.SquareFeet,
			rec.ListPrice, rec.SoldPrice, rec.ListedDate, rec.SoldDate,
			rec.Bedrooms, rec.Bathrooms, rec.AgentName, rec.OfficeName,
			rec.DetailURL, string(rec.SourceShape), rec.FetchDate,
		)
		if err != nil {
			return fmt.Errorf("failed to insert/update listing %s: %w", rec.ListingID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Info("Saved listings to database", port.Fields{"count": len(outcome.Records)})
	return nil
}

// Close освобождает пул. Пул может делиться с другими адаптерами,
// поэтому закрытие здесь - ответственность композиционного корня.
func (a *PostgresStorageAdapter) Close() error {
	return nil
}
