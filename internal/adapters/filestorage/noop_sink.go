package filestorage

import (
	"context"

	"mlx-scraper-service/internal/core/domain"
)

// NoopSinkAdapter - получатель-заглушка, когда вывод не настроен.
type NoopSinkAdapter struct{}

func NewNoopSinkAdapter() *NoopSinkAdapter { return &NoopSinkAdapter{} }

func (a *NoopSinkAdapter) WriteOutcome(ctx context.Context, outcome domain.FetchOutcome) error {
	return nil
}

func (a *NoopSinkAdapter) Close() error { return nil }
