package usecases_port

import (
	"context"

	"mlx-scraper-service/internal/core/domain"
)

// EnrichBuiltYearsPort дозаполняет год постройки у записей, где он неизвестен.
type EnrichBuiltYearsPort interface {
	Execute(ctx context.Context, records []domain.PropertyRecord) (enriched int, err error)
}
