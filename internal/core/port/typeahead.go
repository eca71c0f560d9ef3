package port

import (
	"context"

	"mlx-scraper-service/internal/core/domain"
)

// TypeaheadPort - подсказка локаций провайдера.
type TypeaheadPort interface {
	Search(ctx context.Context, query string, listingType string) ([]domain.LocationItem, error)
}
