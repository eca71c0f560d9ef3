package usecases_port

import (
	"context"

	"mlx-scraper-service/internal/core/domain"
)

// SearchLocationsPort - поиск локаций для построения omni-фильтра.
type SearchLocationsPort interface {
	Execute(ctx context.Context, query string) (subareas []domain.Location, communities []domain.Location, err error)
}
