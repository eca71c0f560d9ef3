package usecases_port

import (
	"context"

	"mlx-scraper-service/internal/core/domain"

	"github.com/google/uuid"
)

// FetchYearsPort - входной порт оркестратора: обойти годы в заданном порядке
// и вернуть агрегированный итог.
type FetchYearsPort interface {
	Execute(ctx context.Context, criteria domain.SearchCriteria, years []int, runID uuid.UUID) (*domain.RunSummary, error)
}
