package port

import (
	"context"

	"mlx-scraper-service/internal/core/domain"
)

// RecordSinkPort потребляет итог каждого года. Формат на диске/в брокере -
// забота адаптера, ядру он безразличен.
type RecordSinkPort interface {
	WriteOutcome(ctx context.Context, outcome domain.FetchOutcome) error
	Close() error
}
