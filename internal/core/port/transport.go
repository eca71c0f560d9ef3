package port

import (
	"context"

	"mlx-scraper-service/internal/core/domain"
)

// TransportPort - непрозрачная функция доставки запроса провайдеру.
// Аутентификация, куки и жизненный цикл соединений - целиком забота адаптера.
type TransportPort interface {
	Send(ctx context.Context, req domain.FetchRequest) (*domain.RawResponse, error)
}
