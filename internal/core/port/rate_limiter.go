package port

import "context"

// RateLimiterPort - инжектируемая политика троттлинга.
// Wait блокирует вызывающего перед каждым запросом; нулевая задержка легальна,
// чем и пользуются тесты.
type RateLimiterPort interface {
	Wait(ctx context.Context) error
}
