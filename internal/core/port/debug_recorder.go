package port

import "mlx-scraper-service/internal/core/domain"

// DebugRecorderPort сохраняет пары запрос/ответ для офлайн-инспекции.
// Чисто наблюдательный: не влияет ни на один результат и не возвращает ошибок.
type DebugRecorderPort interface {
	Record(req domain.FetchRequest, resp *domain.RawResponse)
}
