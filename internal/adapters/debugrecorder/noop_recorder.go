package debugrecorder

import "mlx-scraper-service/internal/core/domain"

// NoopRecorderAdapter - заглушка для выключенного режима отладки.
type NoopRecorderAdapter struct{}

func NewNoopRecorderAdapter() *NoopRecorderAdapter { return &NoopRecorderAdapter{} }

func (a *NoopRecorderAdapter) Record(req domain.FetchRequest, resp *domain.RawResponse) {}
