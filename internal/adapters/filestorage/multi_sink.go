package filestorage

import (
	"context"
	"errors"
	"fmt"

	"mlx-scraper-service/internal/core/domain"
	"mlx-scraper-service/internal/core/port"
)

// MultiSinkAdapter раздает итог года всем получателям.
// Ошибка одного получателя не мешает остальным; наружу уходит объединение.
type MultiSinkAdapter struct {
	sinks []port.RecordSinkPort
}

func NewMultiSinkAdapter(sinks ...port.RecordSinkPort) (*MultiSinkAdapter, error) {
	if len(sinks) == 0 {
		return nil, fmt.Errorf("multi sink: at least one sink is required")
	}
	return &MultiSinkAdapter{sinks: sinks}, nil
}

func (a *MultiSinkAdapter) WriteOutcome(ctx context.Context, outcome domain.FetchOutcome) error {
	var errs []error
	for _, sink := range a.sinks {
		if err := sink.WriteOutcome(ctx, outcome); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *MultiSinkAdapter) Close() error {
	var errs []error
	for _, sink := range a.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
