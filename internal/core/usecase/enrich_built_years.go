package usecase

import (
	"context"
	"fmt"

	"mlx-scraper-service/internal/contextkeys"
	"mlx-scraper-service/internal/core/domain"
	"mlx-scraper-service/internal/core/port"
)

// EnrichBuiltYearsUseCase - второй шаг обхода: у записей без года постройки
// достает его со страницы листинга. Ошибки отдельных страниц не прерывают
// обогащение - запись просто остается с неизвестным годом.
type EnrichBuiltYearsUseCase struct {
	detailFetcher port.DetailFetcherPort
}

func NewEnrichBuiltYearsUseCase(fetcher port.DetailFetcherPort) (*EnrichBuiltYearsUseCase, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("detail fetcher cannot be nil")
	}
	return &EnrichBuiltYearsUseCase{detailFetcher: fetcher}, nil
}

// Execute мутирует переданный срез на месте и возвращает число обогащенных записей.
func (uc *EnrichBuiltYearsUseCase) Execute(ctx context.Context, records []domain.PropertyRecord) (int, error) {
	baseLogger := contextkeys.LoggerFromContext(ctx)
	ucLogger := baseLogger.WithFields(port.Fields{"use_case": "EnrichBuiltYears"})

	enriched := 0
	skipped := 0

	for i := range records {
		if ctx.Err() != nil {
			ucLogger.Warn("Enrichment cancelled", port.Fields{"enriched": enriched})
			return enriched, ctx.Err()
		}

		record := &records[i]
		if record.YearBuilt != 0 {
			continue
		}
		if record.DetailURL == "" || record.DetailURL == domain.ValueUnknown {
			skipped++
			continue
		}

		year, err := uc.detailFetcher.FetchBuiltYear(ctx, record.DetailURL)
		if err != nil {
			ucLogger.Warn("Failed to fetch built year, leaving unknown", port.Fields{
				"listing_id": record.ListingID,
				"url":        record.DetailURL,
				"error":      err.Error(),
			})
			continue
		}
		record.YearBuilt = year
		enriched++
	}

	ucLogger.Info("Built year enrichment finished", port.Fields{
		"enriched": enriched,
		"skipped":  skipped,
		"total":    len(records),
	})
	return enriched, nil
}
