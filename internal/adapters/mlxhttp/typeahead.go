package mlxhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mlx-scraper-service/internal/constants"
	"mlx-scraper-service/internal/contextkeys"
	"mlx-scraper-service/internal/core/domain"
	"mlx-scraper-service/internal/core/port"

	"github.com/go-resty/resty/v2"
)

// TypeaheadClientAdapter опрашивает подсказку локаций провайдера.
// Ответ - массив позиционных массивов: [type_code, name, confidence, polygon].
type TypeaheadClientAdapter struct {
	client *resty.Client
	url    string
}

func NewTypeaheadClientAdapter(url string, timeout time.Duration) (*TypeaheadClientAdapter, error) {
	if url == "" {
		return nil, fmt.Errorf("typeahead URL is required")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", constants.UserAgent)

	return &TypeaheadClientAdapter{client: client, url: url}, nil
}

func (a *TypeaheadClientAdapter) Search(ctx context.Context, query string, listingType string) ([]domain.LocationItem, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "TypeaheadClientAdapter"})

	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"listingType": listingType,
			"q":           query,
		}).
		Get(a.url)
	if err != nil {
		return nil, fmt.Errorf("typeahead request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("typeahead request returned status %d", resp.StatusCode())
	}

	var rawItems []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &rawItems); err != nil {
		return nil, fmt.Errorf("typeahead payload is not an array: %w", err)
	}

	items := make([]domain.LocationItem, 0, len(rawItems))
	for i, raw := range rawItems {
		var fields []interface{}
		if err := json.Unmarshal(raw, &fields); err != nil || len(fields) < 3 {
			// Элементы с неожиданной арностью пропускаем молча - провайдер
			// подмешивает в подсказку и другие типы данных.
			logger.Debug("Skipping malformed typeahead item", port.Fields{"index": i})
			continue
		}

		typeCode, okCode := fields[0].(string)
		name, okName := fields[1].(string)
		confidence, _ := fields[2].(float64)
		if !okCode || !okName {
			continue
		}

		item := domain.LocationItem{
			TypeCode:   typeCode,
			Name:       name,
			Confidence: confidence,
		}
		if len(fields) > 3 {
			item.Polygon = fields[3]
		}
		items = append(items, item)
	}

	return items, nil
}
