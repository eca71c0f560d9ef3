package detailfetcher

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mlx-scraper-service/internal/contextkeys"
	"mlx-scraper-service/internal/core/port"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
)

// CollyDetailFetcherAdapter достает год постройки со страницы листинга.
// Страницы деталей ходят через отдельный коллектор со своими лимитами,
// чтобы не делить квоту с поисковым API.
type CollyDetailFetcherAdapter struct {
	// родительский коллектор, который разделяет лимиты
	collector  *colly.Collector
	maxRetries int
	retryDelay time.Duration
}

func NewCollyDetailFetcherAdapter(allowedDomain string) (*CollyDetailFetcherAdapter, error) {
	c := colly.NewCollector(colly.AllowedDomains(allowedDomain), colly.AllowURLRevisit())

	// Эти правила будут наследоваться всеми клонами коллектора
	err := c.Limit(&colly.LimitRule{
		DomainGlob: allowedDomain,

		Parallelism: 1,

		// задержка от 0 до 2 секунд после завершения предыдущего запроса
		RandomDelay: 2 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("CollyDetailFetcherAdapter: failed to set limit rule: %w", err)
	}

	extensions.RandomUserAgent(c) // На каждый запрос будет подставлен User-Agent реального браузера
	extensions.Referer(c)

	return &CollyDetailFetcherAdapter{
		collector:  c,
		maxRetries: 3,
		retryDelay: 2 * time.Second,
	}, nil
}

// FetchBuiltYear загружает страницу листинга и парсит год постройки из
// span.year > span.highlight. Повторяет до maxRetries раз с фиксированной паузой.
func (a *CollyDetailFetcherAdapter) FetchBuiltYear(ctx context.Context, detailURL string) (int, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "CollyDetailFetcherAdapter"})

	var lastErr error
	for attempt := 1; attempt <= a.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}

		year, err := a.fetchOnce(detailURL)
		if err == nil {
			return year, nil
		}
		lastErr = err

		if attempt < a.maxRetries {
			logger.Warn("Built year fetch attempt failed, retrying", port.Fields{
				"url":     detailURL,
				"attempt": attempt,
				"error":   err.Error(),
			})
			timer := time.NewTimer(a.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return 0, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return 0, fmt.Errorf("no built year found at %s after %d attempts: %w", detailURL, a.maxRetries, lastErr)
}

func (a *CollyDetailFetcherAdapter) fetchOnce(detailURL string) (int, error) {
	// Одноразовый клон: наследует лимиты, но имеет свои обработчики.
	collector := a.collector.Clone()

	year := 0
	var parseErr error

	collector.OnResponse(func(r *colly.Response) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			parseErr = fmt.Errorf("failed to parse listing page HTML: %w", err)
			return
		}

		text := strings.TrimSpace(doc.Find("span.year span.highlight").First().Text())
		if text == "" {
			parseErr = fmt.Errorf("year highlight span not found")
			return
		}

		parsed, err := strconv.Atoi(text)
		if err != nil {
			parseErr = fmt.Errorf("year text %q is not a number: %w", text, err)
			return
		}
		year = parsed
	})

	collector.OnError(func(r *colly.Response, err error) {
		parseErr = fmt.Errorf("request to %s failed with status %d: %w", r.Request.URL, r.StatusCode, err)
	})

	if err := collector.Visit(detailURL); err != nil {
		return 0, fmt.Errorf("failed to visit %s: %w", detailURL, err)
	}
	collector.Wait()

	if parseErr != nil {
		return 0, parseErr
	}
	return year, nil
}
