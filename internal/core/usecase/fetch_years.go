package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"mlx-scraper-service/internal/constants"
	"mlx-scraper-service/internal/contextkeys"
	"mlx-scraper-service/internal/core/domain"
	"mlx-scraper-service/internal/core/normalize"
	"mlx-scraper-service/internal/core/port"

	"github.com/google/uuid"
)

// FetchConfig - настройки цикла запросов. Читаются, никогда не мутируются.
type FetchConfig struct {
	// MaxRetries - дополнительные попытки сверх первой.
	MaxRetries int
	// RetryBackoffBase - база экспоненциального отступа между попытками.
	RetryBackoffBase time.Duration
	// MaxPagesPerYear - защитный потолок страниц на год,
	// чтобы сбоящий провайдер не зациклил обход.
	MaxPagesPerYear int
}

// FetchYearsUseCase - оркестратор: единственный владелец цикла год -> страница ->
// запрос -> классификация -> нормализация. Все побочные эффекты идут через порты.
type FetchYearsUseCase struct {
	transport port.TransportPort
	limiter   port.RateLimiterPort
	recorder  port.DebugRecorderPort
	sink      port.RecordSinkPort
	cfg       FetchConfig
}

// NewFetchYearsUseCase создает оркестратор. Все порты обязательны:
// для выключенной отладки и отсутствующего вывода есть noop-реализации.
func NewFetchYearsUseCase(
	transport port.TransportPort,
	limiter port.RateLimiterPort,
	recorder port.DebugRecorderPort,
	sink port.RecordSinkPort,
	cfg FetchConfig,
) (*FetchYearsUseCase, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport cannot be nil")
	}
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter cannot be nil")
	}
	if recorder == nil {
		return nil, fmt.Errorf("debug recorder cannot be nil")
	}
	if sink == nil {
		return nil, fmt.Errorf("record sink cannot be nil")
	}
	return &FetchYearsUseCase{
		transport: transport,
		limiter:   limiter,
		recorder:  recorder,
		sink:      sink,
		cfg:       cfg,
	}, nil
}

// Execute обходит годы строго в переданном порядке. Провал одного года никогда
// не прерывает запуск: ожидаемые сбои (троттлинг, битая страница) оседают в
// RunSummary, наружу выходит только ConfigurationError до первого запроса и
// ошибка отмены вместе с частичным итогом.
func (uc *FetchYearsUseCase) Execute(ctx context.Context, criteria domain.SearchCriteria, years []int, runID uuid.UUID) (*domain.RunSummary, error) {
	baseLogger := contextkeys.LoggerFromContext(ctx)
	ucLogger := baseLogger.WithFields(port.Fields{
		"use_case": "FetchYears",
		"run_id":   runID.String(),
	})

	if err := uc.validate(criteria, years); err != nil {
		ucLogger.Error("Configuration rejected before any request", err, nil)
		return nil, err
	}

	summary := &domain.RunSummary{
		RunID:     runID.String(),
		StartedAt: time.Now().UTC(),
	}

	ucLogger.Info("Starting fetch run", port.Fields{
		"years":    years,
		"criteria": criteria.Name,
	})

	for _, year := range years {
		// Отмена проверяется только между итерациями: в полете бросается
		// максимум один запрос, а частичный итог все равно возвращается.
		if ctx.Err() != nil {
			ucLogger.Warn("Run cancelled, returning partial summary", port.Fields{"next_year": year})
			summary.FinishedAt = time.Now().UTC()
			return summary, ctx.Err()
		}

		yearLogger := ucLogger.WithFields(port.Fields{"year": year})
		yearCtx := contextkeys.ContextWithLogger(ctx, yearLogger)

		outcome := uc.fetchYear(yearCtx, criteria, year)

		summary.Outcomes = append(summary.Outcomes, outcome)
		summary.TotalRecords += len(outcome.Records)
		summary.TotalPages += outcome.PagesFetched

		if outcome.Succeeded {
			yearLogger.Info("Year finished", port.Fields{
				"records":      len(outcome.Records),
				"pages":        outcome.PagesFetched,
				"failed_pages": outcome.PagesFailed,
			})
		} else {
			yearLogger.Error("Year failed", outcome.Err, port.Fields{
				"pages":        outcome.PagesFetched,
				"failed_pages": outcome.PagesFailed,
			})
		}

		// Записи переданы получателю; оркестратор ссылок на них не держит.
		if err := uc.sink.WriteOutcome(yearCtx, outcome); err != nil {
			yearLogger.Error("Failed to write year outcome to sink", err, nil)
		}

		if outcome.Err != nil && ctx.Err() != nil {
			summary.FinishedAt = time.Now().UTC()
			return summary, ctx.Err()
		}
	}

	summary.FinishedAt = time.Now().UTC()
	ucLogger.Info("Fetch run finished", port.Fields{
		"years_succeeded": summary.YearsSucceeded(),
		"years_failed":    summary.YearsFailed(),
		"total_records":   summary.TotalRecords,
		"wall_time":       summary.WallTime().String(),
	})
	return summary, nil
}

// fetchYear крутит страницы одного года до маркера пустоты, конца пагинации
// или потолка страниц. Битая страница пропускается; год проваливается, только
// если исчерпан транспорт или не уцелело ни одной страницы.
func (uc *FetchYearsUseCase) fetchYear(ctx context.Context, criteria domain.SearchCriteria, year int) domain.FetchOutcome {
	logger := contextkeys.LoggerFromContext(ctx)

	outcome := domain.FetchOutcome{Year: year}
	seen := make(map[string]bool)
	cursor := ""
	successfulPages := 0
	var lastPageErr error

	for page := 1; page <= uc.cfg.MaxPagesPerYear; page++ {
		if ctx.Err() != nil {
			outcome.Err = ctx.Err()
			return outcome
		}

		pageLogger := logger.WithFields(port.Fields{"page": page, "cursor": cursor})
		req := uc.buildRequest(criteria, year, page, cursor)

		resp, err := uc.sendWithRetry(ctx, req, pageLogger)
		if err != nil {
			if ctx.Err() != nil {
				outcome.Err = ctx.Err()
				return outcome
			}
			// Ретраи исчерпаны - год провален, запуск продолжается.
			outcome.Err = err
			return outcome
		}
		outcome.PagesFetched++

		shape := normalize.Classify(resp.Body)
		pageLogger.Debug("Page classified", port.Fields{"shape": string(shape), "status": resp.StatusCode})

		if shape == domain.ShapeEmpty {
			successfulPages++
			break
		}

		records, nextCursor, normErr := normalize.Normalize(resp.Body, year, shape)
		if normErr != nil {
			// Дрейф формата - ожидаемый исход. Страница пропускается,
			// обход идет дальше по номеру страницы.
			outcome.PagesFailed++
			lastPageErr = normErr
			pageLogger.Warn("Page normalization failed, skipping page", port.Fields{"error": normErr.Error()})
			cursor = ""
			continue
		}
		successfulPages++

		duplicates := 0
		for _, record := range records {
			if seen[record.ListingID] {
				duplicates++
				continue
			}
			seen[record.ListingID] = true
			outcome.Records = append(outcome.Records, record)
		}
		if duplicates > 0 {
			// Тайлы карты перекрываются, дубли в пределах года - норма провайдера.
			pageLogger.Debug("Dropped duplicate listings within year", port.Fields{"count": duplicates})
		}

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	if outcome.Err == nil {
		if outcome.PagesFetched > 0 && successfulPages == 0 {
			outcome.Err = lastPageErr
		} else {
			outcome.Succeeded = true
		}
	}
	return outcome
}

// sendWithRetry выполняет один запрос с ограниченным числом повторов.
// Лимитер вызывается перед каждой попыткой, включая самую первую.
// Таймаут транспорта неотличим от сетевой ошибки - политика повторов общая.
func (uc *FetchYearsUseCase) sendWithRetry(ctx context.Context, req domain.FetchRequest, logger port.LoggerPort) (*domain.RawResponse, error) {
	attempts := uc.cfg.MaxRetries + 1
	var lastErr error
	lastStatus := 0

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := uc.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := uc.transport.Send(ctx, req)
		if resp != nil {
			uc.recorder.Record(req, resp)
		}

		switch {
		case err != nil:
			lastErr = err
			lastStatus = 0
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			lastStatus = resp.StatusCode
		default:
			return resp, nil
		}

		if attempt < attempts {
			delay := uc.backoffDelay(attempt)
			logger.Warn("Request attempt failed, backing off", port.Fields{
				"attempt": attempt,
				"delay":   delay.String(),
				"error":   lastErr.Error(),
			})
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}
		}
	}

	return nil, &domain.TransportError{
		StatusCode: lastStatus,
		Attempts:   attempts,
		Err:        lastErr,
	}
}

// backoffDelay - экспонента от базы плюс джиттер до половины базы.
func (uc *FetchYearsUseCase) backoffDelay(attempt int) time.Duration {
	base := uc.cfg.RetryBackoffBase
	if base <= 0 {
		return 0
	}
	delay := base * time.Duration(1<<(attempt-1))
	jitter := time.Duration(rand.Int63n(int64(base)/2 + 1))
	return delay + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// buildRequest собирает иммутабельный запрос для одной итерации.
func (uc *FetchYearsUseCase) buildRequest(criteria domain.SearchCriteria, year int, page int, cursor string) domain.FetchRequest {
	params := constants.DefaultSearchParams()
	params["YEAR_BUILT"] = constants.YearBuiltRange(year)
	params["page"] = strconv.Itoa(page)

	if criteria.DwellingType != "" {
		params["PROPERTY_TYPE"] = "RESI|DWELLING_TYPE@" + criteria.DwellingType
		params["DWELLING_TYPE"] = criteria.DwellingType
	}
	if criteria.PriceFrom > 0 && criteria.PriceTo > 0 {
		params["price-from"] = strconv.Itoa(criteria.PriceFrom)
		params["price-to"] = strconv.Itoa(criteria.PriceTo)
	}
	if criteria.Omni != "" {
		params["omni"] = criteria.Omni
	}
	if criteria.ListingType != "" {
		params["listingType"] = criteria.ListingType
	}
	if cursor != "" {
		params["nextToken"] = cursor
	}

	return domain.FetchRequest{
		Year:   year,
		Page:   page,
		Cursor: cursor,
		Params: params,
	}
}

func (uc *FetchYearsUseCase) validate(criteria domain.SearchCriteria, years []int) error {
	if len(years) == 0 {
		return &domain.ConfigurationError{Field: "years", Reason: "at least one year is required"}
	}
	if criteria.PriceFrom < 0 || criteria.PriceTo < 0 {
		return &domain.ConfigurationError{Field: "price", Reason: "price values cannot be negative"}
	}
	if criteria.PriceFrom > criteria.PriceTo {
		return &domain.ConfigurationError{Field: "price", Reason: "price-from cannot be greater than price-to"}
	}
	if uc.cfg.MaxRetries < 0 {
		return &domain.ConfigurationError{Field: "max_retries", Reason: "cannot be negative"}
	}
	if uc.cfg.RetryBackoffBase < 0 {
		return &domain.ConfigurationError{Field: "retry_backoff_base", Reason: "cannot be negative"}
	}
	if uc.cfg.MaxPagesPerYear < 1 {
		return &domain.ConfigurationError{Field: "max_pages_per_year", Reason: "must be at least 1"}
	}
	return nil
}
