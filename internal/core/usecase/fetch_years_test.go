package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"mlx-scraper-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// scriptedTransport отдает ответы по номеру вызова.
type scriptedTransport struct {
	calls     int
	responses []scriptedResponse
	requests  []domain.FetchRequest
}

type scriptedResponse struct {
	status int
	body   string
	err    error
}

func (t *scriptedTransport) Send(ctx context.Context, req domain.FetchRequest) (*domain.RawResponse, error) {
	t.requests = append(t.requests, req)
	idx := t.calls
	t.calls++
	if idx >= len(t.responses) {
		return nil, fmt.Errorf("unexpected request #%d", idx+1)
	}
	r := t.responses[idx]
	if r.err != nil {
		return nil, r.err
	}
	return &domain.RawResponse{StatusCode: r.status, Body: []byte(r.body)}, nil
}

type countingLimiter struct {
	waits int
}

func (l *countingLimiter) Wait(ctx context.Context) error {
	l.waits++
	return ctx.Err()
}

type capturingRecorder struct {
	recorded int
}

func (r *capturingRecorder) Record(req domain.FetchRequest, resp *domain.RawResponse) {
	r.recorded++
}

type capturingSink struct {
	outcomes []domain.FetchOutcome
	err      error
}

func (s *capturingSink) WriteOutcome(ctx context.Context, outcome domain.FetchOutcome) error {
	s.outcomes = append(s.outcomes, outcome)
	return s.err
}

func (s *capturingSink) Close() error { return nil }

func newTestUseCase(t *testing.T, transport *scriptedTransport, cfg FetchConfig) (*FetchYearsUseCase, *countingLimiter, *capturingSink) {
	t.Helper()
	limiter := &countingLimiter{}
	sink := &capturingSink{}
	uc, err := NewFetchYearsUseCase(transport, limiter, &capturingRecorder{}, sink, cfg)
	require.NoError(t, err)
	return uc, limiter, sink
}

func defaultCfg() FetchConfig {
	return FetchConfig{MaxRetries: 2, RetryBackoffBase: 0, MaxPagesPerYear: 10}
}

const envelopeOK = `{"listings": {"100": {"LIST_ID": "100", "CITY": "Calgary", "MLS_NUM": "A100", "PRICE_RAW": 1}}, "totalFound": 1}`
const emptyOK = `{"totalFound": 0}`

func TestExecuteTwoYearRun(t *testing.T) {
	transport := &scriptedTransport{responses: []scriptedResponse{
		{status: 200, body: envelopeOK}, // 2022: обертка, курсора нет - один запрос
		{status: 200, body: emptyOK},    // 2021: явная пустота
	}}
	uc, limiter, sink := newTestUseCase(t, transport, defaultCfg())

	summary, err := uc.Execute(context.Background(), domain.SearchCriteria{}, []int{2022, 2021}, uuid.New())
	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 2)

	require.True(t, summary.Outcomes[0].Succeeded)
	require.Equal(t, 2022, summary.Outcomes[0].Year)
	require.Len(t, summary.Outcomes[0].Records, 1)

	require.True(t, summary.Outcomes[1].Succeeded)
	require.Empty(t, summary.Outcomes[1].Records)

	require.Equal(t, 1, summary.TotalRecords)
	require.Equal(t, 2, summary.TotalPages)
	require.Equal(t, 2, transport.calls)
	require.Equal(t, 2, limiter.waits) // по одному ожиданию на запрос
	require.Len(t, sink.outcomes, 2)
}

func TestExecuteRetryThenSuccess(t *testing.T) {
	transport := &scriptedTransport{responses: []scriptedResponse{
		{status: 503, body: "busy"},
		{status: 500, body: "oops"},
		{status: 200, body: envelopeOK},
	}}
	uc, limiter, _ := newTestUseCase(t, transport, defaultCfg())

	summary, err := uc.Execute(context.Background(), domain.SearchCriteria{}, []int{2022}, uuid.New())
	require.NoError(t, err)
	require.True(t, summary.Outcomes[0].Succeeded)
	require.Equal(t, 3, transport.calls)
	// Лимитер вызывается перед каждой попыткой, включая ретраи.
	require.Equal(t, 3, limiter.waits)
}

func TestExecuteRetriesExhausted(t *testing.T) {
	transport := &scriptedTransport{responses: []scriptedResponse{
		{status: 503, body: "busy"},
		{status: 503, body: "busy"},
		{status: 503, body: "busy"},
	}}
	uc, _, sink := newTestUseCase(t, transport, defaultCfg())

	summary, err := uc.Execute(context.Background(), domain.SearchCriteria{}, []int{2022}, uuid.New())
	require.NoError(t, err) // провал года не роняет запуск

	outcome := summary.Outcomes[0]
	require.False(t, outcome.Succeeded)

	var transportErr *domain.TransportError
	require.ErrorAs(t, outcome.Err, &transportErr)
	require.Equal(t, 3, transportErr.Attempts) // MaxRetries=2 -> 3 попытки
	require.Equal(t, 503, transportErr.StatusCode)

	// Итог проваленного года все равно уходит получателю.
	require.Len(t, sink.outcomes, 1)
}

func TestExecuteNetworkErrorRetried(t *testing.T) {
	netErr := errors.New("connection reset")
	transport := &scriptedTransport{responses: []scriptedResponse{
		{err: netErr},
		{status: 200, body: envelopeOK},
	}}
	uc, _, _ := newTestUseCase(t, transport, defaultCfg())

	summary, err := uc.Execute(context.Background(), domain.SearchCriteria{}, []int{2022}, uuid.New())
	require.NoError(t, err)
	require.True(t, summary.Outcomes[0].Succeeded)
	require.Equal(t, 2, transport.calls)
}

func TestExecuteUnrecognizedPagesFailYear(t *testing.T) {
	// Все страницы года - дрейф формата: год провален, но транспорт не виноват.
	transport := &scriptedTransport{responses: []scriptedResponse{
		{status: 200, body: `<html>error</html>`},
		{status: 200, body: `<html>error</html>`},
	}}
	cfg := defaultCfg()
	cfg.MaxPagesPerYear = 2
	uc, _, _ := newTestUseCase(t, transport, cfg)

	summary, err := uc.Execute(context.Background(), domain.SearchCriteria{}, []int{2020}, uuid.New())
	require.NoError(t, err)

	outcome := summary.Outcomes[0]
	require.False(t, outcome.Succeeded)
	require.Equal(t, 2, outcome.PagesFetched)
	require.Equal(t, 2, outcome.PagesFailed)

	var normErr *domain.NormalizationError
	require.ErrorAs(t, outcome.Err, &normErr)
}

func TestExecuteBrokenPageSkipped(t *testing.T) {
	// Первая страница битая, вторая пустая: год выживает.
	transport := &scriptedTransport{responses: []scriptedResponse{
		{status: 200, body: `{"tiles": []}`},
		{status: 200, body: emptyOK},
	}}
	uc, _, _ := newTestUseCase(t, transport, defaultCfg())

	summary, err := uc.Execute(context.Background(), domain.SearchCriteria{}, []int{2020}, uuid.New())
	require.NoError(t, err)

	outcome := summary.Outcomes[0]
	require.True(t, outcome.Succeeded)
	require.Equal(t, 2, outcome.PagesFetched)
	require.Equal(t, 1, outcome.PagesFailed)
}

func TestExecutePaginationFollowsCursor(t *testing.T) {
	transport := &scriptedTransport{responses: []scriptedResponse{
		{status: 200, body: `{"results": [{"LIST_ID": "1", "CITY": "Calgary"}], "nextToken": "t2"}`},
		{status: 200, body: `{"results": [{"LIST_ID": "2", "CITY": "Calgary"}]}`},
	}}
	uc, _, _ := newTestUseCase(t, transport, defaultCfg())

	summary, err := uc.Execute(context.Background(), domain.SearchCriteria{}, []int{2022}, uuid.New())
	require.NoError(t, err)
	require.Len(t, summary.Outcomes[0].Records, 2)
	require.Equal(t, 2, transport.calls)

	// Курсор прошлой страницы попадает в параметры следующей.
	require.NotContains(t, transport.requests[0].Params, "nextToken")
	require.Equal(t, "t2", transport.requests[1].Params["nextToken"])
}

func TestExecuteDuplicatesWithinYearDropped(t *testing.T) {
	transport := &scriptedTransport{responses: []scriptedResponse{
		{status: 200, body: `{"results": [{"LIST_ID": "1", "CITY": "Calgary"}, {"LIST_ID": "1", "CITY": "Calgary"}], "nextToken": "t2"}`},
		{status: 200, body: `{"results": [{"LIST_ID": "1", "CITY": "Calgary"}]}`},
	}}
	uc, _, _ := newTestUseCase(t, transport, defaultCfg())

	summary, err := uc.Execute(context.Background(), domain.SearchCriteria{}, []int{2022}, uuid.New())
	require.NoError(t, err)
	require.Len(t, summary.Outcomes[0].Records, 1)
}

func TestExecutePageCap(t *testing.T) {
	// Провайдер бесконечно отдает курсор: обход останавливает потолок страниц.
	responses := make([]scriptedResponse, 0, 3)
	for i := 0; i < 3; i++ {
		responses = append(responses, scriptedResponse{
			status: 200,
			body:   fmt.Sprintf(`{"results": [{"LIST_ID": "%d", "CITY": "Calgary"}], "nextToken": "more"}`, i),
		})
	}
	transport := &scriptedTransport{responses: responses}
	cfg := defaultCfg()
	cfg.MaxPagesPerYear = 3
	uc, _, _ := newTestUseCase(t, transport, cfg)

	summary, err := uc.Execute(context.Background(), domain.SearchCriteria{}, []int{2022}, uuid.New())
	require.NoError(t, err)
	require.Equal(t, 3, transport.calls)
	require.True(t, summary.Outcomes[0].Succeeded)
}

func TestExecuteConfigurationErrors(t *testing.T) {
	tests := []struct {
		name     string
		criteria domain.SearchCriteria
		years    []int
		cfg      FetchConfig
	}{
		{name: "no years", criteria: domain.SearchCriteria{}, years: nil, cfg: defaultCfg()},
		{name: "negative price", criteria: domain.SearchCriteria{PriceFrom: -1}, years: []int{2022}, cfg: defaultCfg()},
		{name: "inverted price range", criteria: domain.SearchCriteria{PriceFrom: 500, PriceTo: 100}, years: []int{2022}, cfg: defaultCfg()},
		{name: "negative retries", criteria: domain.SearchCriteria{}, years: []int{2022}, cfg: FetchConfig{MaxRetries: -1, MaxPagesPerYear: 10}},
		{name: "zero page cap", criteria: domain.SearchCriteria{}, years: []int{2022}, cfg: FetchConfig{MaxPagesPerYear: 0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			transport := &scriptedTransport{}
			uc, limiter, _ := newTestUseCase(t, transport, tc.cfg)

			summary, err := uc.Execute(context.Background(), tc.criteria, tc.years, uuid.New())
			require.Nil(t, summary)

			var cfgErr *domain.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)

			// Ни одного запроса и ни одного ожидания до валидации.
			require.Zero(t, transport.calls)
			require.Zero(t, limiter.waits)
		})
	}
}

func TestExecuteCancellationReturnsPartialSummary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	transport := &scriptedTransport{responses: []scriptedResponse{
		{status: 200, body: envelopeOK},
	}}
	sink := &cancellingSink{cancel: cancel}
	limiter := &countingLimiter{}
	uc, err := NewFetchYearsUseCase(transport, limiter, &capturingRecorder{}, sink, defaultCfg())
	require.NoError(t, err)

	summary, err := uc.Execute(ctx, domain.SearchCriteria{}, []int{2022, 2021, 2020}, uuid.New())
	require.ErrorIs(t, err, context.Canceled)

	// Завершенный год остается в частичном итоге.
	require.NotNil(t, summary)
	require.Len(t, summary.Outcomes, 1)
	require.True(t, summary.Outcomes[0].Succeeded)
}

// cancellingSink отменяет запуск после первого же года.
type cancellingSink struct {
	cancel context.CancelFunc
}

func (s *cancellingSink) WriteOutcome(ctx context.Context, outcome domain.FetchOutcome) error {
	s.cancel()
	return nil
}

func (s *cancellingSink) Close() error { return nil }

func TestExecuteSinkErrorDoesNotFailRun(t *testing.T) {
	transport := &scriptedTransport{responses: []scriptedResponse{
		{status: 200, body: envelopeOK},
	}}
	limiter := &countingLimiter{}
	sink := &capturingSink{err: errors.New("disk full")}
	uc, err := NewFetchYearsUseCase(transport, limiter, &capturingRecorder{}, sink, defaultCfg())
	require.NoError(t, err)

	summary, err := uc.Execute(context.Background(), domain.SearchCriteria{}, []int{2022}, uuid.New())
	require.NoError(t, err)
	require.True(t, summary.Outcomes[0].Succeeded)
}

func TestBuildRequestParams(t *testing.T) {
	transport := &scriptedTransport{responses: []scriptedResponse{
		{status: 200, body: emptyOK},
	}}
	uc, _, _ := newTestUseCase(t, transport, defaultCfg())

	criteria := domain.SearchCriteria{
		PriceFrom:    200000,
		PriceTo:      700000,
		DwellingType: "DET",
		Omni:         `list_subarea:C-443[Maple Ridge]`,
		ListingType:  "AUTO_SOLD",
	}
	_, err := uc.Execute(context.Background(), criteria, []int{1985}, uuid.New())
	require.NoError(t, err)

	params := transport.requests[0].Params
	require.Equal(t, "1985-1985", params["YEAR_BUILT"])
	require.Equal(t, "1", params["page"])
	require.Equal(t, "200000", params["price-from"])
	require.Equal(t, "700000", params["price-to"])
	require.Equal(t, "DET", params["DWELLING_TYPE"])
	require.Equal(t, "RESI|DWELLING_TYPE@DET", params["PROPERTY_TYPE"])
	require.Equal(t, `list_subarea:C-443[Maple Ridge]`, params["omni"])
	require.Equal(t, "AUTO_SOLD", params["listingType"])
}
