package mlxhttp

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"time"

	"mlx-scraper-service/internal/constants"
	"mlx-scraper-service/internal/core/domain"

	"github.com/go-resty/resty/v2"
)

// Config транспортного адаптера.
type Config struct {
	SearchURL  string
	HomeURL    string
	CookieFile string
	Timeout    time.Duration
}

// MLXTransportAdapter отвечает за доставку поисковых запросов провайдеру.
// Владеет HTTP-клиентом, cookie jar и сессией; для ядра это непрозрачная
// функция Send.
type MLXTransportAdapter struct {
	client    *resty.Client
	searchURL string
	homeURL   string
	session   *sessionStore
}

func NewMLXTransportAdapter(cfg Config) (*MLXTransportAdapter, error) {
	if cfg.SearchURL == "" {
		return nil, fmt.Errorf("search URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	client.SetCookieJar(jar)
	client.SetTimeout(cfg.Timeout)
	client.SetHeaders(constants.DefaultHeaders())

	return &MLXTransportAdapter{
		client:    client,
		searchURL: cfg.SearchURL,
		homeURL:   cfg.HomeURL,
		session:   newSessionStore(cfg.CookieFile),
	}, nil
}

// Send выполняет один POST поискового запроса. Не-2xx статус ошибкой не
// считается: ретраи и классификация статусов - политика оркестратора.
func (a *MLXTransportAdapter) Send(ctx context.Context, req domain.FetchRequest) (*domain.RawResponse, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetFormData(req.Params).
		Post(a.searchURL)
	if err != nil {
		return nil, fmt.Errorf("search request for year %d page %d failed: %w", req.Year, req.Page, err)
	}

	// Провайдер иногда обновляет сессионные куки прямо в ответе поиска.
	if cookies := resp.Cookies(); len(cookies) > 0 {
		a.session.save(cookies)
	}

	return &domain.RawResponse{
		StatusCode: resp.StatusCode(),
		Headers:    resp.Header(),
		Body:       resp.Body(),
		Elapsed:    resp.Time(),
	}, nil
}
