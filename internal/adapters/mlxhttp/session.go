package mlxhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"mlx-scraper-service/internal/contextkeys"
	"mlx-scraper-service/internal/core/port"
)

// Сессионные куки живут сутки, дальше провайдер все равно их сбрасывает.
const cookieTTL = 24 * time.Hour

// sessionStore хранит сессионные куки на диске между запусками.
type sessionStore struct {
	path string
}

type storedCookies struct {
	Timestamp time.Time         `json:"timestamp"`
	Cookies   map[string]string `json:"cookies"`
}

func newSessionStore(path string) *sessionStore {
	return &sessionStore{path: path}
}

// load возвращает сохраненные куки, если файл есть и не протух.
func (s *sessionStore) load() map[string]string {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var stored storedCookies
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil
	}
	if time.Since(stored.Timestamp) > cookieTTL {
		return nil
	}
	return stored.Cookies
}

func (s *sessionStore) save(cookies []*http.Cookie) {
	if s.path == "" || len(cookies) == 0 {
		return
	}
	merged := s.load()
	if merged == nil {
		merged = make(map[string]string)
	}
	for _, c := range cookies {
		merged[c.Name] = c.Value
	}
	stored := storedCookies{Timestamp: time.Now(), Cookies: merged}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return
	}
	if dir := filepath.Dir(s.path); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	_ = os.WriteFile(s.path, data, 0o644)
}

// Bootstrap инициализирует сессию: берет свежие куки из файла, а при их
// отсутствии ходит на главную страницу провайдера и собирает новые.
func (a *MLXTransportAdapter) Bootstrap(ctx context.Context) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "MLXTransportAdapter(Bootstrap)"})

	if stored := a.session.load(); len(stored) > 0 {
		logger.Info("Using stored session cookies", port.Fields{"count": len(stored)})
		a.applyCookies(stored)
		return nil
	}

	if a.homeURL == "" {
		logger.Warn("No home URL configured, starting without session cookies", nil)
		return nil
	}

	resp, err := a.client.R().SetContext(ctx).Get(a.homeURL)
	if err != nil {
		return fmt.Errorf("session bootstrap request failed: %w", err)
	}

	cookies := resp.Cookies()
	logger.Info("Session bootstrapped from home page", port.Fields{
		"status":  resp.StatusCode(),
		"cookies": len(cookies),
	})
	a.session.save(cookies)
	return nil
}

func (a *MLXTransportAdapter) applyCookies(values map[string]string) {
	target, err := url.Parse(a.searchURL)
	if err != nil {
		return
	}
	cookies := make([]*http.Cookie, 0, len(values))
	for name, value := range values {
		cookies = append(cookies, &http.Cookie{Name: name, Value: value, Path: "/", Domain: target.Hostname()})
	}
	a.client.GetClient().Jar.SetCookies(&url.URL{Scheme: target.Scheme, Host: target.Host}, cookies)
}
