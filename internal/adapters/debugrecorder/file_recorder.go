package debugrecorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"mlx-scraper-service/internal/core/domain"
	"mlx-scraper-service/internal/core/port"
)

// FileRecorderAdapter сохраняет пары запрос/ответ на диск для офлайн-разбора,
// по файлу-паре на страницу, с ключом год/страница. Любая ошибка записи только
// логируется: отладка не имеет права влиять на поток управления.
type FileRecorderAdapter struct {
	dir    string
	logger port.LoggerPort
}

func NewFileRecorderAdapter(dir string, logger port.LoggerPort) (*FileRecorderAdapter, error) {
	if dir == "" {
		return nil, fmt.Errorf("debug recorder directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create debug directory %s: %w", dir, err)
	}
	return &FileRecorderAdapter{dir: dir, logger: logger}, nil
}

type recordedRequest struct {
	Year   int               `json:"year"`
	Page   int               `json:"page"`
	Cursor string            `json:"cursor,omitempty"`
	Params map[string]string `json:"params"`
}

type recordedResponse struct {
	StatusCode int                 `json:"status_code"`
	ElapsedMS  int64               `json:"elapsed_ms"`
	Headers    map[string][]string `json:"headers"`
	Body       json.RawMessage     `json:"body,omitempty"`
	RawBody    string              `json:"raw_body,omitempty"`
}

func (a *FileRecorderAdapter) Record(req domain.FetchRequest, resp *domain.RawResponse) {
	key := fmt.Sprintf("year_%d_page_%03d", req.Year, req.Page)

	a.write(key+".request.json", recordedRequest{
		Year:   req.Year,
		Page:   req.Page,
		Cursor: req.Cursor,
		Params: req.Params,
	})

	recorded := recordedResponse{
		StatusCode: resp.StatusCode,
		ElapsedMS:  resp.Elapsed.Milliseconds(),
		Headers:    resp.Headers,
	}
	// Тело пишем как JSON, если оно им является, иначе как сырую строку.
	if json.Valid(resp.Body) {
		recorded.Body = json.RawMessage(resp.Body)
	} else {
		recorded.RawBody = string(resp.Body)
	}
	a.write(key+".response.json", recorded)
}

func (a *FileRecorderAdapter) write(name string, payload interface{}) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		a.logger.Warn("Failed to marshal debug record", port.Fields{"file": name, "error": err.Error()})
		return
	}
	if err := os.WriteFile(filepath.Join(a.dir, name), data, 0o644); err != nil {
		a.logger.Warn("Failed to write debug record", port.Fields{"file": name, "error": err.Error()})
	}
}
