package debugrecorder

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mlx-scraper-service/internal/contextkeys"
	"mlx-scraper-service/internal/core/domain"

	"github.com/stretchr/testify/require"
)

func TestFileRecorderWritesPair(t *testing.T) {
	dir := t.TempDir()
	recorder, err := NewFileRecorderAdapter(dir, contextkeys.LoggerFromContext(context.Background()))
	require.NoError(t, err)

	req := domain.FetchRequest{
		Year:   2021,
		Page:   3,
		Cursor: "t3",
		Params: map[string]string{"YEAR_BUILT": "2021-2021", "page": "3"},
	}
	resp := &domain.RawResponse{
		StatusCode: 200,
		Headers:    map[string][]string{"Content-Type": {"application/json"}},
		Body:       []byte(`{"totalFound": 0}`),
		Elapsed:    120 * time.Millisecond,
	}
	recorder.Record(req, resp)

	reqData, err := os.ReadFile(filepath.Join(dir, "year_2021_page_003.request.json"))
	require.NoError(t, err)
	var gotReq map[string]interface{}
	require.NoError(t, json.Unmarshal(reqData, &gotReq))
	require.Equal(t, float64(2021), gotReq["year"])
	require.Equal(t, "t3", gotReq["cursor"])

	respData, err := os.ReadFile(filepath.Join(dir, "year_2021_page_003.response.json"))
	require.NoError(t, err)
	var gotResp map[string]interface{}
	require.NoError(t, json.Unmarshal(respData, &gotResp))
	require.Equal(t, float64(200), gotResp["status_code"])
	require.Equal(t, float64(120), gotResp["elapsed_ms"])
	// Тело-JSON вложено как объект, а не строка.
	require.IsType(t, map[string]interface{}{}, gotResp["body"])
}

func TestFileRecorderNonJSONBody(t *testing.T) {
	dir := t.TempDir()
	recorder, err := NewFileRecorderAdapter(dir, contextkeys.LoggerFromContext(context.Background()))
	require.NoError(t, err)

	recorder.Record(
		domain.FetchRequest{Year: 2020, Page: 1},
		&domain.RawResponse{StatusCode: 503, Body: []byte("<html>busy</html>")},
	)

	respData, err := os.ReadFile(filepath.Join(dir, "year_2020_page_001.response.json"))
	require.NoError(t, err)
	var gotResp map[string]interface{}
	require.NoError(t, json.Unmarshal(respData, &gotResp))
	require.Equal(t, "<html>busy</html>", gotResp["raw_body"])
	require.NotContains(t, gotResp, "body")
}

func TestFileRecorderRequiresDir(t *testing.T) {
	_, err := NewFileRecorderAdapter("", contextkeys.LoggerFromContext(context.Background()))
	require.Error(t, err)
}
