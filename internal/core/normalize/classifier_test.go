package normalize

import (
	"testing"

	"mlx-scraper-service/internal/core/domain"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		body string
		want domain.ResponseShape
	}{
		{name: "envelope with listings map", body: `{"listings": {"123": {"LIST_ID": "123"}}, "totalFound": 1}`, want: domain.ShapeEnvelope},
		{name: "envelope with empty listings", body: `{"listings": {}}`, want: domain.ShapeEnvelope},
		{name: "paginated with results", body: `{"results": [{"LIST_ID": "1"}], "nextToken": "abc"}`, want: domain.ShapePaginated},
		{name: "paginated with empty results", body: `{"results": []}`, want: domain.ShapePaginated},
		{name: "listings wins over results", body: `{"listings": {}, "results": []}`, want: domain.ShapeEnvelope},
		{name: "bare array", body: `[{"LIST_ID": "1"}]`, want: domain.ShapeBareArray},
		{name: "empty array", body: `[]`, want: domain.ShapeEmpty},
		{name: "empty object", body: `{}`, want: domain.ShapeEmpty},
		{name: "zero total found", body: `{"totalFound": 0}`, want: domain.ShapeEmpty},
		{name: "nonzero total found without listings", body: `{"totalFound": 5}`, want: domain.ShapeUnrecognized},
		{name: "total found as string", body: `{"totalFound": "0"}`, want: domain.ShapeUnrecognized},
		{name: "unknown object keys", body: `{"tiles": []}`, want: domain.ShapeUnrecognized},
		{name: "html error page", body: `<html><body>error</body></html>`, want: domain.ShapeUnrecognized},
		{name: "truncated json", body: `{"listings": {`, want: domain.ShapeUnrecognized},
		{name: "empty body", body: ``, want: domain.ShapeUnrecognized},
		{name: "whitespace body", body: "  \n\t ", want: domain.ShapeUnrecognized},
		{name: "bare scalar", body: `42`, want: domain.ShapeUnrecognized},
		{name: "leading whitespace before object", body: "\n\t {\"results\": []}", want: domain.ShapePaginated},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Classify([]byte(tc.body)))
		})
	}
}

// Классификация не должна зависеть от порядка вызовов или состояния.
func TestClassifyDeterministic(t *testing.T) {
	body := []byte(`{"listings": {"a": {}}, "totalFound": 1}`)
	first := Classify(body)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, Classify(body))
	}
}
