package filestorage

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mlx-scraper-service/internal/core/domain"

	"github.com/stretchr/testify/require"
)

func sampleOutcome(year int) domain.FetchOutcome {
	return domain.FetchOutcome{
		Year:      year,
		Succeeded: true,
		Records: []domain.PropertyRecord{
			{
				ListingID:    "98332",
				MLSNumber:    "A2098332",
				Year:         year,
				StreetNumber: "123",
				StreetName:   "MAPLEWOOD",
				StreetDir:    "SE",
				StreetType:   "DR",
				City:         "Calgary",
				PostalCode:   "T2J 1X5",
				Subarea:      "Maple Ridge",
				ListPrice:    549900,
				SoldPrice:    561000,
				ListedDate:   "2021-04-12",
				SoldDate:     "2021-04-20",
				SquareFeet:   1150.5,
				Bedrooms:     "4",
				Bathrooms:    "2.5",
				Latitude:     50.9645,
				Longitude:    -114.0512,
				AgentName:    "Jane Realtor",
				OfficeName:   "Prime Realty",
				DetailURL:    "https://calgarymlx.com/recip/calgary/123-maplewood-dr-se-a2098332.html",
				SourceShape:  domain.ShapeEnvelope,
				FetchDate:    time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
			},
		},
		PagesFetched: 1,
	}
}

func TestCSVSinkWritesHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "props.csv")
	sink, err := NewCSVSinkAdapter(path)
	require.NoError(t, err)

	require.NoError(t, sink.WriteOutcome(context.Background(), sampleOutcome(2021)))
	require.NoError(t, sink.WriteOutcome(context.Background(), sampleOutcome(2020)))
	require.NoError(t, sink.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3) // заголовок + две записи
	require.Equal(t, csvHeader, rows[0])

	row := rows[1]
	require.Equal(t, "98332", row[0])
	require.Equal(t, "A2098332", row[1])
	require.Equal(t, "2021", row[2])
	require.Equal(t, "549900", row[14])
	require.Equal(t, "561000", row[15])
	require.Equal(t, "11100", row[16]) // price_difference
	require.Equal(t, "envelope", row[24])
	require.Equal(t, "2026-08-29", row[25])
}

func TestCSVSinkSkipsEmptyOutcome(t *testing.T) {
	path := filepath.Join(t.TempDir(), "props.csv")
	sink, err := NewCSVSinkAdapter(path)
	require.NoError(t, err)

	require.NoError(t, sink.WriteOutcome(context.Background(), domain.FetchOutcome{Year: 2020}))
	require.NoError(t, sink.Close())

	// Пустой год не создает даже файла.
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestJSONLinesSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "props.jsonl")
	sink, err := NewJSONLinesSinkAdapter(path)
	require.NoError(t, err)

	require.NoError(t, sink.WriteOutcome(context.Background(), sampleOutcome(2021)))
	require.NoError(t, sink.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &got))
	require.Equal(t, "98332", got["listing_id"])
	require.Equal(t, "123 MAPLEWOOD DR SE", got["address"])
	require.Equal(t, "envelope", got["source_shape"])
	require.False(t, scanner.Scan()) // ровно одна строка
}

type failingSink struct{ err error }

func (s *failingSink) WriteOutcome(ctx context.Context, outcome domain.FetchOutcome) error {
	return s.err
}
func (s *failingSink) Close() error { return s.err }

type okSink struct{ writes int }

func (s *okSink) WriteOutcome(ctx context.Context, outcome domain.FetchOutcome) error {
	s.writes++
	return nil
}
func (s *okSink) Close() error { return nil }

func TestMultiSinkContinuesAfterFailure(t *testing.T) {
	boom := errors.New("boom")
	ok := &okSink{}
	multi, err := NewMultiSinkAdapter(&failingSink{err: boom}, ok)
	require.NoError(t, err)

	err = multi.WriteOutcome(context.Background(), sampleOutcome(2021))
	require.ErrorIs(t, err, boom)
	// Второй получатель отработал несмотря на сбой первого.
	require.Equal(t, 1, ok.writes)

	require.ErrorIs(t, multi.Close(), boom)
}

func TestMultiSinkRequiresSinks(t *testing.T) {
	_, err := NewMultiSinkAdapter()
	require.Error(t, err)
}
