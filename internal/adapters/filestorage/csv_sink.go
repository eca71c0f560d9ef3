package filestorage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"mlx-scraper-service/internal/core/domain"
)

// Колонки повторяют схему исторической выгрузки: один листинг - одна строка.
var csvHeader = []string{
	"listing_id", "mls_number", "year", "built_year",
	"street_number", "street_name", "street_direction", "street_type",
	"city", "postal_code", "neighborhood",
	"latitude", "longitude", "square_feet",
	"list_price", "sold_price", "price_difference",
	"list_date", "sold_date",
	"bedrooms", "bathrooms",
	"agent", "office",
	"detail_url", "source_shape", "fetch_date",
}

// CSVSinkAdapter пишет нормализованные записи в CSV-файл.
// Файл открывается лениво при первом итоге и живет до Close.
type CSVSinkAdapter struct {
	path   string
	file   *os.File
	writer *csv.Writer
}

func NewCSVSinkAdapter(path string) (*CSVSinkAdapter, error) {
	if path == "" {
		return nil, fmt.Errorf("csv output path cannot be empty")
	}
	return &CSVSinkAdapter{path: path}, nil
}

func (a *CSVSinkAdapter) WriteOutcome(ctx context.Context, outcome domain.FetchOutcome) error {
	if len(outcome.Records) == 0 {
		return nil
	}
	if err := a.ensureOpen(); err != nil {
		return err
	}

	for _, record := range outcome.Records {
		if err := a.writer.Write(toCSVRow(record)); err != nil {
			return fmt.Errorf("failed to write csv row for listing %s: %w", record.ListingID, err)
		}
	}
	a.writer.Flush()
	return a.writer.Error()
}

func (a *CSVSinkAdapter) Close() error {
	if a.file == nil {
		return nil
	}
	a.writer.Flush()
	if err := a.writer.Error(); err != nil {
		a.file.Close()
		return err
	}
	return a.file.Close()
}

func (a *CSVSinkAdapter) ensureOpen() error {
	if a.file != nil {
		return nil
	}
	if dir := filepath.Dir(a.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	file, err := os.Create(a.path)
	if err != nil {
		return fmt.Errorf("failed to create csv file %s: %w", a.path, err)
	}
	a.file = file
	a.writer = csv.NewWriter(file)
	if err := a.writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	return nil
}

func toCSVRow(r domain.PropertyRecord) []string {
	return []string{
		r.ListingID,
		r.MLSNumber,
		strconv.Itoa(r.Year),
		strconv.Itoa(r.YearBuilt),
		r.StreetNumber,
		r.StreetName,
		r.StreetDir,
		r.StreetType,
		r.City,
		r.PostalCode,
		r.Subarea,
		formatFloat(r.Latitude),
		formatFloat(r.Longitude),
		formatFloat(r.SquareFeet),
		formatFloat(r.ListPrice),
		formatFloat(r.SoldPrice),
		formatFloat(r.PriceDifference()),
		r.ListedDate,
		r.SoldDate,
		r.Bedrooms,
		r.Bathrooms,
		r.AgentName,
		r.OfficeName,
		r.DetailURL,
		string(r.SourceShape),
		r.FetchDate.Format(time.DateOnly),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
