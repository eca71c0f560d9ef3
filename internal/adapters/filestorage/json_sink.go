package filestorage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mlx-scraper-service/internal/core/domain"
)

// jsonRecordDTO - строка JSON Lines выгрузки.
type jsonRecordDTO struct {
	ListingID   string                 `json:"listing_id"`
	MLSNumber   string                 `json:"mls_number"`
	Year        int                    `json:"year"`
	BuiltYear   int                    `json:"built_year"`
	Address     string                 `json:"address"`
	City        string                 `json:"city"`
	PostalCode  string                 `json:"postal_code"`
	Subarea     string                 `json:"neighborhood"`
	Latitude    float64                `json:"latitude"`
	Longitude   float64                `json:"longitude"`
	SquareFeet  float64                `json:"square_feet"`
	ListPrice   float64                `json:"list_price"`
	SoldPrice   float64                `json:"sold_price"`
	ListedDate  string                 `json:"list_date"`
	SoldDate    string                 `json:"sold_date"`
	Bedrooms    string                 `json:"bedrooms"`
	Bathrooms   string                 `json:"bathrooms"`
	AgentName   string                 `json:"agent"`
	OfficeName  string                 `json:"office"`
	DetailURL   string                 `json:"detail_url"`
	SourceShape string                 `json:"source_shape"`
	FetchDate   string                 `json:"fetch_date"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

// JSONLinesSinkAdapter пишет записи в формате JSON Lines: по объекту на строку.
type JSONLinesSinkAdapter struct {
	path string
	file *os.File
}

func NewJSONLinesSinkAdapter(path string) (*JSONLinesSinkAdapter, error) {
	if path == "" {
		return nil, fmt.Errorf("json output path cannot be empty")
	}
	return &JSONLinesSinkAdapter{path: path}, nil
}

func (a *JSONLinesSinkAdapter) WriteOutcome(ctx context.Context, outcome domain.FetchOutcome) error {
	if len(outcome.Records) == 0 {
		return nil
	}
	if a.file == nil {
		if dir := filepath.Dir(a.path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory %s: %w", dir, err)
			}
		}
		file, err := os.Create(a.path)
		if err != nil {
			return fmt.Errorf("failed to create json file %s: %w", a.path, err)
		}
		a.file = file
	}

	enc := json.NewEncoder(a.file)
	for _, record := range outcome.Records {
		if err := enc.Encode(toJSONRecord(record)); err != nil {
			return fmt.Errorf("failed to encode listing %s: %w", record.ListingID, err)
		}
	}
	return nil
}

func (a *JSONLinesSinkAdapter) Close() error {
	if a.file == nil {
		return nil
	}
	return a.file.Close()
}

func toJSONRecord(r domain.PropertyRecord) jsonRecordDTO {
	return jsonRecordDTO{
		ListingID:   r.ListingID,
		MLSNumber:   r.MLSNumber,
		Year:        r.Year,
		BuiltYear:   r.YearBuilt,
		Address:     r.Address(),
		City:        r.City,
		PostalCode:  r.PostalCode,
		Subarea:     r.Subarea,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		SquareFeet:  r.SquareFeet,
		ListPrice:   r.ListPrice,
		SoldPrice:   r.SoldPrice,
		ListedDate:  r.ListedDate,
		SoldDate:    r.SoldDate,
		Bedrooms:    r.Bedrooms,
		Bathrooms:   r.Bathrooms,
		AgentName:   r.AgentName,
		OfficeName:  r.OfficeName,
		DetailURL:   r.DetailURL,
		SourceShape: string(r.SourceShape),
		FetchDate:   r.FetchDate.Format(time.DateOnly),
		Extra:       r.Extra,
	}
}
