package rabbitmq

import (
	"time"

	"mlx-scraper-service/internal/core/domain"
)

// ScrapedPropertyEventDTO - контракт события для шины сообщений.
// Поля согласованы со схемой events/scraped-property/v1.json.
type ScrapedPropertyEventDTO struct {
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

func toEventDTO(r domain.PropertyRecord) ScrapedPropertyEventDTO {
	return ScrapedPropertyEventDTO{
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
