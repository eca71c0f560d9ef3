package contracts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const validEvent = `{
	"listing_id": "98332",
	"mls_number": "A2098332",
	"year": 2021,
	"built_year": 1974,
	"address": "123 MAPLEWOOD DR SE",
	"city": "Calgary",
	"postal_code": "T2J 1X5",
	"neighborhood": "Maple Ridge",
	"latitude": 50.9645,
	"longitude": -114.0512,
	"square_feet": 1150.5,
	"list_price": 549900,
	"sold_price": 561000,
	"list_date": "2021-04-12",
	"sold_date": "2021-04-20",
	"bedrooms": "4",
	"bathrooms": "2.5",
	"agent": "Jane Realtor",
	"office": "Prime Realty",
	"detail_url": "https://calgarymlx.com/recip/calgary/123-maplewood-dr-se-a2098332.html",
	"source_shape": "envelope",
	"fetch_date": "2026-08-29"
}`

func TestValidateEvent(t *testing.T) {
	require.NoError(t, ValidateEvent("ScrapedPropertyEvent", "1.0.0", []byte(validEvent)))
}

func TestValidateEventMissingRequiredField(t *testing.T) {
	body := []byte(`{"mls_number": "A1", "year": 2021, "city": "Calgary", "list_price": 1, "source_shape": "envelope", "fetch_date": "2026-08-29"}`)
	err := ValidateEvent("ScrapedPropertyEvent", "1.0.0", body)
	require.Error(t, err)
	require.Contains(t, err.Error(), "listing_id")
}

func TestValidateEventBadShapeTag(t *testing.T) {
	body := []byte(`{"listing_id": "1", "mls_number": "A1", "year": 2021, "city": "Calgary", "list_price": 1, "source_shape": "tiles", "fetch_date": "2026-08-29"}`)
	require.Error(t, ValidateEvent("ScrapedPropertyEvent", "1.0.0", body))
}

func TestValidateEventUnknownSchema(t *testing.T) {
	err := ValidateEvent("NoSuchEvent", "1.0.0", []byte(`{}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestValidateEventInvalidJSON(t *testing.T) {
	require.Error(t, ValidateEvent("ScrapedPropertyEvent", "1.0.0", []byte(`{broken`)))
}
