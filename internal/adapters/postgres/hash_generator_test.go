package postgres

import (
	"testing"

	"mlx-scraper-service/internal/core/domain"

	"github.com/stretchr/testify/require"
)

func TestBuildHashPayloadStable(t *testing.T) {
	rec := domain.PropertyRecord{
		MLSNumber:    "A2098332",
		StreetNumber: "123",
		StreetName:   "MAPLEWOOD",
		PostalCode:   "T2J 1X5",
		Latitude:     50.9645,
		Longitude:    -114.0512,
	}

	first := calculateObjectHash(buildHashPayload(rec))
	require.Len(t, first, 64) // hex sha256

	// Мелкий сдвиг координат внутри одной геохэш-ячейки хэш не меняет.
	shifted := rec
	shifted.Latitude += 0.0001
	require.Equal(t, first, calculateObjectHash(buildHashPayload(shifted)))

	// Другой номер MLS - другой объект.
	other := rec
	other.MLSNumber = "A2011204"
	require.NotEqual(t, first, calculateObjectHash(buildHashPayload(other)))
}

func TestBuildHashPayloadUnknownFields(t *testing.T) {
	rec := domain.PropertyRecord{
		MLSNumber:  domain.ValueUnknown,
		PostalCode: "",
	}
	payload := buildHashPayload(rec)
	require.Contains(t, payload, "null")
}
