package postgres

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"mlx-scraper-service/internal/core/domain"

	"github.com/mmcloughlin/geohash"
)

const geohashPrecision = 5

// buildHashPayload создает стабильную строку из ключевых полей листинга.
// Геохэш огрубляет координаты, чтобы мелкие расхождения между выгрузками
// не порождали новых объектов.
func buildHashPayload(rec domain.PropertyRecord) string {
	geohsh := geohash.Encode(rec.Latitude, rec.Longitude)

	parts := []string{
		geohsh[:geohashPrecision],
		normalizePart(rec.MLSNumber),
		normalizePart(rec.StreetNumber),
		normalizePart(rec.StreetName),
		normalizePart(rec.PostalCode),
	}

	return strings.Join(parts, "|")
}

func normalizePart(val string) string {
	if val == "" || val == domain.ValueUnknown {
		return "null"
	}
	return strings.ToLower(strings.TrimSpace(val))
}

// calculateObjectHash вычисляет SHA256 хэш для объекта.
func calculateObjectHash(payload string) string {
	h := sha256.New()
	h.Write([]byte(payload))
	return fmt.Sprintf("%x", h.Sum(nil))
}
