package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"mlx-scraper-service/internal/core/domain"
)

// Поля листинга, входящие в общий набор PropertyRecord.
// Все остальное уходит в Extra как есть.
var consumedFields = map[string]bool{
	"LIST_ID":        true,
	"MLS_NUM":        true,
	"STREET_NUMBER":  true,
	"STREET_NAME":    true,
	"STREET_DIR":     true,
	"STREET_TYPE":    true,
	"CITY":           true,
	"POSTAL_CODE":    true,
	"LIST_SUBAREA":   true,
	"PRICE_RAW":      true,
	"SOLD_PRICE_RAW": true,
	"LISTED_DATE":    true,
	"SOLD_DATE":      true,
	"AREA_SQ_FEET":   true,
	"TOTAL_BEDROOMS": true,
	"TOTAL_BATHS":    true,
	"YEAR_BUILT":     true,
	"LATITUDE":       true,
	"LONGITUDE":      true,
	"AGENT_NAME":     true,
	"OFFICE_NAME":    true,
}

type envelopePayload struct {
	Listings map[string]json.RawMessage `json:"listings"`
}

type paginatedPayload struct {
	Results   []json.RawMessage `json:"results"`
	NextToken string            `json:"nextToken"`
}

// Normalize извлекает плоские записи из уже классифицированного тела.
// По одной стратегии на формат; все стратегии сходятся к единым полям
// PropertyRecord. Возвращает также курсор следующей страницы, если формат его
// несет. Ошибка всегда *domain.NormalizationError - оркестратор логирует и
// пропускает страницу, не роняя год.
func Normalize(body []byte, year int, shape domain.ResponseShape) ([]domain.PropertyRecord, string, error) {
	switch shape {
	case domain.ShapeEmpty:
		return nil, "", nil

	case domain.ShapeEnvelope:
		return normalizeEnvelope(body, year)

	case domain.ShapePaginated:
		return normalizePaginated(body, year)

	case domain.ShapeBareArray:
		return normalizeBareArray(body, year)

	default:
		return nil, "", &domain.NormalizationError{
			Shape: shape,
			Path:  "$",
			Err:   fmt.Errorf("payload does not match any known provider format"),
		}
	}
}

// normalizeEnvelope разбирает формат-обертку: карта листингов по их id.
// Ключи сортируются, чтобы порядок записей был детерминированным.
func normalizeEnvelope(body []byte, year int) ([]domain.PropertyRecord, string, error) {
	var payload envelopePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, "", &domain.NormalizationError{Shape: domain.ShapeEnvelope, Path: "listings", Err: err}
	}
	if payload.Listings == nil {
		return nil, "", &domain.NormalizationError{
			Shape: domain.ShapeEnvelope,
			Path:  "listings",
			Err:   fmt.Errorf("expected an object keyed by listing id"),
		}
	}

	ids := make([]string, 0, len(payload.Listings))
	for id := range payload.Listings {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	records := make([]domain.PropertyRecord, 0, len(ids))
	for _, id := range ids {
		path := "listings." + id
		record, err := normalizeListing(payload.Listings[id], year, domain.ShapeEnvelope, path, id)
		if err != nil {
			return nil, "", err
		}
		records = append(records, record)
	}
	return records, "", nil
}

func normalizePaginated(body []byte, year int) ([]domain.PropertyRecord, string, error) {
	var payload paginatedPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, "", &domain.NormalizationError{Shape: domain.ShapePaginated, Path: "results", Err: err}
	}

	records := make([]domain.PropertyRecord, 0, len(payload.Results))
	for i, raw := range payload.Results {
		path := fmt.Sprintf("results[%d]", i)
		record, err := normalizeListing(raw, year, domain.ShapePaginated, path, "")
		if err != nil {
			return nil, "", err
		}
		records = append(records, record)
	}
	return records, payload.NextToken, nil
}

func normalizeBareArray(body []byte, year int) ([]domain.PropertyRecord, string, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, "", &domain.NormalizationError{Shape: domain.ShapeBareArray, Path: "$", Err: err}
	}

	records := make([]domain.PropertyRecord, 0, len(items))
	for i, raw := range items {
		path := fmt.Sprintf("$[%d]", i)
		record, err := normalizeListing(raw, year, domain.ShapeBareArray, path, "")
		if err != nil {
			return nil, "", err
		}
		records = append(records, record)
	}
	return records, "", nil
}

// normalizeListing превращает один сырой листинг в PropertyRecord.
// fallbackID - ключ из карты listings (провайдер дублирует в нем LIST_ID).
func normalizeListing(raw json.RawMessage, year int, shape domain.ResponseShape, path string, fallbackID string) (domain.PropertyRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var item map[string]interface{}
	if err := dec.Decode(&item); err != nil {
		return domain.PropertyRecord{}, &domain.NormalizationError{Shape: shape, Path: path, Err: err}
	}

	listingID := stringField(item, "LIST_ID")
	if listingID == domain.ValueUnknown {
		listingID = fallbackID
	}
	if listingID == "" || listingID == domain.ValueUnknown {
		return domain.PropertyRecord{}, &domain.NormalizationError{
			Shape: shape,
			Path:  path + ".LIST_ID",
			Err:   fmt.Errorf("listing id is missing"),
		}
	}

	record := domain.PropertyRecord{
		ListingID:    listingID,
		MLSNumber:    stringField(item, "MLS_NUM"),
		Year:         year,
		StreetNumber: stringField(item, "STREET_NUMBER"),
		StreetName:   stringField(item, "STREET_NAME"),
		StreetDir:    stringField(item, "STREET_DIR"),
		StreetType:   stringField(item, "STREET_TYPE"),
		City:         stringField(item, "CITY"),
		PostalCode:   stringField(item, "POSTAL_CODE"),
		Subarea:      stringField(item, "LIST_SUBAREA"),
		ListPrice:    floatField(item, "PRICE_RAW"),
		SoldPrice:    floatField(item, "SOLD_PRICE_RAW"),
		ListedDate:   stringField(item, "LISTED_DATE"),
		SoldDate:     stringField(item, "SOLD_DATE"),
		SquareFeet:   floatField(item, "AREA_SQ_FEET"),
		Bedrooms:     stringField(item, "TOTAL_BEDROOMS"),
		Bathrooms:    stringField(item, "TOTAL_BATHS"),
		YearBuilt:    intField(item, "YEAR_BUILT"),
		Latitude:     floatField(item, "LATITUDE"),
		Longitude:    floatField(item, "LONGITUDE"),
		AgentName:    stringField(item, "AGENT_NAME"),
		OfficeName:   stringField(item, "OFFICE_NAME"),
		FetchDate:    time.Now().UTC(),
		SourceShape:  shape,
	}
	record.DetailURL = buildDetailURL(record)

	for key, value := range item {
		if consumedFields[key] {
			continue
		}
		if record.Extra == nil {
			record.Extra = make(map[string]interface{})
		}
		record.Extra[key] = value
	}

	return record, nil
}

// ListingURLPrefix - база страниц деталей листинга.
const ListingURLPrefix = "https://calgarymlx.com/recip"

// buildDetailURL собирает адрес страницы листинга из уличных полей и номера MLS,
// как это делает фронтенд провайдера. Без номера MLS адреса не существует.
func buildDetailURL(r domain.PropertyRecord) string {
	if r.MLSNumber == domain.ValueUnknown || r.City == domain.ValueUnknown {
		return domain.ValueUnknown
	}
	parts := []string{r.StreetNumber, r.StreetName, r.StreetType, r.StreetDir, r.MLSNumber}
	slug := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" || p == domain.ValueUnknown {
			continue
		}
		slug = append(slug, strings.ReplaceAll(strings.ToLower(p), " ", "-"))
	}
	return fmt.Sprintf("%s/%s/%s.html", ListingURLPrefix, strings.ToLower(r.City), strings.Join(slug, "-"))
}

// stringField достает строковое поле, приводя числа к их текстовой форме.
// Отсутствие и пустая строка дают сентинел ValueUnknown.
func stringField(item map[string]interface{}, key string) string {
	value, ok := item[key]
	if !ok || value == nil {
		return domain.ValueUnknown
	}
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return domain.ValueUnknown
		}
		return v
	case json.Number:
		return v.String()
	default:
		return domain.ValueUnknown
	}
}

// floatField достает числовое поле; провайдер шлет числа то числом, то строкой.
func floatField(item map[string]interface{}, key string) float64 {
	value, ok := item[key]
	if !ok || value == nil {
		return 0
	}
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		var n json.Number = json.Number(strings.TrimSpace(v))
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func intField(item map[string]interface{}, key string) int {
	return int(floatField(item, key))
}
