package constants

import "fmt"

// Эндпоинты Calgary MLX
const (
	HomeURL      = "https://calgarymlx.com/recip.html"
	SearchURL    = "https://calgarymlx.com/wps/recip/59854/idx.search"
	TypeaheadURL = "https://calgarymlx.com/wps/recip/59854/idx.typeahead"

	Referer   = "https://calgarymlx.com/recip.html"
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// Типы листинга typeahead-поиска
var TypeaheadListingTypes = []string{"AUTO", "AUTO_SOLD"}

// Параметры карты, которые провайдер требует для тайловой выдачи
const (
	DefaultPxWidth     = "1878"
	DefaultPxHeight    = "771"
	DefaultMinTileSize = "50"
	DefaultMaxTileSize = "150"
)

// DwellingTypeDetached - отдельно стоящие дома, единственный тип из оригинальной выгрузки
const DwellingTypeDetached = "DET"

// DefaultSearchParams возвращает базовый form-payload поискового запроса.
// Каждый вызов отдает свежую карту: запрос иммутабелен, общие карты недопустимы.
func DefaultSearchParams() map[string]string {
	return map[string]string{
		"__SOLD__onoff":       "only",
		"__SOLD__month_range": "24",
		"_priceReduction":     "on",
		"forMap":              "true",
		"listingType":         "AUTO_SOLD",
		"format":              "tiles",
		"pxWidth":             DefaultPxWidth,
		"pxHeight":            DefaultPxHeight,
		"minTileSize":         DefaultMinTileSize,
		"maxTileSize":         DefaultMaxTileSize,
		"sw_lat":              "50.80385356806897",
		"sw_lng":              "-114.73967292417584",
		"ne_lat":              "51.21931073434607",
		"ne_lng":              "-113.17798414259289",
	}
}

// DefaultHeaders - заголовки, без которых провайдер отдает HTML вместо JSON
func DefaultHeaders() map[string]string {
	return map[string]string{
		"accept":           "application/json, text/javascript, */*; q=0.01",
		"accept-language":  "en-US,en;q=0.9",
		"content-type":     "application/x-www-form-urlencoded; charset=UTF-8",
		"x-mrp-auto-sold":  "true",
		"x-mrp-cache":      "no",
		"x-mrp-tmpl":       "v2",
		"x-requested-with": "XMLHttpRequest",
		"Referer":          Referer,
		"User-Agent":       UserAgent,
	}
}

// Шаблоны omni-фильтра по коду и имени локации
const (
	OmniSubareaTemplate   = "list_subarea:%s[%s]"
	OmniCommunityTemplate = "community:%s[%s]"
)

// YearBuiltRange форматирует значение параметра YEAR_BUILT для одного года.
func YearBuiltRange(year int) string {
	return fmt.Sprintf("%d-%d", year, year)
}
