package domain

// Типы областей, которые возвращает typeahead-подсказка провайдера.
const (
	AreaTypeSubarea   = "SUBAREA"
	AreaTypeCommunity = "COMMUNITY"
)

// LocationItem - один позиционный элемент ответа typeahead:
// [type_code, name, confidence, polygon].
type LocationItem struct {
	TypeCode   string
	Name       string
	Confidence float64
	Polygon    interface{}
}

// Location - разобранная локация с отделенным кодом ("list_subarea:C-508" -> "C-508").
type Location struct {
	Code       string
	Name       string
	Confidence float64
	AreaType   string
}
