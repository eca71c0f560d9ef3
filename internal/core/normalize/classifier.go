package normalize

import (
	"bytes"
	"encoding/json"

	"mlx-scraper-service/internal/core/domain"
)

// Classify определяет формат сырого тела ответа чисто структурно, по известным
// маркерам верхнего уровня, в порядке приоритета: обертка -> пагинация ->
// голый массив -> явный маркер пустоты. Тотальна: любой вход дает ровно один
// тег и никогда не паникует. ShapeUnrecognized - полноценный ожидаемый исход
// (дрейф формата провайдера), а не ошибка.
func Classify(body []byte) domain.ResponseShape {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return domain.ShapeUnrecognized
	}

	switch trimmed[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return domain.ShapeUnrecognized
		}
		if _, ok := obj["listings"]; ok {
			return domain.ShapeEnvelope
		}
		if _, ok := obj["results"]; ok {
			return domain.ShapePaginated
		}
		if raw, ok := obj["totalFound"]; ok {
			var total json.Number
			if err := json.Unmarshal(raw, &total); err == nil {
				if n, convErr := total.Int64(); convErr == nil && n == 0 {
					return domain.ShapeEmpty
				}
			}
			// totalFound есть, но ни листингов, ни результатов - дрейф формата
			return domain.ShapeUnrecognized
		}
		if len(obj) == 0 {
			return domain.ShapeEmpty
		}
		return domain.ShapeUnrecognized

	case '[':
		var arr []json.RawMessage
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			return domain.ShapeUnrecognized
		}
		if len(arr) == 0 {
			return domain.ShapeEmpty
		}
		return domain.ShapeBareArray

	default:
		return domain.ShapeUnrecognized
	}
}
