package domain

import (
	"time"
)

// ValueUnknown - явный сентинел для отсутствующих опциональных полей.
// Потребители (CSV, БД, события) никогда не ветвятся на "поле есть/нет".
const ValueUnknown = "unknown"

// ResponseShape - закрытый набор известных форматов ответа провайдера.
// Вычисляется классификатором заново для каждого ответа и нигде не хранится.
type ResponseShape string

const (
	// ShapeEnvelope - объект-обертка с картой листингов внутри ключа "listings".
	ShapeEnvelope ResponseShape = "envelope"
	// ShapePaginated - объект с массивом "results" и опциональным курсором "nextToken".
	ShapePaginated ResponseShape = "paginated"
	// ShapeBareArray - голый JSON-массив листингов на верхнем уровне.
	ShapeBareArray ResponseShape = "bare_array"
	// ShapeEmpty - явный маркер "ничего не найдено".
	ShapeEmpty ResponseShape = "empty"
	// ShapeUnrecognized - дрейф формата провайдера. Ожидаемый исход, не авария.
	ShapeUnrecognized ResponseShape = "unrecognized"
)

// SearchCriteria описывает один поисковый фильтр провайдера.
// Год сюда не входит: оркестратор сам подставляет диапазон YEAR_BUILT на каждую итерацию.
type SearchCriteria struct {
	Name         string
	PriceFrom    int
	PriceTo      int
	DwellingType string
	Omni         string
	ListingType  string
}

// FetchRequest - один запрос к поисковому API. Иммутабелен после создания.
type FetchRequest struct {
	Year   int
	Page   int
	Cursor string
	Params map[string]string
}

// RawResponse - сырой ответ транспорта. Живет один цикл classify/normalize
// и принадлежит оркестратору.
type RawResponse struct {
	StatusCode int
	Headers    map[string][]string
	Body       []byte
	Elapsed    time.Duration
}

// PropertyRecord - нормализованная единица выдачи, общая для всех форматов ответа.
// Строковые опциональные поля по умолчанию равны ValueUnknown,
// числовые - нулю (это и есть их "unknown").
type PropertyRecord struct {
	ListingID    string
	MLSNumber    string
	Year         int
	StreetNumber string
	StreetName   string
	StreetDir    string
	StreetType   string
	City         string
	PostalCode   string
	Subarea      string
	ListPrice    float64
	SoldPrice    float64
	ListedDate   string
	SoldDate     string
	SquareFeet   float64
	Bedrooms     string
	Bathrooms    string
	YearBuilt    int
	Latitude     float64
	Longitude    float64
	AgentName    string
	OfficeName   string
	DetailURL    string
	FetchDate    time.Time
	SourceShape  ResponseShape

	// Extra - поля провайдера, не входящие в общий набор.
	Extra map[string]interface{}
}

// Address собирает читаемый адрес из уличных полей, пропуская неизвестные.
func (r PropertyRecord) Address() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{r.StreetNumber, r.StreetName, r.StreetType, r.StreetDir} {
		if p != "" && p != ValueUnknown {
			parts = append(parts, p)
		}
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}

// PriceDifference - разница продажной и листинговой цены (схема оригинальной выгрузки).
func (r PropertyRecord) PriceDifference() float64 {
	if r.ListPrice == 0 || r.SoldPrice == 0 {
		return 0
	}
	return r.SoldPrice - r.ListPrice
}

// FetchOutcome - итог обработки одного года. Создается один раз и не мутируется.
type FetchOutcome struct {
	Year         int
	Succeeded    bool
	Records      []PropertyRecord
	Err          error
	PagesFetched int
	PagesFailed  int
}

// RunSummary - агрегат по всем годам запуска. Наполняется только оркестратором.
type RunSummary struct {
	RunID        string
	Outcomes     []FetchOutcome
	StartedAt    time.Time
	FinishedAt   time.Time
	TotalRecords int
	TotalPages   int
}

func (s *RunSummary) WallTime() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

func (s *RunSummary) YearsAttempted() []int {
	years := make([]int, 0, len(s.Outcomes))
	for _, o := range s.Outcomes {
		years = append(years, o.Year)
	}
	return years
}

func (s *RunSummary) YearsSucceeded() []int {
	years := make([]int, 0, len(s.Outcomes))
	for _, o := range s.Outcomes {
		if o.Succeeded {
			years = append(years, o.Year)
		}
	}
	return years
}

func (s *RunSummary) YearsFailed() []int {
	var years []int
	for _, o := range s.Outcomes {
		if !o.Succeeded {
			years = append(years, o.Year)
		}
	}
	return years
}

// Errors перечисляет все накопленные ошибки. Пустой срез на полностью успешном
// запуске - тоже валидный ответ, провалы никогда не молчат.
func (s *RunSummary) Errors() []error {
	errs := make([]error, 0)
	for _, o := range s.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errs
}
