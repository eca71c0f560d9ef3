package port

import "context"

// DetailFetcherPort извлекает год постройки со страницы листинга.
type DetailFetcherPort interface {
	FetchBuiltYear(ctx context.Context, detailURL string) (int, error)
}
