package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"mlx-scraper-service/internal/constants"
	"mlx-scraper-service/internal/contextkeys"
	"mlx-scraper-service/internal/core/domain"
	"mlx-scraper-service/internal/core/port"
)

const (
	subareaPrefix   = "list_subarea:"
	communityPrefix = "community:"
)

// Провайдер дописывает к именам уточнения в скобках, в omni-фильтр они не входят.
var parenthesesRe = regexp.MustCompile(`\s*\([^)]*\)`)

// SearchLocationsUseCase опрашивает typeahead по всем типам листинга и сводит
// ответы в дедуплицированные списки подрайонов и комьюнити.
type SearchLocationsUseCase struct {
	typeahead port.TypeaheadPort
}

func NewSearchLocationsUseCase(typeahead port.TypeaheadPort) (*SearchLocationsUseCase, error) {
	if typeahead == nil {
		return nil, fmt.Errorf("typeahead cannot be nil")
	}
	return &SearchLocationsUseCase{typeahead: typeahead}, nil
}

func (uc *SearchLocationsUseCase) Execute(ctx context.Context, query string) ([]domain.Location, []domain.Location, error) {
	baseLogger := contextkeys.LoggerFromContext(ctx)
	ucLogger := baseLogger.WithFields(port.Fields{"use_case": "SearchLocations", "query": query})

	if strings.TrimSpace(query) == "" {
		return nil, nil, &domain.ConfigurationError{Field: "query", Reason: "location query cannot be empty"}
	}

	var items []domain.LocationItem
	for _, listingType := range constants.TypeaheadListingTypes {
		found, err := uc.typeahead.Search(ctx, query, listingType)
		if err != nil {
			return nil, nil, fmt.Errorf("typeahead search failed for %q (%s): %w", query, listingType, err)
		}
		items = append(items, found...)
	}

	var subareas, communities []domain.Location
	seen := make(map[string]bool)

	for _, item := range items {
		var areaType string
		switch {
		case strings.HasPrefix(item.TypeCode, subareaPrefix):
			areaType = domain.AreaTypeSubarea
		case strings.HasPrefix(item.TypeCode, communityPrefix):
			areaType = domain.AreaTypeCommunity
		default:
			continue
		}

		code := item.TypeCode[strings.Index(item.TypeCode, ":")+1:]
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true

		location := domain.Location{
			Code:       code,
			Name:       strings.TrimSpace(parenthesesRe.ReplaceAllString(item.Name, "")),
			Confidence: item.Confidence,
			AreaType:   areaType,
		}
		if areaType == domain.AreaTypeSubarea {
			subareas = append(subareas, location)
		} else {
			communities = append(communities, location)
		}
	}

	ucLogger.Info("Location search finished", port.Fields{
		"subareas":    len(subareas),
		"communities": len(communities),
	})
	return subareas, communities, nil
}

// BuildOmni форматирует локацию в значение omni-параметра поиска.
func BuildOmni(location domain.Location) (string, error) {
	switch location.AreaType {
	case domain.AreaTypeSubarea:
		return fmt.Sprintf(constants.OmniSubareaTemplate, location.Code, location.Name), nil
	case domain.AreaTypeCommunity:
		return fmt.Sprintf(constants.OmniCommunityTemplate, location.Code, location.Name), nil
	default:
		return "", fmt.Errorf("unknown area type: %s", location.AreaType)
	}
}
