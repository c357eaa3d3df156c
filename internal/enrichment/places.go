package enrichment

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/api/option"
	"google.golang.org/api/places/v1"

	"github.com/octobees/leadscan/internal/entity"
)

const (
	placesName      = "google_places"
	placesFieldMask = "places.id,places.displayName,places.formattedAddress,places.nationalPhoneNumber," +
		"places.internationalPhoneNumber,places.websiteUri,places.rating,places.userRatingCount," +
		"places.primaryType,places.types"
)

// Places looks the business up with a Google Places text search.
type Places struct {
	svc *places.Service
}

// NewPlaces builds a Places client. Extra options (endpoint, HTTP client)
// are passed through to the generated service.
func NewPlaces(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Places, error) {
	if apiKey == "" {
		return nil, eris.New("places: api key must not be empty")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := places.NewService(ctx, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "places: create service")
	}
	return &Places{svc: svc}, nil
}

// Name implements Client.
func (p *Places) Name() string {
	return placesName
}

// Enrich searches for "<name> <city> <state> <country>" and merges the first
// hit.
func (p *Places) Enrich(ctx context.Context, record *entity.BusinessRecord) Result {
	query := placesQuery(record)
	if query == "" {
		return failure(eris.New("places: business name is missing"))
	}

	call := p.svc.Places.SearchText(&places.GoogleMapsPlacesV1SearchTextRequest{
		TextQuery:    query,
		PageSize:     1,
		LanguageCode: "en",
	}).Context(ctx)
	call.Header().Set("X-Goog-FieldMask", placesFieldMask)

	resp, err := call.Do()
	if err != nil {
		return failure(eris.Wrap(err, "places: search text"))
	}
	if resp == nil || len(resp.Places) == 0 {
		return noMatch()
	}

	hit := resp.Places[0]
	patch := &entity.BusinessPatch{
		Address: optional(hit.FormattedAddress),
		Website: optional(hit.WebsiteUri),
	}
	patch.Phone = optional(hit.InternationalPhoneNumber)
	if patch.Phone == nil {
		patch.Phone = optional(hit.NationalPhoneNumber)
	}
	patch.BusinessType = optional(humanizeType(hit.PrimaryType, hit.Types))
	patch.PlaceID = optional(hit.Id)
	if hit.Rating > 0 {
		rating := hit.Rating
		patch.Rating = &rating
	}
	if hit.UserRatingCount > 0 {
		count := int(hit.UserRatingCount)
		patch.ReviewCount = &count
	}
	return success(patch)
}

func placesQuery(record *entity.BusinessRecord) string {
	name := record.NormalizedBusinessName
	if name == nil {
		name = record.BusinessName
	}
	if name == nil || strings.TrimSpace(*name) == "" {
		return ""
	}
	parts := []string{strings.TrimSpace(*name)}
	for _, s := range []*string{record.City, record.State, record.Country} {
		if s != nil && strings.TrimSpace(*s) != "" {
			parts = append(parts, strings.TrimSpace(*s))
		}
	}
	return strings.Join(parts, " ")
}

// humanizeType turns "real_estate_agency" into "real estate agency".
func humanizeType(primary string, types []string) string {
	t := primary
	if t == "" {
		for _, candidate := range types {
			if candidate != "point_of_interest" && candidate != "establishment" {
				t = candidate
				break
			}
		}
	}
	return strings.ReplaceAll(t, "_", " ")
}
