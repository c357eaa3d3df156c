package scoring

import "strings"

// Service segments.
const (
	SegmentMedical        = "medical"
	SegmentLegal          = "legal"
	SegmentCorporate      = "corporate"
	SegmentRealEstate     = "real_estate"
	SegmentHospitality    = "hospitality"
	SegmentFoodBeverage   = "food_beverage"
	SegmentRetail         = "retail"
	SegmentBeautyWellness = "beauty_wellness"
	SegmentEvents         = "events"
	SegmentOther          = "other"
)

// Checked in order; the first segment with a matching keyword wins.
var segmentKeywords = []struct {
	segment  string
	keywords []string
}{
	{SegmentMedical, []string{"medical", "clinic", "dental", "dentist", "doctor", "hospital", "health", "pharmacy", "physio"}},
	{SegmentLegal, []string{"legal", "law", "attorney", "lawyer", "notary"}},
	{SegmentRealEstate, []string{"real estate", "realty", "realtor", "property", "properties"}},
	{SegmentCorporate, []string{"corporate", "consulting", "agency", "finance", "accounting", "insurance", "office"}},
	{SegmentHospitality, []string{"hotel", "hospitality", "resort", "hostel", "villa", "guest house"}},
	{SegmentBeautyWellness, []string{"beauty", "salon", "spa", "barber", "fitness", "gym", "yoga", "wellness"}},
	{SegmentFoodBeverage, []string{"restaurant", "cafe", "coffee", "bakery", "bar", "catering", "food"}},
	{SegmentEvents, []string{"event", "wedding", "venue", "party", "florist"}},
	{SegmentRetail, []string{"retail", "shop", "store", "boutique", "fashion", "market"}},
}

// ServiceSegment classifies a business from its type and industry.
func ServiceSegment(businessType, industry *string) string {
	text := IndustryText(industry, businessType)
	if text == "" {
		return SegmentOther
	}
	for _, entry := range segmentKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return entry.segment
			}
		}
	}
	return SegmentOther
}
