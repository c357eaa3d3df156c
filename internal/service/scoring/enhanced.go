package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/octobees/leadscan/internal/entity"
)

const (
	categoryContactQuality    = "contact_quality"
	categoryEmailQuality      = "email_quality"
	categoryCompanyData       = "company_data"
	categoryEnrichmentDepth   = "enrichment_depth"
	categoryIndustryRelevance = "industry_relevance"

	maxContactQuality    = 25
	maxEmailQuality      = 25
	maxCompanyData       = 20
	maxEnrichmentDepth   = 15
	maxIndustryRelevance = 15
	maxSocialPoints      = 7
	maxContactAttributes = 5

	enhancedHighThreshold   = 75
	enhancedMediumThreshold = 50

	freshnessWindow = 7 * 24 * time.Hour
)

var seniorKeywords = []string{"executive", "director", "senior"}

// EnhancedScore is the post-enrichment score with its advisory
// recommendations.
type EnhancedScore struct {
	Total           int            `json:"total_score"`
	Breakdown       map[string]int `json:"breakdown"`
	Priority        string         `json:"priority"`
	Recommendations []string       `json:"recommendations"`
}

// Enhanced scores an enriched record in five capped categories. now anchors
// the freshness bonus.
func (s *Scorer) Enhanced(r *entity.BusinessRecord, now time.Time) EnhancedScore {
	var recs recommendations

	breakdown := map[string]int{
		categoryContactQuality:    scoreContactQuality(r, &recs),
		categoryEmailQuality:      scoreEmailQuality(r, &recs),
		categoryCompanyData:       scoreCompanyData(r, &recs),
		categoryEnrichmentDepth:   scoreEnrichmentDepth(r, now, &recs),
		categoryIndustryRelevance: s.scoreIndustryRelevance(r, &recs),
	}

	total := 0
	for _, value := range breakdown {
		total += value
	}
	total = clamp(total, maxScore)

	return EnhancedScore{
		Total:           total,
		Breakdown:       breakdown,
		Priority:        EnhancedPriorityFor(total),
		Recommendations: recs.list(),
	}
}

// EnhancedPriorityFor maps an enhanced score to a tier.
func EnhancedPriorityFor(score int) string {
	switch {
	case score >= enhancedHighThreshold:
		return entity.PriorityHigh
	case score >= enhancedMediumThreshold:
		return entity.PriorityMedium
	default:
		return entity.PriorityLow
	}
}

func scoreContactQuality(r *entity.BusinessRecord, recs *recommendations) int {
	score := 0
	if hasEmail(r) {
		score += 5
	} else {
		recs.add("Find a contact email address")
	}

	switch {
	case strings.EqualFold(text(r.HunterVerificationStatus), "valid"):
		score += 5
	case hasText(r.HunterVerificationStatus):
		score += 2
		recs.add("Re-verify the email address")
	default:
		if hasEmail(r) {
			recs.add("Verify the email address")
		}
	}

	if hasText(r.NormalizedPhone) {
		score += 5
	} else {
		recs.add("Add a phone number")
	}

	if hasText(r.ContactName) {
		score += 3
		if hasText(r.ContactPosition) {
			score += 2
		} else {
			recs.add("Find the contact's job title")
		}
	} else {
		recs.add("Identify a named contact person")
	}

	switch {
	case containsAny(text(r.ContactSeniority), seniorKeywords):
		score += 3
	case !hasText(r.ContactSeniority) && containsAny(text(r.ContactPosition), seniorKeywords):
		score += 3
	case hasText(r.ContactSeniority):
		score++
		recs.add("Reach a more senior decision maker")
	default:
		if hasText(r.ContactName) {
			recs.add("Determine the contact's seniority")
		}
	}

	return clamp(score, maxContactQuality)
}

func scoreEmailQuality(r *entity.BusinessRecord, recs *recommendations) int {
	score := 0
	if r.HunterConfidence != nil {
		score += int(math.Round(float64(*r.HunterConfidence) / 100 * 10))
	}

	switch strings.ToLower(text(r.HunterDeliverability)) {
	case "deliverable":
		score += 10
	case "risky":
		score += 3
		recs.add("Email deliverability is risky, look for an alternative address")
	case "undeliverable":
		recs.add("Email is undeliverable, find a new address")
	default:
		if hasEmail(r) {
			recs.add("Check email deliverability")
		}
	}

	if hasEmail(r) {
		if !r.IsGenericEmail {
			score += 5
		} else {
			recs.add("Find a direct email instead of a generic inbox")
		}
	}

	return clamp(score, maxEmailQuality)
}

func scoreCompanyData(r *entity.BusinessRecord, recs *recommendations) int {
	score := 0
	if hasText(r.Website) {
		score += 5
		if isTrue(r.DomainValid) {
			score += 3
		}
	} else {
		recs.add("Add the company website")
	}

	if hasText(r.CompanySize) {
		score += 5
	} else {
		recs.add("Enrich company size")
	}

	social := 0
	if hasText(r.LinkedInURL) || hasText(r.ContactLinkedIn) {
		social += 4
	}
	if hasText(r.TwitterURL) || hasText(r.ContactTwitter) {
		social += 2
	}
	if hasText(r.FacebookURL) {
		social++
	}
	if social == 0 {
		recs.add("Add social profiles")
	}
	score += clamp(social, maxSocialPoints)

	return clamp(score, maxCompanyData)
}

func scoreEnrichmentDepth(r *entity.BusinessRecord, now time.Time, recs *recommendations) int {
	score := 0
	if r.HunterEmailsCount != nil && *r.HunterEmailsCount > 0 {
		score += 3
		if *r.HunterEmailsCount >= 10 {
			score += 2
		}
	}

	if r.EnrichedAt != nil {
		score += 5
		if now.Sub(*r.EnrichedAt) < freshnessWindow {
			score += 2
		} else {
			recs.add("Refresh enrichment data")
		}
	} else {
		recs.add("Run third-party enrichment")
	}

	known := 0
	for _, attr := range []*string{r.ContactName, r.ContactPosition, r.ContactSeniority, r.ContactDepartment, r.ContactLinkedIn} {
		if hasText(attr) {
			known++
		}
	}
	score += clamp(known, maxContactAttributes)

	return clamp(score, maxEnrichmentDepth)
}

func (s *Scorer) scoreIndustryRelevance(r *entity.BusinessRecord, recs *recommendations) int {
	industry := IndustryText(r.Industry, r.BusinessType)
	score := 0
	switch {
	case industry == "":
		recs.add("Classify the business industry")
	case s.table.IsHighValue(industry):
		score += 15
	case s.table.IsRelevant(industry):
		score += 10
	default:
		score += 5
	}

	if hasText(r.City) || hasText(r.State) {
		score += 5
	} else {
		recs.add("Add city or state")
	}

	return clamp(score, maxIndustryRelevance)
}

type recommendations struct {
	items []string
}

func (r *recommendations) add(item string) {
	r.items = append(r.items, item)
}

func (r *recommendations) list() []string {
	if r.items == nil {
		return []string{}
	}
	return r.items
}

func text(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
