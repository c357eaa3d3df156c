// Package scoring computes lead relevance, priority and the post-enrichment
// enhanced score. Every function here is pure.
package scoring

import (
	"strings"

	"github.com/octobees/leadscan/internal/entity"
)

const (
	categoryContact  = "contact_methods"
	categoryQuality  = "data_quality"
	categoryIndustry = "industry_relevance"

	maxContact  = 30
	maxQuality  = 20
	maxIndustry = 50
	maxScore    = 100

	highPriorityThreshold   = 80
	mediumPriorityThreshold = 60
)

// IndustryTable lists the keywords that mark a lead's industry as relevant,
// and the subset worth a bonus.
type IndustryTable struct {
	Relevant  []string `mapstructure:"relevant"`
	HighValue []string `mapstructure:"high_value"`
}

// DefaultIndustryTable targets businesses that buy professional photography.
func DefaultIndustryTable() IndustryTable {
	return IndustryTable{
		Relevant: []string{
			"medical", "clinic", "dental", "hospital", "legal", "law", "attorney",
			"corporate", "consulting", "real estate", "realty", "property",
			"hotel", "hospitality", "resort", "restaurant", "cafe", "catering",
			"event", "wedding", "venue", "retail", "boutique", "fashion",
			"beauty", "salon", "spa", "fitness", "gym", "architecture",
			"interior", "automotive", "education", "school",
		},
		HighValue: []string{"medical", "legal", "corporate", "real estate"},
	}
}

// IsHighValue reports whether text mentions a high-value keyword.
func (t IndustryTable) IsHighValue(text string) bool {
	return containsAny(text, t.HighValue)
}

// IsRelevant reports whether text mentions any relevant or high-value keyword.
func (t IndustryTable) IsRelevant(text string) bool {
	return containsAny(text, t.Relevant) || containsAny(text, t.HighValue)
}

// Result reports the aggregate score and the per-category breakdown.
type Result struct {
	Total     int            `json:"total"`
	Breakdown map[string]int `json:"breakdown"`
}

// Scorer evaluates records against an industry table.
type Scorer struct {
	table IndustryTable
}

// NewScorer returns a Scorer. An empty table selects the defaults.
func NewScorer(table IndustryTable) *Scorer {
	if len(table.Relevant) == 0 && len(table.HighValue) == 0 {
		table = DefaultIndustryTable()
	}
	return &Scorer{table: table}
}

// Table exposes the industry table in use.
func (s *Scorer) Table() IndustryTable {
	return s.table
}

// Relevance computes the 0-100 ingest score from contact methods, email
// quality and industry fit.
func (s *Scorer) Relevance(r *entity.BusinessRecord) Result {
	breakdown := map[string]int{
		categoryContact:  scoreContactMethods(r),
		categoryQuality:  scoreDataQuality(r),
		categoryIndustry: s.scoreIndustry(r),
	}

	total := 0
	for _, value := range breakdown {
		total += value
	}
	return Result{
		Total:     clamp(total, maxScore),
		Breakdown: breakdown,
	}
}

// PriorityFor maps a relevance score to a tier. Duplicates are always low.
func PriorityFor(score int, isDuplicate bool) string {
	switch {
	case isDuplicate:
		return entity.PriorityLow
	case score >= highPriorityThreshold:
		return entity.PriorityHigh
	case score >= mediumPriorityThreshold:
		return entity.PriorityMedium
	default:
		return entity.PriorityLow
	}
}

// StatusFor derives the lead status from the duplicate flag.
func StatusFor(isDuplicate bool) string {
	if isDuplicate {
		return entity.StatusDuplicate
	}
	return entity.StatusNew
}

func scoreContactMethods(r *entity.BusinessRecord) int {
	score := 0
	if isTrue(r.EmailValid) {
		score += 15
	}
	if hasText(r.NormalizedPhone) {
		score += 10
	}
	if hasText(r.Website) && isTrue(r.DomainValid) {
		score += 5
	}
	return clamp(score, maxContact)
}

// Email quality points need an email to judge.
func scoreDataQuality(r *entity.BusinessRecord) int {
	if !hasEmail(r) {
		return 0
	}
	score := 0
	if !r.IsDisposableEmail {
		score += 10
	}
	if !r.IsGenericEmail {
		score += 10
	}
	return clamp(score, maxQuality)
}

func (s *Scorer) scoreIndustry(r *entity.BusinessRecord) int {
	text := IndustryText(r.Industry, r.BusinessType)
	if text == "" {
		return 0
	}
	score := 0
	if s.table.IsRelevant(text) {
		score += 30
	}
	if s.table.IsHighValue(text) {
		score += 20
	}
	return clamp(score, maxIndustry)
}

// IndustryText joins the industry and business type into one lowercased
// string for keyword matching.
func IndustryText(industry, businessType *string) string {
	parts := make([]string, 0, 2)
	if hasText(industry) {
		parts = append(parts, strings.TrimSpace(*industry))
	}
	if hasText(businessType) {
		parts = append(parts, strings.TrimSpace(*businessType))
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func containsAny(text string, keywords []string) bool {
	text = strings.ToLower(text)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func hasEmail(r *entity.BusinessRecord) bool {
	return hasText(r.NormalizedEmail) || hasText(r.Email)
}

func hasText(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func isTrue(b *bool) bool {
	return b != nil && *b
}

func clamp(value, limit int) int {
	if value > limit {
		return limit
	}
	if value < 0 {
		return 0
	}
	return value
}
