package entity

import "strings"

// MergeEnrichment fills fields that are still empty on the record from the
// patch. Known values are never overwritten. It reports whether any field
// that feeds the relevance score changed.
func (b *BusinessRecord) MergeEnrichment(p *BusinessPatch) bool {
	if b == nil || p == nil {
		return false
	}

	scoringChanged := false
	fill := func(dst **string, src *string, scoring bool) {
		if isBlank(*dst) && !isBlank(src) {
			v := *src
			*dst = &v
			if scoring {
				scoringChanged = true
			}
		}
	}

	fill(&b.BusinessName, p.BusinessName, false)
	fill(&b.BusinessType, p.BusinessType, true)
	fill(&b.Address, p.Address, false)
	fill(&b.City, p.City, false)
	fill(&b.State, p.State, false)
	fill(&b.Zip, p.Zip, false)
	fill(&b.Country, p.Country, false)
	fill(&b.Phone, p.Phone, true)
	fill(&b.Email, p.Email, true)
	fill(&b.Website, p.Website, true)
	fill(&b.Industry, p.Industry, true)

	e, src := &b.Enrichment, &p.Enrichment
	fill(&e.ContactName, src.ContactName, false)
	fill(&e.ContactPosition, src.ContactPosition, false)
	fill(&e.ContactSeniority, src.ContactSeniority, false)
	fill(&e.ContactDepartment, src.ContactDepartment, false)
	fill(&e.ContactLinkedIn, src.ContactLinkedIn, false)
	fill(&e.ContactTwitter, src.ContactTwitter, false)
	fill(&e.CompanySize, src.CompanySize, false)
	fill(&e.CompanyRevenue, src.CompanyRevenue, false)
	fill(&e.LinkedInURL, src.LinkedInURL, false)
	fill(&e.TwitterURL, src.TwitterURL, false)
	fill(&e.FacebookURL, src.FacebookURL, false)
	fill(&e.InstagramURL, src.InstagramURL, false)
	fill(&e.PlaceID, src.PlaceID, false)
	fill(&e.HunterVerificationStatus, src.HunterVerificationStatus, false)
	fill(&e.HunterDeliverability, src.HunterDeliverability, false)

	if e.FoundedYear == nil && src.FoundedYear != nil {
		v := *src.FoundedYear
		e.FoundedYear = &v
	}
	if e.Rating == nil && src.Rating != nil {
		v := *src.Rating
		e.Rating = &v
	}
	if e.ReviewCount == nil && src.ReviewCount != nil {
		v := *src.ReviewCount
		e.ReviewCount = &v
	}
	if e.HunterConfidence == nil && src.HunterConfidence != nil {
		v := *src.HunterConfidence
		e.HunterConfidence = &v
	}
	if e.HunterEmailsCount == nil && src.HunterEmailsCount != nil {
		v := *src.HunterEmailsCount
		e.HunterEmailsCount = &v
	}

	return scoringChanged
}

// ApplyEdits overlays caller-supplied fields onto the record. Unlike
// MergeEnrichment the patch wins wherever it carries a non-blank value.
func (b *BusinessRecord) ApplyEdits(p *BusinessPatch) {
	if b == nil || p == nil {
		return
	}
	set := func(dst **string, src *string) {
		if !isBlank(src) {
			v := *src
			*dst = &v
		}
	}
	set(&b.BusinessName, p.BusinessName)
	set(&b.BusinessType, p.BusinessType)
	set(&b.Address, p.Address)
	set(&b.City, p.City)
	set(&b.State, p.State)
	set(&b.Zip, p.Zip)
	set(&b.Country, p.Country)
	set(&b.Phone, p.Phone)
	set(&b.Email, p.Email)
	set(&b.Website, p.Website)
	set(&b.Industry, p.Industry)
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
