// Package dedup matches a candidate record against previously stored ones.
package dedup

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Kind names the identity hash a match was found on.
type Kind string

const (
	KindEmail  Kind = "email"
	KindPhone  Kind = "phone"
	KindDomain Kind = "domain"
)

// DefaultNameSimilarity is the minimum name similarity for a domain match.
const DefaultNameSimilarity = 0.8

// Canonical is a stored, non-duplicate record sharing a hash with the candidate.
type Canonical struct {
	ID                     uuid.UUID
	NormalizedBusinessName *string
}

// Finder looks up non-duplicate records by identity hash, oldest first.
type Finder interface {
	FindCanonicalByHash(ctx context.Context, kind Kind, hash string, excludeID *uuid.UUID) ([]Canonical, error)
}

// Candidate carries the keys of the record being checked. ExcludeID is set
// in update mode so a record never matches itself.
type Candidate struct {
	EmailHash              *string
	PhoneHash              *string
	DomainHash             *string
	NormalizedBusinessName *string
	ExcludeID              *uuid.UUID
}

// Result reports the canonical record the candidate duplicates, if any.
type Result struct {
	IsDuplicate   bool       `json:"is_duplicate"`
	DuplicateOfID *uuid.UUID `json:"duplicate_of_id,omitempty"`
	MatchedOn     Kind       `json:"matched_on,omitempty"`
}

// Deduplicator applies the match policy: email hash, then phone hash, then
// domain hash with a similar business name. The first hit wins.
type Deduplicator struct {
	finder        Finder
	minSimilarity float64
}

// New returns a Deduplicator. A non-positive threshold selects the default.
func New(finder Finder, minSimilarity float64) *Deduplicator {
	if minSimilarity <= 0 {
		minSimilarity = DefaultNameSimilarity
	}
	return &Deduplicator{finder: finder, minSimilarity: minSimilarity}
}

// Check searches for an existing canonical record matching c.
func (d *Deduplicator) Check(ctx context.Context, c Candidate) (Result, error) {
	if c.EmailHash != nil {
		matches, err := d.finder.FindCanonicalByHash(ctx, KindEmail, *c.EmailHash, c.ExcludeID)
		if err != nil {
			return Result{}, eris.Wrap(err, "lookup by email hash")
		}
		if len(matches) > 0 {
			return duplicateOf(matches[0].ID, KindEmail), nil
		}
	}

	if c.PhoneHash != nil {
		matches, err := d.finder.FindCanonicalByHash(ctx, KindPhone, *c.PhoneHash, c.ExcludeID)
		if err != nil {
			return Result{}, eris.Wrap(err, "lookup by phone hash")
		}
		if len(matches) > 0 {
			return duplicateOf(matches[0].ID, KindPhone), nil
		}
	}

	if c.DomainHash != nil && c.NormalizedBusinessName != nil {
		matches, err := d.finder.FindCanonicalByHash(ctx, KindDomain, *c.DomainHash, c.ExcludeID)
		if err != nil {
			return Result{}, eris.Wrap(err, "lookup by domain hash")
		}
		for _, m := range matches {
			if m.NormalizedBusinessName == nil {
				continue
			}
			if NameSimilarity(*c.NormalizedBusinessName, *m.NormalizedBusinessName) >= d.minSimilarity {
				return duplicateOf(m.ID, KindDomain), nil
			}
		}
	}

	return Result{}, nil
}

// NameSimilarity returns 1 minus the Levenshtein distance over the longer
// length, computed on lowercased, accent-folded, space-collapsed names.
func NameSimilarity(a, b string) float64 {
	a, b = foldName(a), foldName(b)
	if a == "" && b == "" {
		return 1
	}
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}

func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(folded), " ")
}

func duplicateOf(id uuid.UUID, kind Kind) Result {
	return Result{IsDuplicate: true, DuplicateOfID: &id, MatchedOn: kind}
}
