// Package normalize turns free-text business fields into canonical forms.
// Every function is pure and returns nil when there is nothing left to keep.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var addressAbbreviations = []struct {
	pattern *regexp.Regexp
	short   string
}{
	{regexp.MustCompile(`(?i)\bstreet\b`), "St"},
	{regexp.MustCompile(`(?i)\bavenue\b`), "Ave"},
	{regexp.MustCompile(`(?i)\broad\b`), "Rd"},
	{regexp.MustCompile(`(?i)\bboulevard\b`), "Blvd"},
	{regexp.MustCompile(`(?i)\bdrive\b`), "Dr"},
	{regexp.MustCompile(`(?i)\blane\b`), "Ln"},
	{regexp.MustCompile(`(?i)\bcourt\b`), "Ct"},
	{regexp.MustCompile(`(?i)\bsuite\b`), "Ste"},
}

// Email trims and lowercases an address.
func Email(raw *string) *string {
	if raw == nil {
		return nil
	}
	return nonEmpty(strings.ToLower(strings.TrimSpace(*raw)))
}

// Phone keeps digits and a single leading plus sign.
func Phone(raw *string) *string {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	var b strings.Builder
	if strings.HasPrefix(trimmed, "+") {
		b.WriteByte('+')
	}
	digits := 0
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			digits++
		}
	}
	if digits == 0 {
		return nil
	}
	return nonEmpty(b.String())
}

// BusinessName collapses whitespace and title-cases each token.
func BusinessName(raw *string) *string {
	if raw == nil {
		return nil
	}
	return nonEmpty(TitleCase(*raw))
}

// Address collapses whitespace and abbreviates common street suffixes.
func Address(raw *string) *string {
	if raw == nil {
		return nil
	}
	value := collapseSpaces(*raw)
	for _, abbr := range addressAbbreviations {
		value = abbr.pattern.ReplaceAllString(value, abbr.short)
	}
	return nonEmpty(value)
}

// TitleCase uppercases the first letter of each whitespace-delimited token
// and lowercases the rest. Acronyms are not special-cased.
func TitleCase(value string) string {
	parts := strings.Fields(value)
	for i, p := range parts {
		lower := strings.ToLower(p)
		first, size := utf8.DecodeRuneInString(lower)
		parts[i] = string(unicode.ToUpper(first)) + lower[size:]
	}
	return strings.Join(parts, " ")
}

// Text trims a value and maps empty strings to nil.
func Text(raw *string) *string {
	if raw == nil {
		return nil
	}
	return nonEmpty(strings.TrimSpace(*raw))
}

func collapseSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func nonEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
