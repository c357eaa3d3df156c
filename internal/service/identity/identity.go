// Package identity derives the lookup keys used to match records against
// each other.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

var freeMailDomains = map[string]struct{}{
	"gmail.com":      {},
	"googlemail.com": {},
	"yahoo.com":      {},
	"yahoo.co.id":    {},
	"ymail.com":      {},
	"hotmail.com":    {},
	"outlook.com":    {},
	"live.com":       {},
	"msn.com":        {},
	"aol.com":        {},
	"icloud.com":     {},
	"me.com":         {},
	"proton.me":      {},
	"protonmail.com": {},
	"gmx.com":        {},
	"mail.com":       {},
	"zoho.com":       {},
	"yandex.com":     {},
}

// Hash returns the hex SHA-256 digest of the lowercased value.
func Hash(value *string) *string {
	if value == nil {
		return nil
	}
	lowered := strings.ToLower(*value)
	if strings.TrimSpace(lowered) == "" {
		return nil
	}
	sum := sha256.Sum256([]byte(lowered))
	digest := hex.EncodeToString(sum[:])
	return &digest
}

// ExtractDomain returns the domain of an email address or the host of a URL
// without its www. prefix. Unparseable input yields nil.
func ExtractDomain(emailOrURL string) *string {
	value := strings.TrimSpace(emailOrURL)
	if value == "" {
		return nil
	}
	if at := strings.LastIndex(value, "@"); at >= 0 {
		domain := strings.ToLower(strings.TrimSpace(value[at+1:]))
		if domain == "" {
			return nil
		}
		return &domain
	}

	if !strings.Contains(value, "://") {
		value = "https://" + value
	}
	u, err := url.Parse(value)
	if err != nil {
		return nil
	}
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return nil
	}
	return &host
}

// DomainSource picks the domain that identifies a business: the website host
// when known, otherwise the email domain unless it belongs to a free-mail
// provider shared by unrelated people.
func DomainSource(website, email *string) *string {
	if website != nil {
		if domain := ExtractDomain(*website); domain != nil {
			return domain
		}
	}
	if email == nil || !strings.Contains(*email, "@") {
		return nil
	}
	domain := ExtractDomain(*email)
	if domain == nil || IsFreeMailDomain(*domain) {
		return nil
	}
	return domain
}

// IsFreeMailDomain reports whether the domain hosts personal mailboxes.
func IsFreeMailDomain(domain string) bool {
	_, ok := freeMailDomains[strings.ToLower(strings.TrimSpace(domain))]
	return ok
}
