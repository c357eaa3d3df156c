// Package validate classifies contact data. The format and list checks are
// pure; the domain liveness probe lives on DomainProber.
package validate

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

const defaultPhoneRegion = "US"

var (
	emailPattern  = regexp.MustCompile(`^[a-z0-9._%+\-']+@[a-z0-9.-]+\.[a-z]{2,}$`)
	domainPattern = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,63}$`)
	idnaProfile   = idna.Lookup
)

var disposableDomains = toSet(
	"tempmail.com",
	"temp-mail.org",
	"10minutemail.com",
	"guerrillamail.com",
	"guerrillamail.net",
	"sharklasers.com",
	"mailinator.com",
	"yopmail.com",
	"throwawaymail.com",
	"trashmail.com",
	"getnada.com",
	"dispostable.com",
	"maildrop.cc",
	"fakeinbox.com",
	"mintemail.com",
	"mohmal.com",
	"emailondeck.com",
	"burnermail.io",
	"spamgourmet.com",
	"mailnesia.com",
	"tempinbox.com",
	"discard.email",
	"mytemp.email",
	"moakt.com",
	"tempail.com",
	"getairmail.com",
	"tempr.email",
	"inboxkitten.com",
	"emailfake.com",
	"mail.tm",
)

var roleAccounts = toSet(
	"info",
	"admin",
	"administrator",
	"support",
	"sales",
	"contact",
	"hello",
	"office",
	"team",
	"help",
	"enquiries",
	"enquiry",
	"inquiries",
	"inquiry",
	"marketing",
	"billing",
	"accounts",
	"hr",
	"jobs",
	"careers",
	"noreply",
	"no-reply",
	"webmaster",
	"postmaster",
	"mail",
	"service",
	"reception",
	"booking",
	"bookings",
	"reservations",
)

// EmailValidation is the combined verdict for one address.
type EmailValidation struct {
	Valid        bool `json:"valid"`
	IsDisposable bool `json:"is_disposable"`
	IsGeneric    bool `json:"is_generic"`
}

// IsValidEmailFormat checks the local@domain.tld shape. Internationalized
// domains are converted to punycode before matching.
func IsValidEmailFormat(email string) bool {
	local, domain, ok := splitEmail(email)
	if !ok {
		return false
	}
	ascii, err := idnaProfile.ToASCII(domain)
	if err != nil || ascii == "" {
		return false
	}
	return emailPattern.MatchString(local + "@" + ascii)
}

// IsDisposableEmail reports whether the address belongs to a throwaway
// inbox provider. Subdomains are reduced to their registrable domain.
func IsDisposableEmail(email string) bool {
	_, domain, ok := splitEmail(email)
	if !ok {
		return false
	}
	if isDisposableDomain(domain) {
		return true
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		return false
	}
	return isDisposableDomain(registrable)
}

// IsGenericEmail reports whether the local part is a role account rather
// than a person. Plus-addressing tags are ignored.
func IsGenericEmail(email string) bool {
	local, _, ok := splitEmail(email)
	if !ok {
		return false
	}
	if plus := strings.IndexByte(local, '+'); plus > 0 {
		local = local[:plus]
	}
	_, generic := roleAccounts[local]
	return generic
}

// ValidateEmail composes the format, disposable and role checks. A nil or
// blank address yields nil.
func ValidateEmail(email *string) *EmailValidation {
	if email == nil || strings.TrimSpace(*email) == "" {
		return nil
	}
	return &EmailValidation{
		Valid:        IsValidEmailFormat(*email),
		IsDisposable: IsDisposableEmail(*email),
		IsGeneric:    IsGenericEmail(*email),
	}
}

// IsValidDomainFormat checks hostname syntax.
func IsValidDomainFormat(domain string) bool {
	domain = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(domain), "."))
	if domain == "" || len(domain) > 253 {
		return false
	}
	ascii, err := idnaProfile.ToASCII(domain)
	if err != nil {
		return false
	}
	return domainPattern.MatchString(ascii)
}

// IsValidPhone reports whether number parses to a valid phone number. Numbers
// without a country code are read in region.
func IsValidPhone(number, region string) bool {
	parsed, ok := parsePhone(number, region)
	return ok && phonenumbers.IsValidNumber(parsed)
}

// FormatE164 renders a phone number in E.164, or returns the input unchanged
// when it cannot be parsed.
func FormatE164(number, region string) string {
	parsed, ok := parsePhone(number, region)
	if !ok || !phonenumbers.IsValidNumber(parsed) {
		return number
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}

func parsePhone(number, region string) (*phonenumbers.PhoneNumber, bool) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, false
	}
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = defaultPhoneRegion
	}
	parsed, err := phonenumbers.Parse(number, region)
	if err != nil {
		return nil, false
	}
	return parsed, true
}

func splitEmail(email string) (string, string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", "", false
	}
	return email[:at], email[at+1:], true
}

func isDisposableDomain(domain string) bool {
	_, ok := disposableDomains[domain]
	return ok
}

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
