package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octobees/leadscan/internal/service/normalize"
)

func ptr(s string) *string { return &s }

func TestHash(t *testing.T) {
	got := Hash(ptr("info@acme.com"))
	require.NotNil(t, got)
	assert.Len(t, *got, 64)
	assert.Equal(t, *got, *Hash(ptr("INFO@Acme.com")))
	assert.NotEqual(t, *got, *Hash(ptr("sales@acme.com")))

	assert.Nil(t, Hash(nil))
	assert.Nil(t, Hash(ptr("")))
	assert.Nil(t, Hash(ptr("  ")))
}

func TestHashOfNormalizedEmailIsStable(t *testing.T) {
	a := Hash(normalize.Email(ptr(" A@B.COM ")))
	b := Hash(normalize.Email(ptr("a@b.com")))
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, *a, *b)
}

func TestExtractDomain(t *testing.T) {
	cases := []struct {
		in   string
		want *string
	}{
		{"Info@Acme.COM", ptr("acme.com")},
		{"https://www.Acme.com/contact?x=1", ptr("acme.com")},
		{"www.acme.co.id", ptr("acme.co.id")},
		{"acme.com:8080/path", ptr("acme.com")},
		{"http://shop.acme.com", ptr("shop.acme.com")},
		{"user@", nil},
		{"", nil},
		{"http://[::1", nil},
	}
	for _, tc := range cases {
		got := ExtractDomain(tc.in)
		if tc.want == nil {
			assert.Nil(t, got, tc.in)
			continue
		}
		require.NotNil(t, got, tc.in)
		assert.Equal(t, *tc.want, *got, tc.in)
	}
}

func TestDomainSource(t *testing.T) {
	got := DomainSource(ptr("https://acme.com"), ptr("owner@gmail.com"))
	require.NotNil(t, got)
	assert.Equal(t, "acme.com", *got)

	got = DomainSource(nil, ptr("sales@acme-legal.com"))
	require.NotNil(t, got)
	assert.Equal(t, "acme-legal.com", *got)

	assert.Nil(t, DomainSource(nil, ptr("owner@gmail.com")))
	assert.Nil(t, DomainSource(ptr(""), nil))
	assert.Nil(t, DomainSource(nil, ptr("not-an-email")))
}
