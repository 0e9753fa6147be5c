package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	t.Parallel()

	for _, l := range Supported {
		got, ok := Parse(string(l))
		assert.True(t, ok)
		assert.Equal(t, l, got)
	}

	got, ok := Parse("EN")
	assert.True(t, ok)
	assert.Equal(t, English, got)

	_, ok = Parse("fr")
	assert.False(t, ok)
	_, ok = Parse("")
	assert.False(t, ok)
}

func TestParseTag_StripsRegion(t *testing.T) {
	t.Parallel()

	got, ok := ParseTag("en-GB")
	assert.True(t, ok)
	assert.Equal(t, English, got)

	got, ok = ParseTag("de_AT")
	assert.True(t, ok)
	assert.Equal(t, German, got)

	_, ok = ParseTag("fr-FR")
	assert.False(t, ok)
}

func TestFromAcceptLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   Locale
		ok     bool
	}{
		{name: "first supported tag wins", header: "fr-FR,de;q=0.8", want: German, ok: true},
		{name: "quality order beats header order", header: "it;q=0.3,pl;q=0.9", want: Polish, ok: true},
		{name: "region stripped", header: "es-MX", want: Spanish, ok: true},
		{name: "nothing supported", header: "fr,ja;q=0.7", ok: false},
		{name: "wildcard ignored", header: "*", ok: false},
		{name: "empty header", header: "", ok: false},
		{name: "zero quality skipped", header: "de;q=0,it;q=0.5", want: Italian, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromAcceptLanguage(tt.header)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestResolver_PrecedenceOrder(t *testing.T) {
	t.Parallel()

	r := NewResolver()

	// Stored preference beats cookie and header.
	for _, l := range Supported {
		got := r.Resolve(Request{
			PreferredLanguage: string(l),
			Cookie:            "it",
			AcceptLanguage:    "pl",
		})
		assert.Equal(t, l, got)
	}

	// Cookie beats header when no stored preference.
	got := r.Resolve(Request{Cookie: "it", AcceptLanguage: "pl"})
	assert.Equal(t, Italian, got)

	// Header applies when preference and cookie are absent.
	got = r.Resolve(Request{AcceptLanguage: "fr-FR,de;q=0.8"})
	assert.Equal(t, German, got)

	// Default when nothing matches.
	got = r.Resolve(Request{AcceptLanguage: "fr,ja"})
	assert.Equal(t, Default, got)
	got = r.Resolve(Request{})
	assert.Equal(t, Default, got)
}

func TestResolver_IgnoresUnsupportedSources(t *testing.T) {
	t.Parallel()

	r := NewResolver()

	// Unsupported stored preference falls through to the cookie.
	got := r.Resolve(Request{PreferredLanguage: "fr", Cookie: "es"})
	assert.Equal(t, Spanish, got)

	// Unsupported cookie falls through to the header.
	got = r.Resolve(Request{Cookie: "xx", AcceptLanguage: "it"})
	assert.Equal(t, Italian, got)
}
