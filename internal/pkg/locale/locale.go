package locale

import (
	"sort"
	"strings"
)

// Locale identifies a UI language from the fixed supported set. The set is
// defined at deploy time; there is no runtime registration.
type Locale string

const (
	English Locale = "en"
	Spanish Locale = "es"
	Italian Locale = "it"
	Polish  Locale = "pl"
	German  Locale = "de"
)

// Default is the fallback when no other source yields a supported locale.
const Default = English

// Supported lists every locale the application ships translations for.
var Supported = []Locale{English, Spanish, Italian, Polish, German}

// Parse returns the supported locale matching s, case-insensitively.
func Parse(s string) (Locale, bool) {
	normalized := Locale(strings.ToLower(strings.TrimSpace(s)))
	for _, l := range Supported {
		if l == normalized {
			return l, true
		}
	}
	return "", false
}

// ParseTag parses a language tag such as "en-GB" or "de_DE", stripping the
// region subtag before matching against the supported set.
func ParseTag(tag string) (Locale, bool) {
	primary := strings.TrimSpace(tag)
	if idx := strings.IndexAny(primary, "-_"); idx >= 0 {
		primary = primary[:idx]
	}
	return Parse(primary)
}

// FromAcceptLanguage picks the best supported locale from an Accept-Language
// header. Tags are considered in descending quality order; the first tag
// whose primary subtag is supported wins.
func FromAcceptLanguage(header string) (Locale, bool) {
	type candidate struct {
		tag string
		q   float64
	}

	var candidates []candidate
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tag := part
		q := 1.0
		if idx := strings.Index(part, ";"); idx >= 0 {
			tag = strings.TrimSpace(part[:idx])
			q = parseQuality(part[idx+1:])
		}
		if tag == "" || tag == "*" || q <= 0 {
			continue
		}
		candidates = append(candidates, candidate{tag: tag, q: q})
	}

	// Stable sort keeps header order for equal qualities.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].q > candidates[j].q
	})

	for _, cand := range candidates {
		if l, ok := ParseTag(cand.tag); ok {
			return l, true
		}
	}
	return "", false
}

func parseQuality(params string) float64 {
	for _, param := range strings.Split(params, ";") {
		param = strings.TrimSpace(param)
		if !strings.HasPrefix(param, "q=") {
			continue
		}
		// Manual parse keeps malformed values at quality zero without
		// pulling in strconv error handling at every call site.
		raw := strings.TrimPrefix(param, "q=")
		var q float64
		var seenDot bool
		scale := 0.1
		for _, r := range raw {
			switch {
			case r >= '0' && r <= '9':
				if seenDot {
					q += float64(r-'0') * scale
					scale /= 10
				} else {
					q = q*10 + float64(r-'0')
				}
			case r == '.' && !seenDot:
				seenDot = true
			default:
				return 0
			}
		}
		if q > 1 {
			q = 1
		}
		return q
	}
	return 1.0
}
