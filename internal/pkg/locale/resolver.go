package locale

// Request carries the locale-relevant parts of an incoming request. The
// stored preference is already looked up by the caller so the resolver stays
// free of session and database concerns; a lookup failure is represented as
// an empty preference, which degrades resolution to the cookie step.
type Request struct {
	// PreferredLanguage is the authenticated user's stored preference, empty
	// when anonymous or unknown.
	PreferredLanguage string
	// Cookie is the value of the locale preference cookie, empty when unset.
	Cookie string
	// AcceptLanguage is the raw Accept-Language request header.
	AcceptLanguage string
}

// Strategy yields a locale candidate for a request. Strategies are evaluated
// strictly in order; the first hit wins.
type Strategy func(Request) (Locale, bool)

// UserPreference resolves from the authenticated user's stored preference.
func UserPreference(r Request) (Locale, bool) {
	return Parse(r.PreferredLanguage)
}

// CookieValue resolves from the dedicated preference cookie.
func CookieValue(r Request) (Locale, bool) {
	return Parse(r.Cookie)
}

// AcceptLanguageHeader resolves from the Accept-Language request header.
func AcceptLanguageHeader(r Request) (Locale, bool) {
	return FromAcceptLanguage(r.AcceptLanguage)
}

// Resolver applies an ordered fallback chain of strategies.
type Resolver struct {
	strategies []Strategy
}

// NewResolver returns the production chain: stored preference, cookie,
// Accept-Language, configured default.
func NewResolver() *Resolver {
	return &Resolver{
		strategies: []Strategy{
			UserPreference,
			CookieValue,
			AcceptLanguageHeader,
		},
	}
}

// Resolve returns the single effective locale for the request. It never
// fails: when no strategy matches, the default locale applies.
func (r *Resolver) Resolve(req Request) Locale {
	for _, strategy := range r.strategies {
		if l, ok := strategy(req); ok {
			return l
		}
	}
	return Default
}
