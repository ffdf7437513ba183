package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}

// LocaleKey stores the negotiated language code on the request context.
var LocaleKey = localeContextKey{}

// Locale negotiates the request language from X-Locale, then Accept-Language,
// against the supported tags. The first supported tag is the fallback.
func Locale(supported []language.Tag) func(http.Handler) http.Handler {
	if len(supported) == 0 {
		supported = []language.Tag{language.Spanish, language.English}
	}
	matcher := language.NewMatcher(supported)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := detectLocale(r, matcher, supported)
			w.Header().Set("Content-Language", locale)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SupportedLocales parses the configured default language and always adds
// Spanish and English so clients can pick either.
func SupportedLocales(defaultLocale string) []language.Tag {
	tags := []language.Tag{}
	if tag, err := language.Parse(strings.TrimSpace(defaultLocale)); err == nil {
		base, _ := tag.Base()
		tags = append(tags, language.Make(base.String()))
	}
	for _, t := range []language.Tag{language.Spanish, language.English} {
		if !containsBase(tags, t) {
			tags = append(tags, t)
		}
	}
	return tags
}

func containsBase(tags []language.Tag, t language.Tag) bool {
	for _, have := range tags {
		if baseCode(have) == baseCode(t) {
			return true
		}
	}
	return false
}

func detectLocale(r *http.Request, matcher language.Matcher, supported []language.Tag) string {
	var prefs []language.Tag
	if v := strings.TrimSpace(r.Header.Get("X-Locale")); v != "" {
		if tag, err := language.Parse(v); err == nil {
			prefs = append(prefs, tag)
		}
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			prefs = append(prefs, tags...)
		}
	}
	if len(prefs) == 0 {
		return baseCode(supported[0])
	}
	_, idx, conf := matcher.Match(prefs...)
	if conf == language.No {
		return baseCode(supported[0])
	}
	return baseCode(supported[idx])
}

func baseCode(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

// LocaleFromContext returns the negotiated language code, or fallback.
func LocaleFromContext(ctx context.Context, fallback string) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok && v != "" {
		return v
	}
	return fallback
}
