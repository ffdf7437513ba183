package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/text/language"
)

func TestDetectLocale(t *testing.T) {
	supported := SupportedLocales("es")
	matcher := language.NewMatcher(supported)

	tests := []struct {
		name  string
		setup func(r *http.Request)
		want  string
	}{
		{
			name: "x-locale overrides",
			setup: func(r *http.Request) {
				r.Header.Set("X-Locale", "en")
				r.Header.Set("Accept-Language", "es-ES")
			},
			want: "en",
		},
		{
			name: "accept-language used",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "en-US,en;q=0.9")
			},
			want: "en",
		},
		{
			name: "regional spanish",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "es-MX,es;q=0.8")
			},
			want: "es",
		},
		{
			name: "quality ordering",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "es;q=0.2,en;q=0.9")
			},
			want: "en",
		},
		{
			name: "unsupported language falls back",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "ja-JP")
			},
			want: "es",
		},
		{
			name: "malformed header falls back",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", ";;;")
			},
			want: "es",
		},
		{
			name: "default",
			want: "es",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.setup != nil {
				tc.setup(req)
			}
			if got := detectLocale(req, matcher, supported); got != tc.want {
				t.Fatalf("detectLocale() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSupportedLocales(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "es", want: []string{"es", "en"}},
		{in: "en-GB", want: []string{"en", "es"}},
		{in: "fr", want: []string{"fr", "es", "en"}},
		{in: "", want: []string{"es", "en"}},
	}
	for _, tc := range tests {
		got := SupportedLocales(tc.in)
		if len(got) != len(tc.want) {
			t.Fatalf("SupportedLocales(%q) = %v", tc.in, got)
		}
		for i := range got {
			if baseCode(got[i]) != tc.want[i] {
				t.Fatalf("SupportedLocales(%q) = %v", tc.in, got)
			}
		}
	}
}

func TestLocaleMiddleware(t *testing.T) {
	var seen string
	h := Locale(SupportedLocales("es"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = LocaleFromContext(r.Context(), "")
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/tennis-transform", nil)
	req.Header.Set("Accept-Language", "en-US")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "en" {
		t.Fatalf("locale in context = %q", seen)
	}
	if rec.Header().Get("Content-Language") != "en" {
		t.Fatalf("Content-Language = %q", rec.Header().Get("Content-Language"))
	}
}

func TestLocaleFromContext(t *testing.T) {
	ctx := context.Background()
	if got := LocaleFromContext(ctx, "es"); got != "es" {
		t.Fatalf("LocaleFromContext() default = %q, want %q", got, "es")
	}
	ctx = context.WithValue(ctx, LocaleKey, "en")
	if got := LocaleFromContext(ctx, "es"); got != "en" {
		t.Fatalf("LocaleFromContext() with value = %q, want %q", got, "en")
	}
}
