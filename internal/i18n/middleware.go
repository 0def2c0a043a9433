package i18n

import "net/http"

// Middleware puts a localizer for lang into every request context.
func Middleware(lang string) func(http.Handler) http.Handler {
	loc := NewLocalizer(lang)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithLocalizer(r.Context(), loc)))
		})
	}
}
