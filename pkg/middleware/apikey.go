package middleware

import (
	"net/http"
	"strings"
)

// KeyValidator accepts or rejects a presented API key.
type KeyValidator interface {
	Validate(r *http.Request, key string) error
}

// KeyValidatorFunc adapts a function to KeyValidator.
type KeyValidatorFunc func(r *http.Request, key string) error

func (f KeyValidatorFunc) Validate(r *http.Request, key string) error {
	return f(r, key)
}

// RequireKey rejects requests without a valid API key. Keys are read from
// Authorization: Bearer <key>, then X-API-Key.
func RequireKey(v KeyValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractAPIKey(r)
			if key == "" {
				writeAuthError(w, "missing api key")
				return
			}
			if err := v.Validate(r, key); err != nil {
				writeAuthError(w, "invalid api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractAPIKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
