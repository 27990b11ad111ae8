package server

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig controls the CORS headers applied to every route.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// DefaultCORSConfig permits all origins on all routes, which is the
// proxy's posture: callers are browser-side playgrounds and agent
// frameworks running anywhere.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "x-api-key", "X-Request-ID"},
		MaxAge:         3600,
	}
}

// CORSMiddleware applies cfg to every request and short-circuits preflight
// OPTIONS requests with 204 before routing, so preflights never hit auth.
func CORSMiddleware(cfg CORSConfig) func(http.Handler) http.Handler {
	allowMethods := strings.Join(cfg.AllowedMethods, ", ")
	allowHeaders := strings.Join(cfg.AllowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(origin, cfg.AllowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", allowOriginValue(origin, cfg.AllowedOrigins))
				w.Header().Set("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", allowMethods)
				w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
				if cfg.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

// allowOriginValue echoes "*" when everything is allowed, otherwise the
// matched origin.
func allowOriginValue(origin string, allowed []string) string {
	for _, a := range allowed {
		if a == "*" {
			return "*"
		}
	}
	return origin
}
