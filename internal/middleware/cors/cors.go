// Package cors handles cross-origin request headers and preflights.
package cors

import "net/http"

// Config holds CORS configuration
type Config struct {
	AllowOrigin  string
	AllowMethods string
	AllowHeaders string
}

// DefaultConfig allows any origin. The bearer token is the access
// control; the origin list is not.
func DefaultConfig() Config {
	return Config{
		AllowOrigin:  "*",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
		AllowHeaders: "Content-Type, Authorization",
	}
}

// Middleware sets CORS headers on every response and answers preflight
// OPTIONS requests with 200 and an empty body.
func Middleware(config Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers := w.Header()
			headers.Set("Access-Control-Allow-Origin", config.AllowOrigin)
			headers.Set("Access-Control-Allow-Methods", config.AllowMethods)
			headers.Set("Access-Control-Allow-Headers", config.AllowHeaders)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
