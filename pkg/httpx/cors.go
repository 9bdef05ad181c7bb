package httpx

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows the single-page app origins to call the API with credentials
// (the session and device-trust cookies). An empty list disables CORS
// headers entirely.
func CORS(allowedOrigins []string, extraHeaders ...string) Middleware {
	if len(allowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   append([]string{"Origin", "Content-Type", "X-Request-ID"}, extraHeaders...),
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           600,
	})
	return c.Handler
}
