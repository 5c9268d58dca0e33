package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// NewCORS builds the CORS policy for the browser frontend. Allowed origins
// come from configuration; everything else is fixed since the API only
// serves its own dashboard.
func NewCORS(allowedOrigins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
