package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
	"github.com/mateovilla/clickshop-backend/pkg/config"
)

// CORS returns middleware allowing the configured frontend origin plus local
// development hosts.
func CORS(frontend config.FrontendConfig) func(http.Handler) http.Handler {
	origins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
	}
	if base := strings.TrimRight(frontend.BaseURL, "/"); base != "" {
		origins = append(origins, base)
	}

	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
