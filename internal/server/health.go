package server

import (
	"heist-bot/internal/middleware"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// NewHealthHandler serves the keep-alive endpoint polled by the hosting
// platform's uptime checks.
func NewHealthHandler(logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	alive := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = w.Write([]byte("Bot is running!"))
		}
	}
	for _, path := range []string{"/{$}", "/health"} {
		mux.HandleFunc("GET "+path, alive)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
	})

	return middleware.RequestID(logger)(c.Handler(mux))
}
