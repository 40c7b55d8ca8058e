package api

import (
	"net/http"
	"time"

	agentapi "github.com/futig/docchat/internal/api/agent"
	chatapi "github.com/futig/docchat/internal/api/chat"
	"github.com/futig/docchat/internal/api/docs"
	"github.com/futig/docchat/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the HTTP router. A nil handler leaves its
// routes unregistered.
func SetupRouter(chatHandler *chatapi.Handler, agentHandler *agentapi.Handler, timeout time.Duration, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)        // Recover from panics
	r.Use(chimiddleware.RequestID)        // Add request ID
	r.Use(middleware.Logger(logger))      // Log requests
	r.Use(middleware.CORS)                // Handle CORS
	r.Use(chimiddleware.Timeout(timeout)) // Model calls can be slow

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	if chatHandler != nil {
		chatapi.RegisterRoutes(r, chatHandler)
	}
	if agentHandler != nil {
		agentapi.RegisterRoutes(r, agentHandler)
	}

	return r
}
