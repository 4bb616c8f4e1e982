// Package httpapi is the webhook ingress: it accepts upstream callbacks,
// filters them, and maps forwarder results back onto HTTP responses.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/faisolarifin/custom-gateway/internal/alert"
	"github.com/faisolarifin/custom-gateway/internal/bank"
)

// defaultMaxBodyBytes bounds how much of an inbound request body is read.
const defaultMaxBodyBytes = 4 << 20

// Server holds dependencies for the ingress handlers.
type Server struct {
	Forwarder    bank.Forwarder
	Alerter      alert.Notifier
	Logger       zerolog.Logger
	WebhookPath  string
	MaxBodyBytes int64
}

// statusResponse is the upstream-facing envelope for ignore and error paths.
type statusResponse struct {
	StatusCode string `json:"StatusCode"`
	StatusDesc string `json:"StatusDesc"`
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error().Err(err).Msg("failed to encode json response")
	}
}

func (s *Server) maxBodyBytes() int64 {
	if s.MaxBodyBytes > 0 {
		return s.MaxBodyBytes
	}
	return defaultMaxBodyBytes
}

// Routes creates the HTTP router. The webhook path serves both the health
// probe (GET) and webhook processing (POST); everything else is 404.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get(s.WebhookPath, s.handleHealth)
	r.Post(s.WebhookPath, s.handleWebhook)

	notFound := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	s.Logger.Info().Str("webhookPath", s.WebhookPath).Msg("HTTP routes registered")
	return r
}
