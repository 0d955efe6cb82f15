package handlers

import (
	"log/slog"
	"net/http"

	"github.com/cap-ma/helperinfo/internal/config"
	"github.com/cap-ma/helperinfo/internal/middleware"
	"github.com/cap-ma/helperinfo/internal/validation"
)

// Server carries the shared dependencies of the cross-feature endpoints
// (health, admin session management).
type Server struct {
	Cfg *config.Config
	Val *validation.Validator
	Log *slog.Logger
}

func (s *Server) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return s.Log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return s.Log.With(slog.String("request_id", id))
	}
	return s.Log
}
