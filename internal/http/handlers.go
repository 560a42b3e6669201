// Package http exposes the JSON API over the conversation core. Handlers
// stay thin: request/response mapping only, all decisions live in core.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"medagent/internal/core"
	"medagent/pkg"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// AlertSource streams IDs of sessions escalating to high urgency.
type AlertSource interface {
	Listen(ctx context.Context) (<-chan string, error)
}

// Pinger reports record-store liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server bundles the dependencies required by the HTTP handlers and
// implements http.Handler.
type Server struct {
	conv            *core.Conversations
	sums            *core.Summaries
	store           Pinger
	alerts          AlertSource
	historyLimit    int
	modelConfigured bool
	log             zerolog.Logger
	router          chi.Router
}

// NewServer constructs the API server. alerts may be nil when no
// escalation channel is configured.
func NewServer(conv *core.Conversations, sums *core.Summaries, store Pinger, alerts AlertSource, historyLimit int, modelConfigured bool, log zerolog.Logger) *Server {
	s := &Server{
		conv:            conv,
		sums:            sums,
		store:           store,
		alerts:          alerts,
		historyLimit:    historyLimit,
		modelConfigured: modelConfigured,
		log:             log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(allowAll)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Route("/chat", func(r chi.Router) {
			r.Post("/session", s.handleCreateSession)
			r.Get("/session/{sessionID}", s.handleGetSession)
			r.Post("/profile/{sessionID}", s.handleSaveProfile)
			r.Get("/profile/{sessionID}", s.handleGetProfile)
			r.Get("/history/{sessionID}", s.handleHistory)
			r.Post("/message", s.handleSendMessage)
			r.Post("/welcome/{sessionID}", s.handleWelcome)
			r.Post("/close/{sessionID}", s.handleClose)
			r.Get("/summary/{sessionID}", s.handleSummary)
			r.Get("/alerts", s.handleAlerts)
		})
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// allowAll is a permissive CORS middleware; the frontend is served from a
// different origin.
func allowAll(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Msg("encode response")
	}
}

// writeError maps core errors to status codes. Internal failures are
// logged with detail but surface as a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrNotFound) {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"detail": "not found"})
		return
	}
	s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	s.writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "internal server error"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserProfileID *string `json:"user_profile_id"`
	}
	// The body is optional; ignore decode errors from an empty body.
	_ = json.NewDecoder(r.Body).Decode(&body)

	sess, err := s.conv.CreateSession(r.Context(), body.UserProfileID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.conv.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var upd pkg.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid body"})
		return
	}
	profile, err := s.conv.SaveProfile(r.Context(), chi.URLParam(r, "sessionID"), &upd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.conv.Profile(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := s.historyLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	msgs, err := s.conv.History(r.Context(), chi.URLParam(r, "sessionID"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []pkg.Message{}
	}
	s.writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req pkg.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid body"})
		return
	}
	if req.SessionID == "" || strings.TrimSpace(req.Message) == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "session_id and message are required"})
		return
	}
	resp, err := s.conv.SendTurn(r.Context(), req.SessionID, req.Message)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	msg, err := s.conv.Welcome(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.conv.Close(r.Context(), sessionID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message":    "session closed",
		"session_id": sessionID,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.sums.Build(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if s.modelConfigured {
		status["ai_service"] = "configured"
	} else {
		status["ai_service"] = "not_configured"
	}
	if err := s.store.Ping(r.Context()); err != nil {
		s.log.Warn().Err(err).Msg("health check ping failed")
		status["status"] = "unhealthy"
		status["database"] = "disconnected"
		s.writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

// handleAlerts streams high-urgency session IDs as Server-Sent Events.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if s.alerts == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"detail": "alerts not configured"})
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "streaming unsupported"})
		return
	}

	ctx := r.Context()
	events, err := s.alerts.Listen(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case sessionID, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(map[string]string{
				"type":       "urgency_alert",
				"session_id": sessionID,
			})
			if err != nil {
				continue
			}
			if _, err := io.WriteString(w, "data: "+string(payload)+"\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
