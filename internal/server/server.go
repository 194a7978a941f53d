package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"researchlens/internal/domain"
	"researchlens/internal/ports"
	"researchlens/internal/usecase"
)

const sessionCookie = "session_id"

// Server exposes the research pipeline over HTTP. It owns request parsing,
// the anonymous session cookie, and best-effort history persistence; the
// pipeline itself stays oblivious to all of it.
type Server struct {
	agent    *usecase.Agent
	model    ports.ChatModel
	articles ports.ArticleSource
	history  ports.HistoryRepository
	logger   *slog.Logger
}

// New wires the HTTP layer. history may be nil when persistence is disabled.
func New(agent *usecase.Agent, model ports.ChatModel, articles ports.ArticleSource, history ports.HistoryRepository, logger *slog.Logger) *Server {
	return &Server{
		agent:    agent,
		model:    model,
		articles: articles,
		history:  history,
		logger:   logger,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/api/research", s.handleResearch)
	r.Get("/api/history", s.handleHistory)
	r.Get("/api/health", s.handleHealth)

	return r
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	var req domain.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	digest, err := s.agent.Run(r.Context(), req)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		s.logger.Error("research run failed", "error", err)
		writeError(w, http.StatusInternalServerError, "research failed")
		return
	}

	sessionID := s.ensureSession(w, r)
	s.saveHistory(r.Context(), sessionID, req, digest)

	writeJSON(w, http.StatusOK, digest)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, map[string]any{"items": []domain.HistoryEntry{}})
		return
	}

	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		writeJSON(w, http.StatusOK, map[string]any{"items": []domain.HistoryEntry{}})
		return
	}

	entries, err := s.history.ListRecent(r.Context(), ports.OwnerKey{SessionID: cookie.Value}, 20)
	if err != nil {
		s.logger.Error("list history failed", "error", err)
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": entries})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	llmOK := s.model.TestConnection(ctx) == nil
	status := "ok"
	if !llmOK {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":        status,
		"llm":           llmOK,
		"articleSource": s.articles.Available(),
	})
}

// ensureSession reads the anonymous session cookie, minting one when absent,
// so history can be grouped without accounts.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	sessionID := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((7 * 24 * time.Hour).Seconds()),
	})
	return sessionID
}

func (s *Server) saveHistory(ctx context.Context, sessionID string, req domain.SearchRequest, digest domain.Digest) {
	if s.history == nil {
		return
	}

	entry := domain.HistoryEntry{
		ID:            uuid.NewString(),
		SessionID:     sessionID,
		Topic:         digest.Topic,
		Keywords:      req.Keywords,
		TimeframeDays: digest.TimeframeDays,
		PaperCount:    digest.Papers.Count,
		ArticleCount:  digest.Articles.Count,
		Result:        &digest,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.history.Save(ctx, entry); err != nil {
		s.logger.Warn("history save failed", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
