package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	commonerrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/validation"
	"shopping-assistant/internal/models"
)

const maxChatBodyBytes = 64 << 10

const chatRequestSchema = `{
  "type": "object",
  "required": ["message"],
  "properties": {
    "message":    {"type": "string", "minLength": 1, "maxLength": 2000},
    "session_id": {"type": ["string", "null"], "maxLength": 128}
  }
}`

var chatValidator = validation.MustValidator(chatRequestSchema)

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type ChatResponse struct {
	Response        string                   `json:"response"`
	Recommendations []models.CatalogEntry    `json:"recommendations"`
	SessionID       string                   `json:"session_id"`
	UsedWebSearch   bool                     `json:"used_web_search"`
	Intent          *models.ExtractionResult `json:"user_intent"`
	IntentAnalysis  *models.UserIntent       `json:"intent_analysis,omitempty"`
	Timestamp       time.Time                `json:"timestamp"`
}

type SessionResponse struct {
	ID           string                    `json:"id"`
	CreatedAt    time.Time                 `json:"created_at"`
	LastActivity time.Time                 `json:"last_activity"`
	History      []models.ConversationTurn `json:"history"`
	Preferences  map[string]interface{}    `json:"preferences"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxChatBodyBytes+1))
	if err != nil {
		s.errHandler.HandleHTTPError(w, r, commonerrors.NewInvalidInputError("unreadable body"))
		return
	}
	if len(raw) > maxChatBodyBytes {
		s.errHandler.HandleHTTPError(w, r, commonerrors.NewInvalidInputError("body too large"))
		return
	}

	if result := chatValidator.ValidateJSON(raw); !result.Valid {
		s.errHandler.HandleHTTPError(w, r, commonerrors.NewInvalidInputError(result.Error()))
		return
	}

	var req ChatRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.errHandler.HandleHTTPError(w, r, commonerrors.NewInvalidInputError(err.Error()))
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		s.errHandler.HandleHTTPError(w, r, commonerrors.NewInvalidInputError("message: must not be blank"))
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp := s.processor.Process(ctx, message, strings.TrimSpace(req.SessionID))
	writeJSON(w, http.StatusOK, ChatResponse{
		Response:        resp.ResponseText,
		Recommendations: resp.Recommendations,
		SessionID:       resp.SessionID,
		UsedWebSearch:   resp.UsedAugmentation,
		Intent:          resp.Intent,
		IntentAnalysis:  resp.UserIntent,
		Timestamp:       s.now().UTC(),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	session, ok, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		s.errHandler.HandleHTTPError(w, r, commonerrors.NewInternalError(err))
		return
	}
	if !ok {
		s.errHandler.HandleHTTPError(w, r, commonerrors.NewSessionNotFoundError(id))
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{
		ID:           session.ID,
		CreatedAt:    session.CreatedAt,
		LastActivity: session.LastActivity,
		History:      session.History,
		Preferences:  session.Preferences,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.errHandler.HandleHTTPError(w, r, commonerrors.NewInternalError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
