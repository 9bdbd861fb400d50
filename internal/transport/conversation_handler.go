package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"furniture-assistant/internal/conversation"
	"furniture-assistant/internal/middleware"
	"furniture-assistant/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxWait bounds the long-poll of GET /api/conversations/{id}
const MaxWait = 30 * time.Second

// Reasons reported when a message is ignored
const (
	ReasonEmptyInput   = "empty_input"
	ReasonReplyPending = "reply_pending"
)

// MessageRequest represents the message submission payload
type MessageRequest struct {
	Text *string `json:"text" validate:"required,max=4000"`
}

// IgnoredResponse reports a submission that left the transcript unchanged
type IgnoredResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason"`
}

// ConversationHandler handles HTTP requests for assistant conversations
type ConversationHandler struct {
	conversationService service.ConversationService
	logger              *zap.Logger
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(conversationService service.ConversationService, logger *zap.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
		logger:              logger,
	}
}

// RegisterRoutes registers conversation routes; limit wraps message posts when non-nil
func (h *ConversationHandler) RegisterRoutes(r chi.Router, limit ...func(http.Handler) http.Handler) {
	r.Route("/api/conversations", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Delete("/{id}", h.Delete)
		r.With(limit...).Post("/{id}/messages", h.PostMessage)
	})
}

// Create starts a new conversation
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	transcript, err := h.conversationService.Create(r.Context())
	if err != nil {
		h.logger.Error("Failed to create conversation", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create conversation")
		return
	}

	w.Header().Set("Location", "/api/conversations/"+transcript.SessionID.String())
	middleware.RespondWithJSON(w, http.StatusCreated, transcript)
}

// Get returns the transcript, optionally long-polling until no reply is pending
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var wait time.Duration
	if raw := r.URL.Query().Get("wait"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed < 0 {
			middleware.RespondWithErrorDetails(w, http.StatusBadRequest, "invalid wait duration",
				map[string]interface{}{"wait": raw})
			return
		}
		wait = min(parsed, MaxWait)
	}

	var (
		transcript conversation.Transcript
		err        error
	)
	if wait > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), wait)
		transcript, err = h.conversationService.Wait(ctx, id)
		cancel()
	} else {
		transcript, err = h.conversationService.Transcript(r.Context(), id)
	}

	if err != nil {
		h.respondServiceError(w, id, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, transcript)
}

// PostMessage submits a user message
func (h *ConversationHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req MessageRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Message validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turn, err := h.conversationService.Submit(r.Context(), id, *req.Text)
	switch {
	case err == nil:
		middleware.RespondWithJSON(w, http.StatusAccepted, turn)
	case errors.Is(err, conversation.ErrEmptyInput):
		middleware.RespondWithJSON(w, http.StatusOK, IgnoredResponse{Reason: ReasonEmptyInput})
	case errors.Is(err, conversation.ErrReplyPending):
		middleware.RespondWithJSON(w, http.StatusOK, IgnoredResponse{Reason: ReasonReplyPending})
	default:
		h.respondServiceError(w, id, err)
	}
}

// Delete closes the conversation and cancels any reply in flight
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.conversationService.Close(r.Context(), id); err != nil {
		h.respondServiceError(w, id, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationHandler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		// Unparseable ids cannot name a session
		middleware.RespondWithError(w, http.StatusNotFound, "conversation not found")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ConversationHandler) respondServiceError(w http.ResponseWriter, id uuid.UUID, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "conversation not found")
	case errors.Is(err, conversation.ErrSessionClosed):
		middleware.RespondWithError(w, http.StatusGone, "conversation is closed")
	case errors.Is(err, context.Canceled):
		// client went away
	default:
		h.logger.Error("Conversation request failed", zap.String("session_id", id.String()), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "conversation request failed")
	}
}
