package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/pkg/logger"
	"github.com/futig/docchat/internal/pkg/response"
	"github.com/futig/docchat/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const eventStreamType = "text/event-stream"

type Handler struct {
	usecase   AgentUsecase
	validator *validator.Validator
}

func NewHandler(usecase AgentUsecase, validator *validator.Validator) *Handler {
	return &Handler{
		usecase:   usecase,
		validator: validator,
	}
}

// StartChat handles POST /agent/sessions - create a session bound to a remote thread
func (h *Handler) StartChat(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "StartAgentChat")

	var req entity.StartChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateStartChat(&req); err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "validation failed", err)
		return
	}

	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	session, err := h.usecase.StartChat(ctx, req.SessionID)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	response.Created(w, toSessionDTO(session))
}

// GetSession handles GET /agent/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.WithSession(r.Context(), sessionID, "GetAgentSession")

	session, err := h.usecase.GetSession(ctx, sessionID)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	response.Success(w, toSessionDTO(session))
}

// SendMessage handles POST /agent/sessions/{id}/messages. With
// "Accept: text/event-stream" the run is streamed as server-sent events.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.WithSession(r.Context(), sessionID, "SendAgentMessage")

	var req entity.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateSendMessage(&req); err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "validation failed", err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), eventStreamType) {
		h.streamMessage(w, r.WithContext(ctx), sessionID, req.Message)
		return
	}

	reply, err := h.usecase.HandleMessage(ctx, sessionID, req.Message, nil)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	response.Success(w, toReplyDTO(sessionID, reply))
}

func (h *Handler) streamMessage(w http.ResponseWriter, r *http.Request, sessionID, text string) {
	ctx := r.Context()
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", eventStreamType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(event string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
			return err
		}
		return rc.Flush()
	}

	if err := send("thinking", map[string]string{"text": entity.ThinkingMessage}); err != nil {
		ctxzap.Warn(ctx, "client went away before streaming", zap.Error(err))
		return
	}

	reply, err := h.usecase.HandleMessage(ctx, sessionID, text, func(delta string) error {
		return send("delta", map[string]string{"text": delta})
	})
	if err != nil {
		ctxzap.Error(ctx, "agent turn failed", zap.Error(err))
		if err := send("error", entity.ErrorResponse{Error: "Error: " + err.Error()}); err != nil {
			ctxzap.Warn(ctx, "failed to write error event", zap.Error(err))
		}
		return
	}

	if err := send("done", toReplyDTO(sessionID, reply)); err != nil {
		ctxzap.Warn(ctx, "failed to write done event", zap.Error(err))
	}
}
