package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/pkg/formatter"
	"github.com/futig/docchat/internal/pkg/logger"
	"github.com/futig/docchat/internal/pkg/response"
	"github.com/futig/docchat/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase   ChatUsecase
	validator *validator.Validator
	formatter *formatter.Factory
	starters  []entity.Starter
}

func NewHandler(
	usecase ChatUsecase,
	validator *validator.Validator,
	starters []entity.Starter,
) *Handler {
	return &Handler{
		usecase:   usecase,
		validator: validator,
		formatter: formatter.NewFactory(),
		starters:  starters,
	}
}

// GetStarters handles GET /starters
func (h *Handler) GetStarters(w http.ResponseWriter, r *http.Request) {
	response.Success(w, entity.StartersDTO{Starters: h.starters})
}

// StartChat handles POST /chat/sessions - start or restart a chat
func (h *Handler) StartChat(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "StartChat")

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

	ctxzap.Info(ctx, "chat started", zap.String("session_id", session.ID))

	response.Created(w, toSessionDTO(session))
}

// GetSession handles GET /chat/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.WithSession(r.Context(), sessionID, "GetSession")

	session, err := h.usecase.GetSession(ctx, sessionID)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	response.Success(w, toSessionDTO(session))
}

// SendMessage handles POST /chat/sessions/{id}/messages - run one RAG turn
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.WithSession(r.Context(), sessionID, "SendMessage")

	var req entity.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateSendMessage(&req); err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "validation failed", err)
		return
	}

	reply, err := h.usecase.HandleMessage(ctx, sessionID, req.Message)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "chat turn completed", zap.String("kind", string(reply.Kind)))

	response.Success(w, toReplyDTO(sessionID, reply))
}

// GetTranscript handles GET /chat/sessions/{id}/transcript?format=markdown|pdf|docx
func (h *Handler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.WithSession(r.Context(), sessionID, "GetTranscript")

	format, err := h.validator.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "invalid format parameter", err)
		return
	}

	ctx = logger.AddFields(ctx, zap.String("format", string(format)))

	transcript, err := h.usecase.Transcript(ctx, sessionID)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	fmtr, err := h.formatter.Create(format)
	if err != nil {
		response.Error(ctx, w, http.StatusNotImplemented, "format not implemented", err)
		return
	}

	body, err := fmtr.Format(transcript)
	if err != nil {
		response.Error(ctx, w, http.StatusInternalServerError, "failed to format transcript", err)
		return
	}

	w.Header().Set("Content-Type", fmtr.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"transcript-%s%s\"", sessionID, fmtr.FileExtension()))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// Search handles POST /chat/search - retrieval only, no model answer
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Search")

	var req entity.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateMessage(req.Query); err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "validation failed", err)
		return
	}

	docs, matches, err := h.usecase.Search(ctx, req.Query)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	if docs == nil {
		docs = entity.RetrievalResult{}
	}
	if matches == nil {
		matches = []entity.Match{}
	}

	response.Success(w, entity.SearchResultDTO{
		Query:     req.Query,
		Documents: docs,
		Matches:   matches,
	})
}
