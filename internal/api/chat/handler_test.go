package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsecase struct {
	sessions   map[string]*entity.Session
	reply      *entity.Reply
	replyErr   error
	transcript *entity.Transcript
	docs       entity.RetrievalResult
	matches    []entity.Match
}

func newFakeUsecase() *fakeUsecase {
	return &fakeUsecase{sessions: map[string]*entity.Session{}}
}

func (f *fakeUsecase) StartChat(_ context.Context, id string) (*entity.Session, error) {
	s := &entity.Session{ID: id, Mode: entity.ChatModeRAG, History: []string{}}
	f.sessions[id] = s
	return s, nil
}

func (f *fakeUsecase) HandleMessage(_ context.Context, id, text string) (*entity.Reply, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	s.History = append(s.History, text)
	return f.reply, f.replyErr
}

func (f *fakeUsecase) GetSession(_ context.Context, id string) (*entity.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeUsecase) Transcript(_ context.Context, id string) (*entity.Transcript, error) {
	if _, ok := f.sessions[id]; !ok {
		return nil, entity.ErrSessionNotFound
	}
	if f.transcript == nil {
		return nil, entity.ErrNoTranscript
	}
	return f.transcript, nil
}

func (f *fakeUsecase) Search(context.Context, string) (entity.RetrievalResult, []entity.Match, error) {
	return f.docs, f.matches, nil
}

func newRouter(uc ChatUsecase) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(uc, validator.New(0), []entity.Starter{{Label: "Hi", Message: "Hello"}}))
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_StartChat(t *testing.T) {
	uc := newFakeUsecase()
	h := newRouter(uc)

	rec := do(t, h, http.MethodPost, "/chat/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var dto entity.SessionDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.NotEmpty(t, dto.ID)
	assert.Equal(t, entity.ChatModeRAG, dto.Mode)

	rec = do(t, h, http.MethodPost, "/chat/sessions", `{"session_id":"my-session"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, uc.sessions, "my-session")

	rec = do(t, h, http.MethodPost, "/chat/sessions", `{"session_id":"bad id"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_SendMessage(t *testing.T) {
	uc := newFakeUsecase()
	uc.sessions["s1"] = &entity.Session{ID: "s1"}
	uc.reply = &entity.Reply{Kind: entity.ReplyRefusal, Query: "weather?", Text: entity.RefusalMessage}
	h := newRouter(uc)

	rec := do(t, h, http.MethodPost, "/chat/sessions/s1/messages", `{"message":"What's the weather today?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var dto entity.ChatReplyDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "s1", dto.SessionID)
	assert.Equal(t, "refusal", dto.Kind)
	assert.Equal(t, entity.RefusalMessage, dto.Response)
}

func TestHandler_SendMessageErrors(t *testing.T) {
	uc := newFakeUsecase()
	uc.sessions["s1"] = &entity.Session{ID: "s1"}
	uc.replyErr = fmt.Errorf("generate response: %w", entity.ErrUpstream)
	h := newRouter(uc)

	rec := do(t, h, http.MethodPost, "/chat/sessions/s1/messages", `{"message":"hi"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body entity.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Message, "upstream error")

	rec = do(t, h, http.MethodPost, "/chat/sessions/nope/messages", `{"message":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/chat/sessions/s1/messages", `{"message":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/chat/sessions/s1/messages", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_GetTranscript(t *testing.T) {
	uc := newFakeUsecase()
	uc.sessions["s1"] = &entity.Session{ID: "s1"}
	h := newRouter(uc)

	rec := do(t, h, http.MethodGet, "/chat/sessions/s1/transcript", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	uc.transcript = &entity.Transcript{Query: "q", Response: "a", Documents: entity.RetrievalResult{}}

	rec = do(t, h, http.MethodGet, "/chat/sessions/s1/transcript?format=markdown", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "transcript-s1.md")
	assert.Contains(t, rec.Body.String(), "## Query\n\nq")

	rec = do(t, h, http.MethodGet, "/chat/sessions/s1/transcript?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_SearchAndStarters(t *testing.T) {
	uc := newFakeUsecase()
	uc.docs = entity.RetrievalResult{"c1": "Topic\nContent"}
	uc.matches = []entity.Match{{ContentID: "c1", Similarity: 0.8, Shard: "a.json"}}
	h := newRouter(uc)

	rec := do(t, h, http.MethodPost, "/chat/search", `{"query":"topic"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var dto entity.SearchResultDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "Topic\nContent", dto.Documents["c1"])
	require.Len(t, dto.Matches, 1)
	assert.Equal(t, 0.8, dto.Matches[0].Similarity)

	rec = do(t, h, http.MethodGet, "/starters", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"starters":[{"label":"Hi","message":"Hello"}]}`, rec.Body.String())
}
