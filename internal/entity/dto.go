package entity

import "time"

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// StartChatRequest creates a new chat session. ID is optional.
type StartChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// SendMessageRequest carries one user message.
type SendMessageRequest struct {
	Message string `json:"message"`
}

// SessionDTO is the API view of a session.
type SessionDTO struct {
	ID        string    `json:"id"`
	Mode      ChatMode  `json:"mode"`
	History   []string  `json:"history"`
	ThreadID  string    `json:"thread_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatReplyDTO is the API view of a RAG turn.
type ChatReplyDTO struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
	Query     string `json:"query,omitempty"`
	Response  string `json:"response"`
}

// AgentReplyDTO is the API view of an agent turn.
type AgentReplyDTO struct {
	SessionID string `json:"session_id"`
	ThreadID  string `json:"thread_id"`
	Response  string `json:"response"`
}

// SearchResultDTO is the API view of a retrieval-only request.
type SearchResultDTO struct {
	Query     string          `json:"query"`
	Documents RetrievalResult `json:"documents"`
	Matches   []Match         `json:"matches"`
}

// SearchRequest asks for retrieval results only.
type SearchRequest struct {
	Query string `json:"query"`
}

// StartersDTO lists the prompts offered when a chat starts.
type StartersDTO struct {
	Starters []Starter `json:"starters"`
}
