package entity

import "time"

// RefusalMessage is the exact reply the model is instructed to give for out-of-scope questions.
const RefusalMessage = "I'm sorry, but I don't have information on that. Please ask something related to the document."

// ThinkingMessage is the placeholder shown while a turn is being processed.
const ThinkingMessage = "thinking..."

// ReplyKind discriminates the outcome of a grounded response.
type ReplyKind string

const (
	ReplyAnswer  ReplyKind = "answer"
	ReplyRefusal ReplyKind = "refusal"
	ReplyError   ReplyKind = "error"
)

// Reply is the result of one grounded response cycle.
type Reply struct {
	Kind      ReplyKind
	Query     string
	Text      string
	Documents RetrievalResult
	Err       error
}

// Transcript returns the record persisted for this reply.
func (r *Reply) Transcript() *Transcript {
	return &Transcript{
		Query:     r.Query,
		Response:  r.Text,
		Documents: r.Documents,
	}
}

// Transcript is the record persisted after every grounded response.
type Transcript struct {
	Query     string          `json:"query"`
	Response  string          `json:"response"`
	Documents RetrievalResult `json:"documents"`
}

// Starter is a predefined prompt offered when a chat starts.
type Starter struct {
	Label   string `json:"label"`
	Message string `json:"message"`
}

// ChatMode selects which front-end pipeline serves messages.
type ChatMode string

const (
	ChatModeRAG   ChatMode = "rag"
	ChatModeAgent ChatMode = "agent"
)

// Session is the per-conversation state owned by the application.
type Session struct {
	ID       string   `json:"id"`
	Mode     ChatMode `json:"mode"`
	History  []string `json:"history"`
	ThreadID string   `json:"thread_id,omitempty"`
	// Transcript is the last grounded response of the session.
	Transcript *Transcript `json:"transcript,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// ResultFormat is an export format for transcripts.
type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatPDF      ResultFormat = "pdf"
	FormatDOCX     ResultFormat = "docx"
)

// AgentReply is the final result of one agent proxy turn.
type AgentReply struct {
	ThreadID string
	Text     string
}
