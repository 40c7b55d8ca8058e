package handlers

import (
	"context"
	"strconv"
)

// Message represents a normalized Telegram message
type Message struct {
	ChatID    int64
	UserID    int64
	MessageID int
	Text      string
}

// Handler serves one chat mode
type Handler interface {
	// Start begins a new chat in the conversation
	Start(ctx context.Context, msg *Message) error

	// Handle processes a user message
	Handle(ctx context.Context, msg *Message) error
}

// SessionKey maps a Telegram chat to its session id
func SessionKey(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}
