package handlers

import (
	"context"

	"github.com/futig/docchat/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotAPI is the subset of *tgbotapi.BotAPI the handlers use
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// ChatUsecase runs RAG chat turns for a session
type ChatUsecase interface {
	StartChat(ctx context.Context, sessionID string) (*entity.Session, error)
	HandleMessage(ctx context.Context, sessionID, text string) (*entity.Reply, error)
	Transcript(ctx context.Context, sessionID string) (*entity.Transcript, error)
}

// AgentUsecase proxies turns to the hosted agent
type AgentUsecase interface {
	StartChat(ctx context.Context, sessionID string) (*entity.Session, error)
	HandleMessage(ctx context.Context, sessionID, text string, onDelta func(delta string) error) (*entity.AgentReply, error)
}
