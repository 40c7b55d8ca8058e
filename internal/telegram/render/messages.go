// Package render holds the user-facing texts of the Telegram bot.
package render

import (
	"strings"
	"unicode/utf16"
)

// MaxMessageLength is the Telegram limit for one text message, in UTF-16 code units.
const MaxMessageLength = 4096

const (
	MsgWelcome = `👋 Hi! Ask me anything about the documents I have indexed.

Pick one of the suggestions below or just type your question.`

	MsgAgentWelcome = `👋 Hi! You are talking to the hosted agent. Send a message to start.`

	MsgHelp = `🤖 Commands:

/start - start a new chat (clears the history)
/transcript - download the last answer with its source documents
/help - show this help`

	MsgEmptyReply = "Error: No response from the model."

	MsgNoTranscript      = "There is no answer to export yet. Ask a question first."
	MsgNoTranscriptAgent = "Transcripts are only available in document chat mode."

	ErrGeneric        = "❌ Something went wrong. Please try again or press /start"
	ErrUnknownCommand = "❌ Unknown command. Use /help"
	ErrNoSession      = "❌ The chat has expired. Press /start"
	ErrBadCallback    = "❌ Unknown option"

	MsgRateLimitFirst  = "⚠️ Too many requests. Please wait a moment."
	MsgRateLimitSecond = "⚠️ Rate limit exceeded. Wait about 30 seconds before trying again."
	MsgRateLimitHard   = "🛑 You are sending messages too often. Please wait a minute."
)

// TurnError is the visible text of a failed chat turn.
func TurnError(err error) string {
	return Truncate("Error: " + err.Error())
}

// ReplyText is the final text of a turn. Telegram rejects empty messages.
func ReplyText(text string) string {
	if strings.TrimSpace(text) == "" {
		return MsgEmptyReply
	}
	return text
}

// Truncate cuts text to the Telegram message limit.
func Truncate(text string) string {
	if utf16Len(text) <= MaxMessageLength {
		return text
	}

	limit := MaxMessageLength - 1 // the ellipsis
	n := 0
	for i, r := range text {
		w := utf16.RuneLen(r)
		if n+w > limit {
			return text[:i] + "…"
		}
		n += w
	}
	return text
}

func utf16Len(text string) int {
	n := 0
	for _, r := range text {
		n += utf16.RuneLen(r)
	}
	return n
}

// RateLimitWarning escalates with the number of warnings already sent.
func RateLimitWarning(count int) string {
	switch {
	case count <= 1:
		return MsgRateLimitFirst
	case count == 2:
		return MsgRateLimitSecond
	default:
		return MsgRateLimitHard
	}
}
