// Package validator checks API and bot requests before they reach use cases.
package validator

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/futig/docchat/internal/entity"
)

const (
	DefaultMaxMessageLength = 8000
	maxSessionIDLength      = 128
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9:_-]+$`)

type Validator struct {
	maxMessageLength int
}

func New(maxMessageLength int) *Validator {
	if maxMessageLength <= 0 {
		maxMessageLength = DefaultMaxMessageLength
	}
	return &Validator{maxMessageLength: maxMessageLength}
}

// ValidateStartChat accepts an empty session id, which means "generate one"
func (v *Validator) ValidateStartChat(req *entity.StartChatRequest) error {
	if req.SessionID == "" {
		return nil
	}
	return v.ValidateSessionID(req.SessionID)
}

func (v *Validator) ValidateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: session_id", entity.ErrMissingField)
	}
	if len(id) > maxSessionIDLength || !sessionIDPattern.MatchString(id) {
		return fmt.Errorf("%w: session_id %q", entity.ErrInvalidParameter, id)
	}
	return nil
}

func (v *Validator) ValidateMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: message", entity.ErrMissingField)
	}
	if n := utf8.RuneCountInString(text); n > v.maxMessageLength {
		return fmt.Errorf("%w: message is %d characters (max %d)", entity.ErrInvalidParameter, n, v.maxMessageLength)
	}
	return nil
}

func (v *Validator) ValidateSendMessage(req *entity.SendMessageRequest) error {
	return v.ValidateMessage(req.Message)
}

// ParseFormat defaults an empty value to markdown
func (v *Validator) ParseFormat(value string) (entity.ResultFormat, error) {
	if value == "" {
		return entity.FormatMarkdown, nil
	}

	format := entity.ResultFormat(strings.ToLower(value))
	switch format {
	case entity.FormatMarkdown, entity.FormatPDF, entity.FormatDOCX:
		return format, nil
	default:
		return "", fmt.Errorf("%w: format must be one of: markdown, pdf, docx", entity.ErrInvalidFormat)
	}
}
