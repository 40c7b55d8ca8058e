package handlers

import (
	"errors"

	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/telegram/render"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity int

const (
	SeverityWarning ErrorSeverity = iota
	SeverityError
)

// String returns string representation of error severity
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// HandlerError pairs an error with the text shown to the user
type HandlerError struct {
	Err         error
	UserMessage string
	Severity    ErrorSeverity
}

// ClassifyError maps errors outside chat turns to user text. Turn failures are
// shown verbatim through render.TurnError instead.
func ClassifyError(err error) *HandlerError {
	switch {
	case err == nil:
		return &HandlerError{UserMessage: render.ErrGeneric, Severity: SeverityWarning}
	case errors.Is(err, entity.ErrSessionNotFound):
		return &HandlerError{Err: err, UserMessage: render.ErrNoSession, Severity: SeverityWarning}
	case errors.Is(err, entity.ErrNoTranscript):
		return &HandlerError{Err: err, UserMessage: render.MsgNoTranscript, Severity: SeverityWarning}
	case errors.Is(err, entity.ErrInvalidParameter):
		return &HandlerError{Err: err, UserMessage: render.ErrBadCallback, Severity: SeverityWarning}
	default:
		return &HandlerError{Err: err, UserMessage: render.ErrGeneric, Severity: SeverityError}
	}
}
