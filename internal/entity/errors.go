package entity

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Pipeline errors
	ErrValidation = errors.New("validation error")
	ErrData       = errors.New("data error")
	ErrUpstream   = errors.New("upstream error")
	ErrNoResponse = errors.New("No response from the model.")
	ErrRunFailed  = errors.New("agent run failed")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrNoThread        = errors.New("session has no agent thread")
	ErrNoTranscript    = errors.New("transcript not available")

	// Request errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// RunFailedError is returned when a remote agent run ends with status "failed".
type RunFailedError struct {
	Code    string
	Message string
}

func (e *RunFailedError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RunFailedError) Is(target error) bool {
	return target == ErrRunFailed
}

// StreamError is a generic error event received while streaming an agent run.
type StreamError struct {
	Code    string
	Message string
}

func (e *StreamError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StreamError) Is(target error) bool {
	return target == ErrUpstream
}
