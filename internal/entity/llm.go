package entity

// CompletionRequest is a single system + user turn sent to the chat model.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	TopP         float64
	// TextResponse requests the plain-text response format explicitly.
	TextResponse bool
}
