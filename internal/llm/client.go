package llm

import (
	"context"
	"errors"
	"fmt"
)

// Request is a single chat-completion call.
type Request struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	// JSONMode asks the provider for a JSON object response.
	JSONMode bool
}

// Client is implemented by every LLM provider. Complete returns the raw text
// of the first completion choice; it does not validate the content.
type Client interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
	Close() error
}

var (
	ErrMissingAPIKey   = errors.New("llm: api key is not configured")
	ErrEmptyCompletion = errors.New("llm: empty completion content")
)

// StatusError is returned when the provider answers with a non-2xx status.
// Body holds the provider's error payload, capped at maxErrorBody bytes.
type StatusError struct {
	Provider   string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %s: %s", e.Provider, e.Status, e.Body)
}

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

const maxErrorBody = 2048
