// Package inference defines the boundary to the AI backend and its adapters:
// Gemini (google.golang.org/genai), a local Ollama server, and a Supabase
// edge function. Breaker and Instrumented wrap any Client.
//
// A Client receives the full conversation plus a personalization context and
// returns one complete reply. Streaming, if any, is the adapter's business.
package inference

import (
	"context"
	"errors"
	"fmt"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message of the conversation sent to the backend.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single completion request.
type Request struct {
	Messages               []Turn `json:"messages"`
	SessionID              string `json:"sessionId"`
	UserID                 string `json:"userId,omitempty"`
	PersonalizationContext string `json:"personalizationContext"`
}

// Response is the backend's reply.
type Response struct {
	Content string `json:"content"`
}

// Client completes a conversation.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (*Response, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, req Request) (*Response, error) { return f(ctx, req) }

// ErrEmptyReply is returned when the backend answered without content.
var ErrEmptyReply = errors.New("inference: empty reply")

// Error is a backend failure carrying a message safe to show to users.
type Error struct {
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsCancellation reports whether err is the result of the caller giving up,
// rather than a backend failure.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}
