// Package services defines the business logic for advisor chat sessions,
// preference profiles and bookmarks. This file centralizes service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

// Session-related errors.
var (
	// ErrEmptyMessage is returned when a message is empty after trimming.
	// No state changes and no collaborator is called.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrTooLong is returned when a message exceeds the configured rune limit.
	ErrTooLong = errors.New("message too long")

	// ErrInvalidSessionID is returned for a session identifier that is not a UUID.
	ErrInvalidSessionID = errors.New("invalid session id")

	// ErrSessionNotFound indicates that the session does not exist or is not
	// owned by the caller.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionNotStarted is returned by operations that need a session id
	// before Start was called.
	ErrSessionNotStarted = errors.New("session not started")

	// ErrSessionClosed is returned by every operation on a closed controller.
	ErrSessionClosed = errors.New("session closed")

	// ErrHistoryUnavailable wraps chat-store failures while loading history.
	// It is distinct from an empty history, which is not an error.
	ErrHistoryUnavailable = errors.New("chat history unavailable")
)

// Profile and bookmark errors.
var (
	// ErrProfileInvalid is returned when a preference profile fails validation.
	ErrProfileInvalid = errors.New("invalid preference profile")

	// ErrProfileNotFound indicates that the user has no saved profile.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrInvalidCollegeID is returned for a blank or oversized college id.
	ErrInvalidCollegeID = errors.New("invalid college id")

	// ErrBookmarkFailed is returned when a bookmark toggle could not be
	// persisted and the local state was rolled back.
	ErrBookmarkFailed = errors.New("bookmark update failed")
)

// InferenceError is returned by SendMessage when the inference backend
// failed. Message is safe to show to the user; Err is the cause.
type InferenceError struct {
	Message string
	Err     error
}

func (e *InferenceError) Error() string { return e.Message }

func (e *InferenceError) Unwrap() error { return e.Err }
