// Package services – SessionController
//
// This file implements the SessionController, which owns one advisor chat
// session: the in-memory history, the single in-flight inference request,
// and the personalization context sent with it.
//
// Request lifecycle:
//   - SendMessage appends the user message before any network call, aborts
//     the previous request, and starts a new one tagged with a fresh sequence
//     number and its own cancelable context.
//   - A reply is applied only if its sequence number is still current, so a
//     superseded or cancelled request can never append a message or clear the
//     loading flag of its successor.
//   - Persistence is best-effort and asynchronous; a failing chat store never
//     blocks or fails a send.
//
// All state is guarded by one mutex, which is never held across a
// collaborator call.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/auth"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/inference"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/personalize"
)

// Controller defaults.
const (
	DefaultMaxPromptRunes = 4000
	DefaultPersistTimeout = 5 * time.Second
)

// Snapshot is a consistent view of a controller for the transport.
type Snapshot struct {
	SessionID string           `json:"session_id"`
	Messages  []domain.Message `json:"messages"`
	Loading   bool             `json:"loading"`
	LastError string           `json:"last_error,omitempty"`
}

// SessionController manages a single chat session. It is safe for
// concurrent use.
type SessionController struct {
	store ChatStore
	users UserSource
	llm   inference.Client

	// MaxPromptRunes caps message length (0 disables the check).
	MaxPromptRunes int
	// PersistTimeout bounds each background store write.
	PersistTimeout time.Duration

	now func() time.Time

	mu        sync.Mutex
	userID    string
	sessionID string
	messages  []domain.Message
	loading   bool
	lastErr   string
	seq       uint64
	cancel    context.CancelFunc
	closed    bool
	persist   sync.WaitGroup
}

// NewSessionController returns a controller for userID. Call Start before
// sending messages.
func NewSessionController(userID string, store ChatStore, users UserSource, llm inference.Client) *SessionController {
	return &SessionController{
		store:          store,
		users:          users,
		llm:            llm,
		MaxPromptRunes: DefaultMaxPromptRunes,
		PersistTimeout: DefaultPersistTimeout,
		now:            func() time.Time { return time.Now().UTC() },
		userID:         userID,
	}
}

// UserID returns the owner of the session.
func (c *SessionController) UserID() string { return c.userID }

// SessionID returns the current session id, empty before Start.
func (c *SessionController) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Start adopts existingID, or generates a fresh id when it is empty.
// Adopting a different id than the current one resets the history.
func (c *SessionController) Start(existingID string) (string, error) {
	id := uuid.NewString()
	if existingID != "" {
		u, err := uuid.Parse(existingID)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidSessionID, existingID)
		}
		id = u.String()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", ErrSessionClosed
	}
	if id != c.sessionID {
		c.abortLocked()
		c.messages = nil
		c.lastErr = ""
		c.sessionID = id
	}
	return id, nil
}

// LoadHistory replaces the in-memory history with the stored one and aborts
// any in-flight request. On a store failure the history is left untouched and
// ErrHistoryUnavailable is returned; an empty history is valid.
func (c *SessionController) LoadHistory(ctx context.Context) ([]domain.Message, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrSessionClosed
	}
	id := c.sessionID
	c.mu.Unlock()
	if id == "" {
		return nil, ErrSessionNotStarted
	}

	ctx, span := otel.Tracer("services/SessionController").Start(ctx, "LoadHistory",
		trace.WithAttributes(attribute.String("session.id", id)),
	)
	defer span.End()

	msgs, err := c.store.LoadMessages(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", ErrHistoryUnavailable, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrSessionClosed
	}
	if c.sessionID != id {
		return nil, ErrSessionNotStarted
	}
	// A reply still in flight belongs to the replaced history.
	c.abortLocked()
	c.messages = append([]domain.Message(nil), msgs...)
	return append([]domain.Message(nil), msgs...), nil
}

// SendMessage appends text as a user message and asks the inference backend
// for a reply.
//
// Outcomes:
//   - success: the assistant message is appended and returned;
//   - superseded or cancelled: (nil, nil), nothing appended, no error recorded;
//   - backend failure: *InferenceError, recorded as LastError; the user
//     message stays and no assistant message is added.
func (c *SessionController) SendMessage(ctx context.Context, text string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if c.MaxPromptRunes > 0 && utf8.RuneCountInString(text) > c.MaxPromptRunes {
		return nil, ErrTooLong
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if c.sessionID == "" {
		c.mu.Unlock()
		return nil, ErrSessionNotStarted
	}
	sessionID := c.sessionID
	userMsg := c.newMessageLocked(domain.RoleUser, text)
	c.messages = append(c.messages, userMsg)

	c.abortLocked()
	c.seq++
	seq := c.seq
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.cancel = cancel
	c.loading = true
	c.lastErr = ""
	turns := toTurns(c.messages)
	c.persistLocked(reqCtx, userMsg)
	c.mu.Unlock()

	reqCtx, span := otel.Tracer("services/SessionController").Start(reqCtx, "SendMessage",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int("history.len", len(turns)),
		),
	)
	defer span.End()

	user := c.currentUser(reqCtx)
	res, err := c.llm.Complete(reqCtx, inference.Request{
		Messages:               turns,
		SessionID:              sessionID,
		UserID:                 user.ID,
		PersonalizationContext: personalize.Build(user.Profile),
	})
	if err == nil && (res == nil || strings.TrimSpace(res.Content) == "") {
		err = inference.ErrEmptyReply
	}

	lg := log.With().Str("session_id", sessionID).Uint64("seq", seq).Logger()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.seq != seq {
		lg.Debug().Msg("discarding superseded reply")
		return nil, nil
	}
	c.loading = false
	c.cancel = nil

	if err != nil {
		if inference.IsCancellation(err) || reqCtx.Err() != nil {
			lg.Debug().Err(err).Msg("request cancelled")
			return nil, nil
		}
		span.RecordError(err)
		msg := userVisible(err)
		c.lastErr = msg
		lg.Warn().Err(err).Msg("inference failed")
		return nil, &InferenceError{Message: msg, Err: err}
	}

	reply := c.newMessageLocked(domain.RoleAssistant, res.Content)
	c.messages = append(c.messages, reply)
	c.persistLocked(reqCtx, reply)
	return &reply, nil
}

// CancelRequest aborts the in-flight request, if any, and clears the
// loading flag immediately. Calling it with nothing in flight does nothing.
func (c *SessionController) CancelRequest() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abortLocked()
}

// ClearMessages empties the history and keeps the session id. An in-flight
// request is aborted so its reply cannot land in the cleared history.
func (c *SessionController) ClearMessages() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrSessionClosed
	}
	c.abortLocked()
	c.messages = nil
	c.lastErr = ""
	return nil
}

// Close aborts any in-flight request and waits for pending store writes.
// Later calls on the controller return ErrSessionClosed. Close is idempotent.
func (c *SessionController) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.abortLocked()
	c.mu.Unlock()
	c.persist.Wait()
}

// Closed reports whether Close has run.
func (c *SessionController) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Snapshot returns a copy of the controller state.
func (c *SessionController) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		SessionID: c.sessionID,
		Messages:  append([]domain.Message{}, c.messages...),
		Loading:   c.loading,
		LastError: c.lastErr,
	}
}

// abortLocked cancels the in-flight request and invalidates its sequence.
func (c *SessionController) abortLocked() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	c.cancel = nil
	c.seq++
	c.loading = false
}

func (c *SessionController) newMessageLocked(role, content string) domain.Message {
	at := c.now()
	// Keep history strictly ordered even when the clock does not advance.
	if n := len(c.messages); n > 0 && !at.After(c.messages[n-1].CreatedAt) {
		at = c.messages[n-1].CreatedAt.Add(time.Microsecond)
	}
	return domain.Message{
		ID:        uuid.NewString(),
		SessionID: c.sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: at,
	}
}

// persistLocked writes m in the background. The WaitGroup is incremented
// under the lock so that Close never races with a new write.
func (c *SessionController) persistLocked(ctx context.Context, m domain.Message) {
	if c.store == nil {
		return
	}
	c.persist.Add(1)
	base := context.WithoutCancel(ctx)
	go func() {
		defer c.persist.Done()
		ctx, cancel := context.WithTimeout(base, c.PersistTimeout)
		defer cancel()
		if err := c.store.AppendMessage(ctx, m); err != nil {
			log.Warn().Err(err).Str("session_id", m.SessionID).Str("message_id", m.ID).Msg("persist message failed")
		}
	}()
}

// currentUser returns the caller with their profile, falling back to the
// controller owner without a profile when the lookup fails.
func (c *SessionController) currentUser(ctx context.Context) *User {
	if c.users != nil {
		u, err := c.users.CurrentUser(ctx)
		if err == nil && u != nil {
			return u
		}
		if err != nil && !errors.Is(err, auth.ErrUnauthenticated) && ctx.Err() == nil {
			log.Warn().Err(err).Str("user_id", c.userID).Msg("profile lookup failed, using baseline context")
		}
	}
	return &User{ID: c.userID}
}

func toTurns(msgs []domain.Message) []inference.Turn {
	out := make([]inference.Turn, 0, len(msgs))
	for _, m := range msgs {
		role := inference.RoleUser
		if m.Role == domain.RoleAssistant {
			role = inference.RoleAssistant
		}
		out = append(out, inference.Turn{Role: role, Content: m.Content})
	}
	return out
}

// userVisible turns a backend failure into a message for the chat UI.
func userVisible(err error) string {
	var ie *inference.Error
	switch {
	case errors.Is(err, inference.ErrEmptyReply):
		return "The advisor returned an empty answer. Please try again."
	case errors.Is(err, inference.ErrUnavailable):
		return "The advisor is busy right now. Please try again in a moment."
	case errors.Is(err, context.DeadlineExceeded):
		return "The advisor took too long to answer. Please try again."
	case errors.As(err, &ie) && ie.Message != "":
		return "The advisor could not answer: " + ie.Message
	}
	return "Something went wrong while contacting the advisor. Please try again."
}
