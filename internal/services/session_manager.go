// Package services – SessionManager
//
// SessionManager owns the set of live SessionControllers and guarantees that
// exactly one controller exists per session id within the process. Idle
// controllers expire after a TTL and are closed on eviction.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/inference"
)

// DefaultSessionIdleTTL is used when NewSessionManager gets a zero TTL.
const DefaultSessionIdleTTL = 30 * time.Minute

// ManagerOptions configures the controllers created by a SessionManager.
type ManagerOptions struct {
	IdleTTL        time.Duration
	MaxPromptRunes int
	PersistTimeout time.Duration
}

// SessionManager creates, resumes and evicts controllers.
type SessionManager struct {
	Sessions SessionStore
	Chats    ChatStore
	Users    UserSource
	LLM      inference.Client

	opts ManagerOptions
	// mu serializes lookups and registrations; the janitor only deletes.
	mu   sync.Mutex
	live *cache.Cache
}

// NewSessionManager returns a manager whose controllers expire after
// opts.IdleTTL without use.
func NewSessionManager(sessions SessionStore, chats ChatStore, users UserSource, llm inference.Client, opts ManagerOptions) *SessionManager {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultSessionIdleTTL
	}
	if opts.MaxPromptRunes == 0 {
		opts.MaxPromptRunes = DefaultMaxPromptRunes
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = DefaultPersistTimeout
	}
	m := &SessionManager{
		Sessions: sessions,
		Chats:    chats,
		Users:    users,
		LLM:      llm,
		opts:     opts,
		live:     cache.New(opts.IdleTTL, opts.IdleTTL/2),
	}
	m.live.OnEvicted(func(id string, v interface{}) {
		if c, ok := v.(*SessionController); ok {
			c.Close()
			log.Debug().Str("session_id", id).Msg("session controller closed")
		}
	})
	return m
}

// Open returns the controller for existingID owned by userID, creating a new
// session when existingID is empty. Resuming a session that is not live loads
// its history from the chat store.
func (m *SessionManager) Open(ctx context.Context, userID, existingID string) (*SessionController, error) {
	ctx, span := otel.Tracer("services/SessionManager").Start(ctx, "Open",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("session.id", existingID),
		),
	)
	defer span.End()

	if existingID == "" {
		return m.create(ctx, userID)
	}
	u, err := uuid.Parse(existingID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, existingID)
	}
	id := u.String()

	if c, ok := m.lookup(id); ok {
		if c.UserID() != userID {
			return nil, ErrSessionNotFound
		}
		return c, nil
	}

	if _, err := m.Sessions.GetSession(ctx, id, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	c := m.newController(userID)
	if _, err := c.Start(id); err != nil {
		return nil, err
	}
	if _, err := c.LoadHistory(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return m.adopt(id, c), nil
}

// Get returns a live controller owned by userID.
func (m *SessionManager) Get(id, userID string) (*SessionController, error) {
	c, ok := m.lookup(id)
	if !ok || c.UserID() != userID {
		return nil, ErrSessionNotFound
	}
	return c, nil
}

// Close evicts and closes the controller for id, if live.
func (m *SessionManager) Close(id string) { m.live.Delete(id) }

// CloseAll closes every live controller.
func (m *SessionManager) CloseAll() {
	for id := range m.live.Items() {
		m.live.Delete(id)
	}
}

// Len returns the number of live controllers.
func (m *SessionManager) Len() int { return m.live.ItemCount() }

func (m *SessionManager) create(ctx context.Context, userID string) (*SessionController, error) {
	c := m.newController(userID)
	id, err := c.Start("")
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := m.Sessions.CreateSession(ctx, domain.Session{
		ID:        id,
		UserID:    userID,
		Title:     defaultTitleNew,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return nil, err
	}
	return m.adopt(id, c), nil
}

func (m *SessionManager) newController(userID string) *SessionController {
	c := NewSessionController(userID, m.Chats, m.Users, m.LLM)
	c.MaxPromptRunes = m.opts.MaxPromptRunes
	c.PersistTimeout = m.opts.PersistTimeout
	return c
}

// lookup returns a live controller and refreshes its idle timer.
func (m *SessionManager) lookup(id string) (*SessionController, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookupLocked(id)
}

func (m *SessionManager) lookupLocked(id string) (*SessionController, bool) {
	v, ok := m.live.Get(id)
	if !ok {
		return nil, false
	}
	c := v.(*SessionController)
	// The janitor can expire c between Get and SetDefault and close it after
	// the refresh put it back. Drop it so the next Open resumes from the store.
	if c.Closed() {
		m.live.Delete(id)
		return nil, false
	}
	m.live.SetDefault(id, c)
	return c, true
}

// adopt registers c for id unless another Open won the race, in which case
// c is closed and the winner is returned.
func (m *SessionManager) adopt(id string, c *SessionController) *SessionController {
	m.mu.Lock()
	defer m.mu.Unlock()
	if winner, ok := m.lookupLocked(id); ok {
		c.Close()
		return winner
	}
	m.live.SetDefault(id, c)
	return c
}
