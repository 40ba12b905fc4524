// Package backend adapts a Supabase project to the advisor's collaborator
// ports: bearer-token verification through GoTrue, and chat, session,
// profile and bookmark persistence through PostgREST tables.
//
// The supabase-go client does not accept a context on its calls; a
// cancelled request context is checked before each call but cannot abort
// one already on the wire.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/auth"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
)

// Table names.
const (
	TableSessions  = "chat_sessions"
	TableMessages  = "chat_messages"
	TableProfiles  = "profiles"
	TableBookmarks = "bookmarks"
)

// Supabase implements services.ChatStore, services.SessionStore,
// services.ProfileStore, services.BookmarkStore and auth.Verifier.
type Supabase struct {
	client *supabase.Client
}

// NewSupabase connects to the project at url with key.
func NewSupabase(url, key string) (*Supabase, error) {
	if url == "" || key == "" {
		return nil, errors.New("supabase: url and key are required")
	}
	client, err := supabase.NewClient(strings.TrimRight(url, "/"), key, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase: create client: %w", err)
	}
	return &Supabase{client: client}, nil
}

// Verify resolves a GoTrue access token to the user it was issued for.
func (s *Supabase) Verify(ctx context.Context, token string) (auth.Identity, error) {
	if token == "" {
		return auth.Identity{}, auth.ErrUnauthenticated
	}
	if err := ctx.Err(); err != nil {
		return auth.Identity{}, err
	}
	user, err := s.client.Auth.WithToken(token).GetUser()
	if err != nil {
		log.Debug().Err(err).Msg("supabase token rejected")
		return auth.Identity{}, fmt.Errorf("%w: %v", auth.ErrUnauthenticated, err)
	}
	if user == nil || user.ID == uuid.Nil {
		return auth.Identity{}, auth.ErrUnauthenticated
	}
	return auth.Identity{UserID: user.ID.String(), Token: token}, nil
}

// LoadMessages returns the messages of sessionID, oldest first.
func (s *Supabase) LoadMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []domain.Message
	_, err := s.client.From(TableMessages).
		Select("id,session_id,role,content,created_at", "", false).
		Eq("session_id", sessionID).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&out)
	if err != nil {
		return nil, fmt.Errorf("supabase: load messages: %w", err)
	}
	if out == nil {
		out = []domain.Message{}
	}
	return out, nil
}

// AppendMessage inserts msg and bumps the session's updated_at.
func (s *Supabase) AppendMessage(ctx context.Context, msg domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row := messageRow{
		ID:        msg.ID,
		SessionID: msg.SessionID,
		Role:      msg.Role,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
	if _, _, err := s.client.From(TableMessages).Insert(row, false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("supabase: append message: %w", err)
	}
	touch := map[string]any{"updated_at": msg.CreatedAt}
	if _, _, err := s.client.From(TableSessions).Update(touch, "minimal", "").Eq("id", msg.SessionID).Execute(); err != nil {
		log.Warn().Err(err).Str("session_id", msg.SessionID).Msg("supabase: touch session failed")
	}
	return nil
}

// CreateSession inserts sess.
func (s *Supabase) CreateSession(ctx context.Context, sess domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, _, err := s.client.From(TableSessions).Insert(toSessionRow(sess), false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("supabase: create session: %w", err)
	}
	return nil
}

// GetSession returns a session owned by userID or domain.ErrNotFound.
func (s *Supabase) GetSession(ctx context.Context, id, userID string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []sessionRow
	_, err := s.client.From(TableSessions).
		Select("*", "", false).
		Eq("id", id).
		Eq("user_id", userID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("supabase: get session: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	sess := rows[0].toDomain()
	return &sess, nil
}

// ListSessionsPage returns a page of the user's sessions, most recently
// updated first, and the total count.
func (s *Supabase) ListSessionsPage(ctx context.Context, userID string, offset, limit int) ([]domain.Session, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		return []domain.Session{}, 0, nil
	}
	var rows []sessionRow
	total, err := s.client.From(TableSessions).
		Select("*", "exact", false).
		Eq("user_id", userID).
		Order("updated_at", &postgrest.OrderOpts{Ascending: false}).
		Range(offset, offset+limit-1, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, 0, fmt.Errorf("supabase: list sessions: %w", err)
	}
	out := make([]domain.Session, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, total, nil
}

// RenameSession sets the title of a session owned by userID.
func (s *Supabase) RenameSession(ctx context.Context, id, userID, title string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	patch := map[string]any{"title": title, "updated_at": time.Now().UTC()}
	var rows []sessionRow
	_, err := s.client.From(TableSessions).
		Update(patch, "representation", "").
		Eq("id", id).
		Eq("user_id", userID).
		ExecuteTo(&rows)
	if err != nil {
		return fmt.Errorf("supabase: rename session: %w", err)
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteSession removes a session owned by userID. Messages are removed by
// the table's ON DELETE CASCADE.
func (s *Supabase) DeleteSession(ctx context.Context, id, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var rows []sessionRow
	_, err := s.client.From(TableSessions).
		Delete("representation", "").
		Eq("id", id).
		Eq("user_id", userID).
		ExecuteTo(&rows)
	if err != nil {
		return fmt.Errorf("supabase: delete session: %w", err)
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetProfile returns the user's preference profile or domain.ErrNotFound.
func (s *Supabase) GetProfile(ctx context.Context, userID string) (*domain.OnboardingData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []profileRow
	_, err := s.client.From(TableProfiles).
		Select("user_id,data,updated_at", "", false).
		Eq("user_id", userID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("supabase: get profile: %w", err)
	}
	if len(rows) == 0 || len(rows[0].Data) == 0 || string(rows[0].Data) == "null" {
		return nil, domain.ErrNotFound
	}
	var data domain.OnboardingData
	if err := json.Unmarshal(rows[0].Data, &data); err != nil {
		return nil, fmt.Errorf("supabase: decode profile: %w", err)
	}
	return &data, nil
}

// SaveProfile upserts the user's preference profile.
func (s *Supabase) SaveProfile(ctx context.Context, userID string, data domain.OnboardingData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("supabase: encode profile: %w", err)
	}
	row := profileRow{UserID: userID, Data: raw, UpdatedAt: time.Now().UTC()}
	if _, _, err := s.client.From(TableProfiles).Insert(row, true, "user_id", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("supabase: save profile: %w", err)
	}
	return nil
}

// ListBookmarks returns the user's bookmarks, newest first.
func (s *Supabase) ListBookmarks(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []domain.Bookmark
	_, err := s.client.From(TableBookmarks).
		Select("id,user_id,college_id,created_at", "", false).
		Eq("user_id", userID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&out)
	if err != nil {
		return nil, fmt.Errorf("supabase: list bookmarks: %w", err)
	}
	return out, nil
}

// AddBookmark saves collegeID for userID; adding twice is a no-op.
func (s *Supabase) AddBookmark(ctx context.Context, userID, collegeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row := domain.Bookmark{ID: uuid.NewString(), UserID: userID, CollegeID: collegeID, CreatedAt: time.Now().UTC()}
	if _, _, err := s.client.From(TableBookmarks).Insert(row, true, "user_id,college_id", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("supabase: add bookmark: %w", err)
	}
	return nil
}

// RemoveBookmark deletes the bookmark of collegeID for userID.
func (s *Supabase) RemoveBookmark(ctx context.Context, userID, collegeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := s.client.From(TableBookmarks).
		Delete("minimal", "").
		Eq("user_id", userID).
		Eq("college_id", collegeID).
		Execute()
	if err != nil {
		return fmt.Errorf("supabase: remove bookmark: %w", err)
	}
	return nil
}

type messageRow struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionRow struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toSessionRow(s domain.Session) sessionRow {
	return sessionRow{ID: s.ID, UserID: s.UserID, Title: s.Title, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt}
}

func (r sessionRow) toDomain() domain.Session {
	return domain.Session{ID: r.ID, UserID: r.UserID, Title: r.Title, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

type profileRow struct {
	UserID    string          `json:"user_id"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updated_at"`
}
