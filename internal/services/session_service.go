// Package services – SessionService
//
// This file implements the SessionService, which manages session metadata for
// the sidebar: paginated listing, renaming, deletion, and automatic titling
// from the first user message. History and inference belong to
// SessionController.
//
// Service-level errors (e.g., ErrSessionNotFound) are returned for predictable
// cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
)

const (
	// placeholder titles eligible for auto-generation
	defaultTitleNew      = "New chat"
	defaultTitleUntitled = "Untitled"
)

// SessionService provides session-level operations.
type SessionService struct {
	Repo     SessionStore
	Sessions *SessionManager

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
	// TitleLocale drives the casing of generated titles.
	TitleLocale language.Tag
}

// NewSessionService constructs a SessionService with defaults for title handling.
func NewSessionService(r SessionStore, m *SessionManager) *SessionService {
	return &SessionService{
		Repo:        r,
		Sessions:    m,
		TitleMaxLen: 60,
		TitleLocale: language.English,
	}
}

// Get returns one session owned by userID.
func (s *SessionService) Get(ctx context.Context, userID, id string) (*domain.Session, error) {
	sess, err := s.Repo.GetSession(ctx, id, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	return sess, err
}

// ListPage returns a page of sessions for a user, most recent first.
// It applies defaults for invalid page/pageSize and returns the total count.
func (s *SessionService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Session, int64, error) {
	ctx, span := otel.Tracer("services/SessionService").Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	items, total, err := s.Repo.ListSessionsPage(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []domain.Session{}
	}
	return items, total, nil
}

// Rename updates a session title, falling back to "Untitled" when blank.
func (s *SessionService) Rename(ctx context.Context, userID, id, title string) error {
	title = normalizeTitle(title)
	if title == "" {
		title = defaultTitleUntitled
	}
	err := s.Repo.RenameSession(ctx, id, userID, s.clip(title))
	if errors.Is(err, domain.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}

// Delete removes a session and closes its live controller.
func (s *SessionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.Repo.DeleteSession(ctx, id, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	if s.Sessions != nil {
		s.Sessions.Close(id)
	}
	return nil
}

// AutoTitle replaces a placeholder title with one derived from prompt. It
// reports whether the title changed.
func (s *SessionService) AutoTitle(ctx context.Context, userID, id, prompt string) (bool, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return false, err
	}
	if !shouldAutoTitle(sess.Title) {
		return false, nil
	}
	gen := s.generateTitle(prompt)
	if gen == "" {
		return false, nil
	}
	if err := s.Repo.RenameSession(ctx, id, userID, s.clip(gen)); err != nil {
		return false, err
	}
	return true, nil
}

// shouldAutoTitle reports whether the current title is a placeholder.
func shouldAutoTitle(current string) bool {
	t := strings.TrimSpace(strings.ToLower(current))
	return t == "" || t == strings.ToLower(defaultTitleNew) || t == strings.ToLower(defaultTitleUntitled)
}

// generateTitle derives a concise title from the prompt.
func (s *SessionService) generateTitle(prompt string) string {
	toks := titleWordRE.FindAllString(strings.ToLower(strings.TrimSpace(prompt)), -1)
	if len(toks) == 0 {
		return ""
	}
	loc := s.TitleLocale
	if loc == language.Und {
		loc = language.English
	}
	caser := cases.Title(loc)
	out := make([]string, 0, 8)
	for _, w := range toks {
		if _, skip := titleStopWords[w]; skip {
			continue
		}
		out = append(out, caser.String(w))
		if len(out) >= 8 {
			break
		}
	}
	return strings.Join(out, " ")
}

// clip truncates a title to the configured maximum rune length.
func (s *SessionService) clip(title string) string {
	max := s.TitleMaxLen
	if max <= 0 {
		max = 60
	}
	if utf8.RuneCountInString(title) > max {
		return string([]rune(title)[:max])
	}
	return title
}

// normalizeTitle trims whitespace and collapses multiple spaces to one.
func normalizeTitle(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	titleWordRE  = regexp.MustCompile(`[\p{L}]+[\p{N}]*`)
)

// Minimal English stop-words set for compact titles.
var titleStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "was": {}, "were": {},
	"i": {}, "me": {}, "my": {}, "can": {}, "you": {}, "what": {}, "which": {}, "should": {},
}
