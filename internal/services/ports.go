package services

import (
	"context"
	"errors"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/auth"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
)

// ChatStore persists session messages. Implementations return messages in
// ascending creation order.
type ChatStore interface {
	LoadMessages(ctx context.Context, sessionID string) ([]domain.Message, error)
	AppendMessage(ctx context.Context, msg domain.Message) error
}

// SessionStore persists session metadata. Lookups are scoped to the owner
// and return domain.ErrNotFound for missing or foreign sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s domain.Session) error
	GetSession(ctx context.Context, id, userID string) (*domain.Session, error)
	ListSessionsPage(ctx context.Context, userID string, offset, limit int) ([]domain.Session, int64, error)
	RenameSession(ctx context.Context, id, userID, title string) error
	DeleteSession(ctx context.Context, id, userID string) error
}

// ProfileStore persists preference profiles. GetProfile returns
// domain.ErrNotFound when the user has none.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*domain.OnboardingData, error)
	SaveProfile(ctx context.Context, userID string, data domain.OnboardingData) error
}

// BookmarkStore persists bookmarks.
type BookmarkStore interface {
	ListBookmarks(ctx context.Context, userID string) ([]domain.Bookmark, error)
	AddBookmark(ctx context.Context, userID, collegeID string) error
	RemoveBookmark(ctx context.Context, userID, collegeID string) error
}

// User is the caller as seen by the session controller.
type User struct {
	ID      string
	Profile *domain.OnboardingData
}

// UserSource returns the user behind a request context.
type UserSource interface {
	CurrentUser(ctx context.Context) (*User, error)
}

// ProfileUsers resolves the caller from the request identity and loads the
// saved profile. A missing profile is not an error.
type ProfileUsers struct {
	Profiles ProfileStore
}

// CurrentUser implements UserSource.
func (p ProfileUsers) CurrentUser(ctx context.Context) (*User, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return nil, auth.ErrUnauthenticated
	}
	prof, err := p.Profiles.GetProfile(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &User{ID: id.UserID}, nil
		}
		return nil, err
	}
	return &User{ID: id.UserID, Profile: prof}, nil
}
