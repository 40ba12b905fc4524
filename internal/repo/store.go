package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
)

// Store adapts the repository functions to the service ports. It
// translates gorm.ErrRecordNotFound into domain.ErrNotFound.
type Store struct {
	DB *gorm.DB
}

// NewStore returns a Store over db.
func NewStore(db *gorm.DB) *Store { return &Store{DB: db} }

// LoadMessages implements services.ChatStore.
func (s *Store) LoadMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	return ListMessages(ctx, s.DB, sessionID, 0)
}

// AppendMessage implements services.ChatStore.
func (s *Store) AppendMessage(ctx context.Context, msg domain.Message) error {
	return CreateMessage(ctx, s.DB, &msg)
}

// CreateSession implements services.SessionStore.
func (s *Store) CreateSession(ctx context.Context, sess domain.Session) error {
	return CreateSession(ctx, s.DB, &sess)
}

// GetSession implements services.SessionStore.
func (s *Store) GetSession(ctx context.Context, id, userID string) (*domain.Session, error) {
	sess, err := GetSession(ctx, s.DB, id, userID)
	return sess, notFound(err)
}

// ListSessionsPage implements services.SessionStore.
func (s *Store) ListSessionsPage(ctx context.Context, userID string, offset, limit int) ([]domain.Session, int64, error) {
	total, err := CountSessions(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	items, err := ListSessionsPage(ctx, s.DB, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// RenameSession implements services.SessionStore.
func (s *Store) RenameSession(ctx context.Context, id, userID, title string) error {
	return notFound(UpdateSessionTitle(ctx, s.DB, id, userID, title))
}

// DeleteSession implements services.SessionStore.
func (s *Store) DeleteSession(ctx context.Context, id, userID string) error {
	return notFound(DeleteSession(ctx, s.DB, id, userID))
}

// GetProfile implements services.ProfileStore.
func (s *Store) GetProfile(ctx context.Context, userID string) (*domain.OnboardingData, error) {
	p, err := GetProfile(ctx, s.DB, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return &p.Data, nil
}

// SaveProfile implements services.ProfileStore.
func (s *Store) SaveProfile(ctx context.Context, userID string, data domain.OnboardingData) error {
	return UpsertProfile(ctx, s.DB, userID, data)
}

// ListBookmarks implements services.BookmarkStore.
func (s *Store) ListBookmarks(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	return ListBookmarks(ctx, s.DB, userID)
}

// AddBookmark implements services.BookmarkStore.
func (s *Store) AddBookmark(ctx context.Context, userID, collegeID string) error {
	return AddBookmark(ctx, s.DB, userID, collegeID)
}

// RemoveBookmark implements services.BookmarkStore.
func (s *Store) RemoveBookmark(ctx context.Context, userID, collegeID string) error {
	return RemoveBookmark(ctx, s.DB, userID, collegeID)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
