// Package services – BookmarkService
//
// BookmarkService toggles saved colleges with an optimistic local update: the
// in-memory set flips first, the store write follows, and a failed write is
// compensated by flipping back and re-syncing the user's set from the store.
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
)

const maxCollegeIDLen = 64

// BookmarkService keeps a per-user view of bookmarked college ids.
type BookmarkService struct {
	Store BookmarkStore

	mu    sync.Mutex
	views map[string]map[string]bool
}

// NewBookmarkService returns a service over store.
func NewBookmarkService(store BookmarkStore) *BookmarkService {
	return &BookmarkService{Store: store, views: make(map[string]map[string]bool)}
}

// List returns the user's bookmarks from the store and refreshes the view.
func (s *BookmarkService) List(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	ctx, span := otel.Tracer("services/BookmarkService").Start(ctx, "List",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	items, err := s.Store.ListBookmarks(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.replaceView(userID, items)
	if items == nil {
		items = []domain.Bookmark{}
	}
	return items, nil
}

// Toggle flips the bookmark for collegeID and reports the new state.
func (s *BookmarkService) Toggle(ctx context.Context, userID, collegeID string) (bool, error) {
	collegeID = strings.TrimSpace(collegeID)
	if collegeID == "" || len(collegeID) > maxCollegeIDLen {
		return false, ErrInvalidCollegeID
	}
	ctx, span := otel.Tracer("services/BookmarkService").Start(ctx, "Toggle",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("college.id", collegeID),
		),
	)
	defer span.End()

	if err := s.ensureView(ctx, userID); err != nil {
		return false, err
	}

	s.mu.Lock()
	view := s.views[userID]
	now := !view[collegeID]
	view[collegeID] = now
	s.mu.Unlock()

	var err error
	if now {
		err = s.Store.AddBookmark(ctx, userID, collegeID)
	} else {
		err = s.Store.RemoveBookmark(ctx, userID, collegeID)
	}
	if err == nil {
		return now, nil
	}

	s.mu.Lock()
	if v := s.views[userID]; v != nil {
		v[collegeID] = !now
	}
	s.mu.Unlock()
	span.RecordError(err)
	log.Warn().Err(err).Str("user_id", userID).Str("college_id", collegeID).Msg("bookmark write failed, reverted")

	if _, syncErr := s.List(ctx, userID); syncErr != nil {
		log.Warn().Err(syncErr).Str("user_id", userID).Msg("bookmark re-sync failed")
	}
	return !now, fmt.Errorf("%w: %w", ErrBookmarkFailed, err)
}

// IsBookmarked reports the locally known state.
func (s *BookmarkService) IsBookmarked(userID, collegeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.views[userID][collegeID]
}

func (s *BookmarkService) ensureView(ctx context.Context, userID string) error {
	s.mu.Lock()
	_, ok := s.views[userID]
	s.mu.Unlock()
	if ok {
		return nil
	}
	_, err := s.List(ctx, userID)
	return err
}

func (s *BookmarkService) replaceView(userID string, items []domain.Bookmark) {
	view := make(map[string]bool, len(items))
	for _, b := range items {
		view[b.CollegeID] = true
	}
	s.mu.Lock()
	s.views[userID] = view
	s.mu.Unlock()
}
