package services

import (
	"context"
	"sort"
	"sync"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
)

type fakeSessionStore struct {
	mu        sync.Mutex
	sessions  map[string]domain.Session
	createErr error
	renames   int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]domain.Session{}}
}

func (f *fakeSessionStore) CreateSession(_ context.Context, s domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessionStore) GetSession(_ context.Context, id, userID string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (f *fakeSessionStore) ListSessionsPage(_ context.Context, userID string, offset, limit int) ([]domain.Session, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var mine []domain.Session
	for _, s := range f.sessions {
		if s.UserID == userID {
			mine = append(mine, s)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].UpdatedAt.After(mine[j].UpdatedAt) })
	total := int64(len(mine))
	if offset >= len(mine) {
		return nil, total, nil
	}
	end := min(offset+limit, len(mine))
	return mine[offset:end], total, nil
}

func (f *fakeSessionStore) RenameSession(_ context.Context, id, userID, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.UserID != userID {
		return domain.ErrNotFound
	}
	s.Title = title
	f.sessions[id] = s
	f.renames++
	return nil
}

func (f *fakeSessionStore) DeleteSession(_ context.Context, id, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.UserID != userID {
		return domain.ErrNotFound
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionStore) title(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[id].Title
}

type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[string]domain.OnboardingData
	getErr   error
	saves    int
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: map[string]domain.OnboardingData{}}
}

func (f *fakeProfileStore) GetProfile(_ context.Context, userID string) (*domain.OnboardingData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProfileStore) SaveProfile(_ context.Context, userID string, data domain.OnboardingData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[userID] = data
	f.saves++
	return nil
}

type fakeBookmarkStore struct {
	mu      sync.Mutex
	items   map[string]map[string]bool
	failAdd error
	failDel error
	lists   int
}

func newFakeBookmarkStore() *fakeBookmarkStore {
	return &fakeBookmarkStore{items: map[string]map[string]bool{}}
}

func (f *fakeBookmarkStore) ListBookmarks(_ context.Context, userID string) ([]domain.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	var out []domain.Bookmark
	for id := range f.items[userID] {
		out = append(out, domain.Bookmark{ID: id, UserID: userID, CollegeID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CollegeID < out[j].CollegeID })
	return out, nil
}

func (f *fakeBookmarkStore) AddBookmark(_ context.Context, userID, collegeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAdd != nil {
		return f.failAdd
	}
	if f.items[userID] == nil {
		f.items[userID] = map[string]bool{}
	}
	f.items[userID][collegeID] = true
	return nil
}

func (f *fakeBookmarkStore) RemoveBookmark(_ context.Context, userID, collegeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDel != nil {
		return f.failDel
	}
	delete(f.items[userID], collegeID)
	return nil
}
