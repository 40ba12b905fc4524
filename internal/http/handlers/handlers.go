package handlers

import (
	"context"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/http/middleware"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/onboarding"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/services"
)

//
// Service contracts (context-aware)
//

// SessionManager hands out the live controller of a session.
type SessionManager interface {
	// Open resumes existingID (loading its history when not live) or
	// creates a session when existingID is empty.
	Open(ctx context.Context, userID, existingID string) (*services.SessionController, error)
	// Get returns a live controller without loading anything.
	Get(id, userID string) (*services.SessionController, error)
}

// SessionService manages session metadata.
type SessionService interface {
	Get(ctx context.Context, userID, id string) (*domain.Session, error)
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Session, int64, error)
	Rename(ctx context.Context, userID, id, title string) error
	Delete(ctx context.Context, userID, id string) error
	AutoTitle(ctx context.Context, userID, id, prompt string) (bool, error)
}

// ProfileService reads and validates preference profiles. It doubles as
// the store the onboarding wizard saves into.
type ProfileService interface {
	onboarding.ProfileStore
	Get(ctx context.Context, userID string) (*domain.OnboardingData, error)
	Save(ctx context.Context, userID string, data domain.OnboardingData) error
}

// BookmarkService toggles and lists bookmarks.
type BookmarkService interface {
	List(ctx context.Context, userID string) ([]domain.Bookmark, error)
	Toggle(ctx context.Context, userID, collegeID string) (bool, error)
}

// LocationCatalog serves the location tree.
type LocationCatalog interface {
	Roots() []domain.LocationNode
	Children(ctx context.Context, parentID string) ([]domain.LocationNode, error)
}

// OnboardingFlows holds live onboarding wizards.
type OnboardingFlows interface {
	Create(userID string, initial *domain.OnboardingData) (*onboarding.Wizard, error)
	Get(id, userID string) (*onboarding.Wizard, error)
}

//
// Handler wiring
//

// Deps are the collaborators of the HTTP handlers.
type Deps struct {
	Sessions   SessionManager
	SessionSvc SessionService
	Profiles   ProfileService
	Bookmarks  BookmarkService
	Locations  LocationCatalog
	Onboarding OnboardingFlows

	// StatsDB enables ETags on the session list (sqlite backend only).
	StatsDB *gorm.DB
	// MaxPromptRunes is reported in "content too long" errors.
	MaxPromptRunes int
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	Deps
}

// New returns handlers bound to d.
func New(d Deps) *Handlers {
	if d.MaxPromptRunes == 0 {
		d.MaxPromptRunes = services.DefaultMaxPromptRunes
	}
	return &Handlers{Deps: d}
}

// userID returns the caller set by middleware.Authenticate, then the
// X-User-ID header, then middleware.DefaultUserID.
func userID(c *gin.Context) string {
	if v, ok := c.Get(middleware.UserIDKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return middleware.DefaultUserID
}

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes line endings, collapses blank-line runs and
// trims surrounding whitespace.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
