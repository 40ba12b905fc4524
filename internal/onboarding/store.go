package onboarding

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/generator"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/location"
)

// TaxonomyFunc produces the interest taxonomy for a new flow.
type TaxonomyFunc func(count int) ([]domain.InterestNode, error)

// Store holds live wizards keyed by id. Idle flows expire after the TTL;
// every Get extends it.
type Store struct {
	Catalog       *location.Catalog
	InterestCount int
	Taxonomy      TaxonomyFunc

	ttl   time.Duration
	cache *cache.Cache
}

// NewStore returns a store whose flows expire after ttl of inactivity.
func NewStore(catalog *location.Catalog, ttl time.Duration, interestCount int) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if interestCount <= 0 {
		interestCount = generator.DefaultInterestCount
	}
	return &Store{
		Catalog:       catalog,
		InterestCount: interestCount,
		Taxonomy:      generator.GenerateInterests,
		ttl:           ttl,
		cache:         cache.New(ttl, ttl/2),
	}
}

// Create starts a flow for userID, seeded with initial when non-nil.
func (s *Store) Create(userID string, initial *domain.OnboardingData) (*Wizard, error) {
	taxonomy, err := s.Taxonomy(s.InterestCount)
	if err != nil {
		return nil, fmt.Errorf("generate interests: %w", err)
	}
	w := NewWizard(uuid.NewString(), userID, s.Catalog, taxonomy, initial)
	s.cache.Set(w.ID(), w, s.ttl)
	log.Debug().Str("flow_id", w.ID()).Str("user_id", userID).Int("interests", len(taxonomy)).Msg("onboarding started")
	return w, nil
}

// Get returns the flow id owned by userID.
func (s *Store) Get(id, userID string) (*Wizard, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrWizardNotFound
	}
	w := v.(*Wizard)
	if w.UserID() != userID {
		return nil, ErrWizardNotFound
	}
	s.cache.Set(id, w, s.ttl)
	return w, nil
}

// Delete drops a flow.
func (s *Store) Delete(id string) { s.cache.Delete(id) }

// Len returns the number of live flows.
func (s *Store) Len() int { return s.cache.ItemCount() }
