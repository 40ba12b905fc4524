// Package services – ProfileService
//
// ProfileService reads and writes the onboarding preference profile. The
// onboarding wizard and the settings flow both save through it, so one set of
// validation rules applies to every write.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
)

// profileInput mirrors domain.OnboardingData with validation rules.
type profileInput struct {
	Locations    []locationInput `validate:"max=50,dive"`
	Interests    []string        `validate:"max=50,dive,required,max=200"`
	DegreeLevels []string        `validate:"max=5,dive,oneof=certificate associate bachelors masters doctorate"`
	Budget       *budgetInput    `validate:"omitempty"`
	StudyModes   []string        `validate:"max=4,dive,oneof=on_campus online hybrid part_time"`
	Language     string          `validate:"max=64"`
}

type locationInput struct {
	ID    string `validate:"required,max=255"`
	Label string `validate:"required,max=255"`
	Type  string `validate:"oneof=continent country state city"`
}

type budgetInput struct {
	CurrencyCode string `validate:"required,len=3,alpha"`
	Min          int64  `validate:"gte=0"`
	Max          int64  `validate:"gtefield=Min"`
	Label        string `validate:"max=100"`
}

// ProfileService validates and persists preference profiles.
type ProfileService struct {
	Store    ProfileStore
	validate *validator.Validate
}

// NewProfileService returns a service over store.
func NewProfileService(store ProfileStore) *ProfileService {
	return &ProfileService{Store: store, validate: validator.New()}
}

// Get returns the user's profile or ErrProfileNotFound.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.OnboardingData, error) {
	ctx, span := otel.Tracer("services/ProfileService").Start(ctx, "Get",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	p, err := s.Store.GetProfile(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

// Save validates data and persists it.
func (s *ProfileService) Save(ctx context.Context, userID string, data domain.OnboardingData) error {
	ctx, span := otel.Tracer("services/ProfileService").Start(ctx, "Save",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if err := s.Validate(data); err != nil {
		return err
	}
	return s.Store.SaveProfile(ctx, userID, data)
}

// SaveProfile lets the service stand in for a ProfileStore (the onboarding
// wizard saves through it).
func (s *ProfileService) SaveProfile(ctx context.Context, userID string, data domain.OnboardingData) error {
	return s.Save(ctx, userID, data)
}

// Validate checks data against the profile rules.
func (s *ProfileService) Validate(data domain.OnboardingData) error {
	in := profileInput{
		Interests:    data.Interests,
		DegreeLevels: data.DegreeLevels,
		StudyModes:   data.StudyModes,
		Language:     strings.TrimSpace(data.Language),
	}
	for _, l := range data.Locations {
		in.Locations = append(in.Locations, locationInput{ID: l.ID, Label: l.Label, Type: string(l.Type)})
	}
	if b := data.Budget; b != nil {
		in.Budget = &budgetInput{CurrencyCode: b.CurrencyCode, Min: b.Min, Max: b.Max, Label: b.Label}
	}
	if data.Completed && (len(data.Locations) == 0 || len(data.Interests) == 0) {
		return fmt.Errorf("%w: a completed profile needs at least one location and one interest", ErrProfileInvalid)
	}
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrProfileInvalid, fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrProfileInvalid, err)
	}
	return nil
}
