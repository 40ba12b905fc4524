// Package onboarding implements the multi-step preference wizard: location
// selection over the location catalog, interest search over a freshly
// generated taxonomy, degree levels, budget, study modes and language.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/location"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/search"
)

var (
	ErrWizardNotFound   = errors.New("onboarding flow not found")
	ErrUnknownInterest  = errors.New("unknown interest")
	ErrUnknownCurrency  = errors.New("unsupported currency")
	ErrUnknownTier      = errors.New("unknown budget tier")
	ErrInvalidBudget    = errors.New("invalid budget")
	ErrInvalidChoice    = errors.New("invalid choice")
	ErrIncomplete       = errors.New("onboarding incomplete")
	ErrAlreadyCompleted = errors.New("onboarding already completed")
)

// Step is a wizard stage.
type Step string

const (
	StepLocations    Step = "locations"
	StepInterests    Step = "interests"
	StepDegreeLevels Step = "degree_levels"
	StepBudget       Step = "budget"
	StepStudyModes   Step = "study_modes"
	StepLanguage     Step = "language"
	StepReview       Step = "review"
)

// Allowed values for the multi-choice steps.
var (
	DegreeLevels = []string{"certificate", "associate", "bachelors", "masters", "doctorate"}
	StudyModes   = []string{"on_campus", "online", "hybrid", "part_time"}
)

const maxLanguageRunes = 64

// MaxSelections caps the locations and interests a profile may hold.
const MaxSelections = 50

// ProfileStore persists the finished preference profile.
type ProfileStore interface {
	SaveProfile(ctx context.Context, userID string, data domain.OnboardingData) error
}

// Snapshot is a read-only view of a wizard.
type Snapshot struct {
	ID       string                `json:"id"`
	UserID   string                `json:"user_id"`
	Step     Step                  `json:"step"`
	Location location.State        `json:"location"`
	Path     []domain.LocationNode `json:"path"`
	Data     domain.OnboardingData `json:"data"`
}

// Wizard is one onboarding flow. It is safe for concurrent use.
type Wizard struct {
	id      string
	userID  string
	catalog *location.Catalog
	index   *search.InterestIndex
	labels  map[string]struct{}

	mu       sync.Mutex
	selector *location.Selector
	data     domain.OnboardingData
}

// NewWizard starts a flow over taxonomy. A non-nil initial profile is
// loaded as the draft (settings edits).
func NewWizard(id, userID string, catalog *location.Catalog, taxonomy []domain.InterestNode, initial *domain.OnboardingData) *Wizard {
	w := &Wizard{
		id:      id,
		userID:  userID,
		catalog: catalog,
		index:   search.NewInterestIndex(taxonomy),
		labels:  make(map[string]struct{}, len(taxonomy)),
	}
	for _, n := range taxonomy {
		w.labels[n.Label] = struct{}{}
	}
	if initial != nil {
		w.data = cloneData(*initial)
		w.data.Completed = false
		for _, l := range w.data.Interests {
			w.labels[l] = struct{}{}
		}
	}
	w.selector = location.NewSelector(w.data.Locations...)
	return w
}

// ID returns the flow id.
func (w *Wizard) ID() string { return w.id }

// UserID returns the owner of the flow.
func (w *Wizard) UserID() string { return w.userID }

// DrillInto resolves id and descends into it (terminal nodes are toggled).
// It returns the children of the new drill position.
func (w *Wizard) DrillInto(ctx context.Context, id string) ([]domain.LocationNode, error) {
	node, err := w.catalog.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	if !node.HasChildren && !w.selector.IsSelected(node.ID) && len(w.data.Locations) >= MaxSelections {
		w.mu.Unlock()
		return nil, fmt.Errorf("%w: at most %d locations", ErrInvalidChoice, MaxSelections)
	}
	err = w.selector.DrillInto(node)
	if err == nil {
		w.data.Locations = w.selector.Selected()
	}
	cur, drilled := w.selector.Current()
	w.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return w.levelChildren(ctx, cur, drilled)
}

// JumpTo truncates the drill path (index < 0 returns to the root) and
// returns the nodes at the new position.
func (w *Wizard) JumpTo(ctx context.Context, index int) ([]domain.LocationNode, error) {
	w.mu.Lock()
	w.selector.BreadcrumbJump(index)
	cur, drilled := w.selector.Current()
	w.mu.Unlock()
	return w.levelChildren(ctx, cur, drilled)
}

func (w *Wizard) levelChildren(ctx context.Context, cur domain.LocationNode, drilled bool) ([]domain.LocationNode, error) {
	if !drilled {
		return w.catalog.Roots(), nil
	}
	return w.catalog.Children(ctx, cur.ID)
}

// ToggleLocation selects or deselects the node id at any depth.
func (w *Wizard) ToggleLocation(ctx context.Context, id string) error {
	node, err := w.catalog.Resolve(ctx, id)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.selector.IsSelected(node.ID) && len(w.data.Locations) >= MaxSelections {
		return fmt.Errorf("%w: at most %d locations", ErrInvalidChoice, MaxSelections)
	}
	w.selector.ToggleSelection(node)
	w.data.Locations = w.selector.Selected()
	return nil
}

// SearchInterests ranks the taxonomy against q.
func (w *Wizard) SearchInterests(q string, limit int) []search.Result {
	return w.index.TopK(q, limit)
}

// ToggleInterest adds or removes an interest label.
func (w *Wizard) ToggleInterest(label string) error {
	label = strings.TrimSpace(label)
	if _, ok := w.labels[label]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownInterest, label)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, l := range w.data.Interests {
		if l == label {
			w.data.Interests = append(w.data.Interests[:i:i], w.data.Interests[i+1:]...)
			return nil
		}
	}
	if len(w.data.Interests) >= MaxSelections {
		return fmt.Errorf("%w: at most %d interests", ErrInvalidChoice, MaxSelections)
	}
	w.data.Interests = append(w.data.Interests, label)
	return nil
}

// SetDegreeLevels replaces the degree levels.
func (w *Wizard) SetDegreeLevels(levels []string) error {
	v, err := choose("degree level", levels, DegreeLevels)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.data.DegreeLevels = v
	w.mu.Unlock()
	return nil
}

// SelectBudgetTier sets a predefined budget.
func (w *Wizard) SelectBudgetTier(code, tierID string) error {
	b, err := TierBudget(code, tierID)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.data.Budget = b
	w.mu.Unlock()
	return nil
}

// SetCustomBudget sets a user-entered budget range.
func (w *Wizard) SetCustomBudget(code string, lo, hi int64) error {
	b, err := CustomBudget(code, lo, hi)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.data.Budget = b
	w.mu.Unlock()
	return nil
}

// SetStudyModes replaces the study modes.
func (w *Wizard) SetStudyModes(modes []string) error {
	v, err := choose("study mode", modes, StudyModes)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.data.StudyModes = v
	w.mu.Unlock()
	return nil
}

// SetLanguage sets the instruction language. BCP 47 tags ("fr", "pt-BR")
// are stored by their English display name; anything else is kept as typed.
func (w *Wizard) SetLanguage(lang string) error {
	lang = strings.TrimSpace(lang)
	if lang == "" || utf8.RuneCountInString(lang) > maxLanguageRunes {
		return fmt.Errorf("%w: language", ErrInvalidChoice)
	}
	if tag, err := language.Parse(lang); err == nil {
		if name := display.English.Languages().Name(tag); name != "" {
			lang = name
		}
	}
	w.mu.Lock()
	w.data.Language = lang
	w.mu.Unlock()
	return nil
}

// Complete validates the draft, marks it completed and saves it. On a save
// failure the draft stays editable and incomplete.
func (w *Wizard) Complete(ctx context.Context, store ProfileStore) (*domain.OnboardingData, error) {
	w.mu.Lock()
	if w.data.Completed {
		w.mu.Unlock()
		return nil, ErrAlreadyCompleted
	}
	if len(w.data.Locations) == 0 {
		w.mu.Unlock()
		return nil, fmt.Errorf("%w: select at least one location", ErrIncomplete)
	}
	if len(w.data.Interests) == 0 {
		w.mu.Unlock()
		return nil, fmt.Errorf("%w: select at least one interest", ErrIncomplete)
	}
	final := cloneData(w.data)
	w.mu.Unlock()

	final.Completed = true
	if err := store.SaveProfile(ctx, w.userID, final); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	w.mu.Lock()
	w.data.Completed = true
	w.mu.Unlock()
	return &final, nil
}

// Snapshot returns a copy of the wizard state.
func (w *Wizard) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{
		ID:       w.id,
		UserID:   w.userID,
		Step:     stepOf(&w.data),
		Location: w.selector.State(),
		Path:     w.selector.Path(),
		Data:     cloneData(w.data),
	}
}

// stepOf returns the first unanswered step.
func stepOf(d *domain.OnboardingData) Step {
	switch {
	case len(d.Locations) == 0:
		return StepLocations
	case len(d.Interests) == 0:
		return StepInterests
	case len(d.DegreeLevels) == 0:
		return StepDegreeLevels
	case d.Budget == nil:
		return StepBudget
	case len(d.StudyModes) == 0:
		return StepStudyModes
	case d.Language == "":
		return StepLanguage
	}
	return StepReview
}

// choose de-duplicates values and checks them against allowed.
func choose(field string, values, allowed []string) ([]string, error) {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if !contains(allowed, v) {
			return nil, fmt.Errorf("%w: %s %q", ErrInvalidChoice, field, v)
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out, nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func cloneData(d domain.OnboardingData) domain.OnboardingData {
	out := d
	out.Locations = append([]domain.LocationNode(nil), d.Locations...)
	out.Interests = append([]string(nil), d.Interests...)
	out.DegreeLevels = append([]string(nil), d.DegreeLevels...)
	out.StudyModes = append([]string(nil), d.StudyModes...)
	if d.Budget != nil {
		b := *d.Budget
		out.Budget = &b
	}
	return out
}
