// Onboarding HTTP handlers.
//
// A flow is created with POST /onboarding and then edited step by step; it
// lives in memory until it expires or is completed. Completing a flow saves
// the preference profile.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/onboarding"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/search"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/services"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/utils"
)

//
// DTOs
//

// CreateOnboardingRequest starts a flow, optionally pre-filled with the
// caller's saved profile (settings edit).
type CreateOnboardingRequest struct {
	FromProfile bool `json:"from_profile"`
}

// LocationRequest names a location node.
type LocationRequest struct {
	LocationID string `json:"location_id" binding:"required,max=255" example:"europe"`
}

// JumpRequest selects a breadcrumb; -1 returns to the root.
type JumpRequest struct {
	Index *int `json:"index" binding:"required,min=-1" example:"0"`
}

// InterestRequest names an interest by label.
type InterestRequest struct {
	Label string `json:"label" binding:"required,max=200" example:"Applied Machine Learning"`
}

// BudgetRequest picks a tier (TierID set) or a custom range.
type BudgetRequest struct {
	CurrencyCode string `json:"currency_code" binding:"required,len=3" example:"EUR"`
	TierID       string `json:"tier_id,omitempty" example:"mid"`
	Min          int64  `json:"min,omitempty"`
	Max          int64  `json:"max,omitempty"`
}

// PreferencesRequest updates any subset of the remaining steps. Absent
// fields are left unchanged.
type PreferencesRequest struct {
	DegreeLevels *[]string     `json:"degree_levels,omitempty"`
	StudyModes   *[]string     `json:"study_modes,omitempty"`
	Language     *string       `json:"language,omitempty"`
	Budget       *BudgetRequest `json:"budget,omitempty"`
}

// LevelResponse is the drill position after a navigation step.
type LevelResponse struct {
	Locations []domain.LocationNode `json:"locations"`
	Wizard    onboarding.Snapshot   `json:"wizard"`
}

// InterestsResponse is a ranked interest search.
type InterestsResponse struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
}

// OnboardingOptions lists the allowed values of the choice steps.
type OnboardingOptions struct {
	DegreeLevels []string              `json:"degree_levels"`
	StudyModes   []string              `json:"study_modes"`
	Currencies   []onboarding.Currency `json:"currencies"`
}

// wizard loads the flow named by the path or fails with 404.
func (h *Handlers) wizard(c *gin.Context) (*onboarding.Wizard, bool) {
	w, err := h.Onboarding.Get(c.Param("id"), userID(c))
	if err != nil {
		failErr(c, err)
		return nil, false
	}
	return w, true
}

//
// Handlers
//

// GetOnboardingOptions godoc
// @ID          getOnboardingOptions
// @Summary     Allowed onboarding choices
// @Tags        Onboarding
// @Produce     json
// @Success     200  {object}  handlers.OnboardingOptions
// @Router      /onboarding-options [get]
func (h *Handlers) GetOnboardingOptions(c *gin.Context) {
	ok(c, http.StatusOK, OnboardingOptions{
		DegreeLevels: onboarding.DegreeLevels,
		StudyModes:   onboarding.StudyModes,
		Currencies:   onboarding.Currencies(),
	})
}

// CreateOnboarding godoc
// @ID          createOnboarding
// @Summary     Start an onboarding flow
// @Tags        Onboarding
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.CreateOnboardingRequest  false  "Options"
// @Success     201  {object}  onboarding.Snapshot
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /onboarding [post]
func (h *Handlers) CreateOnboarding(c *gin.Context) {
	var req CreateOnboardingRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	uid := userID(c)

	var initial *domain.OnboardingData
	if req.FromProfile {
		p, err := h.Profiles.Get(c.Request.Context(), uid)
		switch {
		case err == nil:
			initial = p
		case errors.Is(err, services.ErrProfileNotFound):
		default:
			failErr(c, err)
			return
		}
	}

	w, err := h.Onboarding.Create(uid, initial)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "could not start onboarding")
		return
	}
	ok(c, http.StatusCreated, w.Snapshot())
}

// GetOnboarding godoc
// @ID          getOnboarding
// @Summary     Onboarding flow state
// @Tags        Onboarding
// @Produce     json
// @Param       id  path  string  true  "Flow ID"
// @Success     200  {object}  onboarding.Snapshot
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /onboarding/{id} [get]
func (h *Handlers) GetOnboarding(c *gin.Context) {
	w, found := h.wizard(c)
	if !found {
		return
	}
	ok(c, http.StatusOK, w.Snapshot())
}

// DrillLocation godoc
// @ID          drillLocation
// @Summary     Drill into a location
// @Description Descends into a child of the current level. A terminal location is toggled instead.
// @Tags        Onboarding
// @Accept      json
// @Produce     json
// @Param       id    path  string  true  "Flow ID"
// @Param       body  body  handlers.LocationRequest  true  "Location"
// @Success     200  {object}  handlers.LevelResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Not a child of the current level"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /onboarding/{id}/locations/drill [post]
func (h *Handlers) DrillLocation(c *gin.Context) {
	w, found := h.wizard(c)
	if !found {
		return
	}
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "location_id required")
		return
	}
	level, err := w.DrillInto(c.Request.Context(), req.LocationID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, LevelResponse{Locations: level, Wizard: w.Snapshot()})
}

// JumpLocation godoc
// @ID          jumpLocation
// @Summary     Jump to a breadcrumb
// @Tags        Onboarding
// @Accept      json
// @Produce     json
// @Param       id    path  string  true  "Flow ID"
// @Param       body  body  handlers.JumpRequest  true  "Breadcrumb index"
// @Success     200  {object}  handlers.LevelResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /onboarding/{id}/locations/jump [post]
func (h *Handlers) JumpLocation(c *gin.Context) {
	w, found := h.wizard(c)
	if !found {
		return
	}
	var req JumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "index required (-1 for root)")
		return
	}
	level, err := w.JumpTo(c.Request.Context(), *req.Index)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, LevelResponse{Locations: level, Wizard: w.Snapshot()})
}

// ToggleLocation godoc
// @ID          toggleLocation
// @Summary     Select or deselect a location
// @Tags        Onboarding
// @Accept      json
// @Produce     json
// @Param       id    path  string  true  "Flow ID"
// @Param       body  body  handlers.LocationRequest  true  "Location"
// @Success     200  {object}  onboarding.Snapshot
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /onboarding/{id}/locations/toggle [post]
func (h *Handlers) ToggleLocation(c *gin.Context) {
	w, found := h.wizard(c)
	if !found {
		return
	}
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "location_id required")
		return
	}
	if err := w.ToggleLocation(c.Request.Context(), req.LocationID); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, w.Snapshot())
}

// SearchInterests godoc
// @ID          searchInterests
// @Summary     Search the interest taxonomy
// @Tags        Onboarding
// @Produce     json
// @Param       id     path   string  true   "Flow ID"
// @Param       q      query  string  false  "Query"  example(machine learning)
// @Param       limit  query  int     false  "Max results"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.InterestsResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /onboarding/{id}/interests [get]
func (h *Handlers) SearchInterests(c *gin.Context) {
	w, found := h.wizard(c)
	if !found {
		return
	}
	limit := utils.AtoiDefault(c.Query("limit"), search.DefaultK)
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	q := c.Query("q")
	results := w.SearchInterests(q, limit)
	if results == nil {
		results = []search.Result{}
	}
	ok(c, http.StatusOK, InterestsResponse{Query: q, Results: results})
}

// ToggleInterest godoc
// @ID          toggleInterest
// @Summary     Select or deselect an interest
// @Tags        Onboarding
// @Accept      json
// @Produce     json
// @Param       id    path  string  true  "Flow ID"
// @Param       body  body  handlers.InterestRequest  true  "Interest"
// @Success     200  {object}  onboarding.Snapshot
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown interest"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /onboarding/{id}/interests/toggle [post]
func (h *Handlers) ToggleInterest(c *gin.Context) {
	w, found := h.wizard(c)
	if !found {
		return
	}
	var req InterestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "label required")
		return
	}
	if err := w.ToggleInterest(req.Label); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, w.Snapshot())
}

// UpdatePreferences godoc
// @ID          updatePreferences
// @Summary     Set degree levels, budget, study modes or language
// @Description Fields are applied in order; the first invalid field stops the update.
// @Tags        Onboarding
// @Accept      json
// @Produce     json
// @Param       id    path  string  true  "Flow ID"
// @Param       body  body  handlers.PreferencesRequest  true  "Preferences"
// @Success     200  {object}  onboarding.Snapshot
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /onboarding/{id}/preferences [put]
func (h *Handlers) UpdatePreferences(c *gin.Context) {
	w, found := h.wizard(c)
	if !found {
		return
	}
	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid preferences")
		return
	}
	if err := applyPreferences(w, req); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, w.Snapshot())
}

func applyPreferences(w *onboarding.Wizard, req PreferencesRequest) error {
	if req.DegreeLevels != nil {
		if err := w.SetDegreeLevels(*req.DegreeLevels); err != nil {
			return err
		}
	}
	if b := req.Budget; b != nil {
		var err error
		if b.TierID != "" {
			err = w.SelectBudgetTier(b.CurrencyCode, b.TierID)
		} else {
			err = w.SetCustomBudget(b.CurrencyCode, b.Min, b.Max)
		}
		if err != nil {
			return err
		}
	}
	if req.StudyModes != nil {
		if err := w.SetStudyModes(*req.StudyModes); err != nil {
			return err
		}
	}
	if req.Language != nil {
		if err := w.SetLanguage(*req.Language); err != nil {
			return err
		}
	}
	return nil
}

// CompleteOnboarding godoc
// @ID          completeOnboarding
// @Summary     Finish onboarding and save the profile
// @Tags        Onboarding
// @Produce     json
// @Param       id  path  string  true  "Flow ID"
// @Success     200  {object}  domain.OnboardingData
// @Failure     400  {object}  handlers.ErrorResponse  "Incomplete or invalid"
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse  "Already completed"
// @Router      /onboarding/{id}/complete [post]
func (h *Handlers) CompleteOnboarding(c *gin.Context) {
	w, found := h.wizard(c)
	if !found {
		return
	}
	profile, err := w.Complete(c.Request.Context(), h.Profiles)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, profile)
}
