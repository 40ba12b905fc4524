package handlers

import (
	"net/http"
	"testing"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/onboarding"
)

func TestOnboarding_FullFlow(t *testing.T) {
	e := newTestEnv(t, echoLLM)

	w := e.do(t, http.MethodPost, "/onboarding", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	snap := decode[onboarding.Snapshot](t, w)
	if snap.ID == "" || snap.Step != onboarding.StepLocations || snap.UserID != "u1" {
		t.Fatalf("created %+v", snap)
	}
	base := "/onboarding/" + snap.ID

	// Completing too early is rejected and leaves the flow open.
	expectError(t, e.do(t, http.MethodPost, base+"/complete", nil), http.StatusBadRequest, ErrCodeIncomplete)

	w = e.do(t, http.MethodPost, base+"/locations/drill", LocationRequest{LocationID: "europe"})
	level := decode[LevelResponse](t, w)
	if w.Code != http.StatusOK || len(level.Locations) == 0 || len(level.Wizard.Path) != 1 {
		t.Fatalf("drill: %d %+v", w.Code, level)
	}
	country := level.Locations[0]

	w = e.do(t, http.MethodPost, base+"/locations/toggle", LocationRequest{LocationID: country.ID})
	snap = decode[onboarding.Snapshot](t, w)
	if len(snap.Data.Locations) != 1 || snap.Data.Locations[0].ID != country.ID || snap.Step != onboarding.StepInterests {
		t.Fatalf("toggle: %+v", snap)
	}

	expectError(t, e.do(t, http.MethodPost, base+"/locations/drill", LocationRequest{LocationID: "asia"}), http.StatusBadRequest, ErrCodeBadRequest)

	w = e.do(t, http.MethodPost, base+"/locations/jump", map[string]int{"index": -1})
	if level := decode[LevelResponse](t, w); w.Code != http.StatusOK || len(level.Wizard.Path) != 0 {
		t.Fatalf("jump: %d %+v", w.Code, level.Wizard)
	}
	expectError(t, e.do(t, http.MethodPost, base+"/locations/jump", `{}`), http.StatusBadRequest, ErrCodeBadRequest)

	w = e.do(t, http.MethodGet, base+"/interests?limit=5", nil)
	found := decode[InterestsResponse](t, w)
	if len(found.Results) != 5 {
		t.Fatalf("search: %+v", found)
	}
	label := found.Results[0].Interest.Label

	w = e.do(t, http.MethodPost, base+"/interests/toggle", InterestRequest{Label: label})
	if snap := decode[onboarding.Snapshot](t, w); len(snap.Data.Interests) != 1 || snap.Step != onboarding.StepDegreeLevels {
		t.Fatalf("interest: %+v", snap)
	}
	expectError(t, e.do(t, http.MethodPost, base+"/interests/toggle", InterestRequest{Label: "Underwater Basket Weaving 9000"}), http.StatusBadRequest, ErrCodeBadRequest)

	levels := []string{"masters"}
	modes := []string{"online", "hybrid"}
	lang := "de"
	w = e.do(t, http.MethodPut, base+"/preferences", PreferencesRequest{
		DegreeLevels: &levels,
		StudyModes:   &modes,
		Language:     &lang,
		Budget:       &BudgetRequest{CurrencyCode: "EUR", TierID: "mid"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("preferences: %d %s", w.Code, w.Body.String())
	}
	snap = decode[onboarding.Snapshot](t, w)
	if snap.Step != onboarding.StepReview || snap.Data.Language != "German" || snap.Data.Budget == nil || snap.Data.Budget.Max != 15_000 {
		t.Fatalf("preferences: %+v", snap)
	}

	w = e.do(t, http.MethodPost, base+"/complete", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("complete: %d %s", w.Code, w.Body.String())
	}
	if done := decode[domain.OnboardingData](t, w); !done.Completed || len(done.Interests) != 1 {
		t.Fatalf("completed %+v", done)
	}
	expectError(t, e.do(t, http.MethodPost, base+"/complete", nil), http.StatusConflict, ErrCodeConflict)

	w = e.do(t, http.MethodGet, "/profile", nil)
	if p := decode[domain.OnboardingData](t, w); w.Code != http.StatusOK || !p.Completed || p.Locations[0].ID != country.ID {
		t.Fatalf("profile: %d %+v", w.Code, p)
	}

	// A new flow can start from the saved profile.
	w = e.do(t, http.MethodPost, "/onboarding", CreateOnboardingRequest{FromProfile: true})
	if again := decode[onboarding.Snapshot](t, w); again.Data.Completed || len(again.Data.Interests) != 1 {
		t.Fatalf("from profile: %+v", again.Data)
	}
}

func TestOnboarding_Preferences_Invalid(t *testing.T) {
	e := newTestEnv(t, echoLLM)
	id := decode[onboarding.Snapshot](t, e.do(t, http.MethodPost, "/onboarding", nil)).ID
	base := "/onboarding/" + id + "/preferences"

	bad := []string{"kindergarten"}
	cases := map[string]any{
		"degree level": PreferencesRequest{DegreeLevels: &bad},
		"study mode":   PreferencesRequest{StudyModes: &bad},
		"currency":     PreferencesRequest{Budget: &BudgetRequest{CurrencyCode: "XYZ", TierID: "mid"}},
		"tier":         PreferencesRequest{Budget: &BudgetRequest{CurrencyCode: "USD", TierID: "gold"}},
		"custom range": PreferencesRequest{Budget: &BudgetRequest{CurrencyCode: "USD", Min: -5, Max: 10}},
		"code length":  `{"budget":{"currency_code":"EURO","tier_id":"mid"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			expectError(t, e.do(t, http.MethodPut, base, body), http.StatusBadRequest, ErrCodeBadRequest)
		})
	}

	lo, hi := int64(9_000), int64(4_000)
	w := e.do(t, http.MethodPut, base, PreferencesRequest{Budget: &BudgetRequest{CurrencyCode: "USD", Min: lo, Max: hi}})
	snap := decode[onboarding.Snapshot](t, w)
	if b := snap.Data.Budget; w.Code != http.StatusOK || b == nil || !b.IsCustom || b.Min != hi || b.Max != lo {
		t.Fatalf("custom budget: %d %+v", w.Code, snap.Data.Budget)
	}
}

func TestOnboarding_NotFoundAndForeign(t *testing.T) {
	e := newTestEnv(t, echoLLM)
	expectError(t, e.do(t, http.MethodGet, "/onboarding/missing", nil), http.StatusNotFound, ErrCodeNotFound)

	id := decode[onboarding.Snapshot](t, e.do(t, http.MethodPost, "/onboarding", nil)).ID
	expectError(t, e.do(t, http.MethodGet, "/onboarding/"+id, nil, "X-User-ID", "intruder"), http.StatusNotFound, ErrCodeNotFound)
	if w := e.do(t, http.MethodGet, "/onboarding/"+id, nil); w.Code != http.StatusOK {
		t.Fatalf("owner: %d", w.Code)
	}
}

func TestOnboardingOptions(t *testing.T) {
	e := newTestEnv(t, echoLLM)
	opts := decode[OnboardingOptions](t, e.do(t, http.MethodGet, "/onboarding-options", nil))
	if len(opts.DegreeLevels) != len(onboarding.DegreeLevels) || len(opts.StudyModes) == 0 || len(opts.Currencies) == 0 {
		t.Fatalf("options %+v", opts)
	}
}
