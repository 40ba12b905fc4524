package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/services"
)

func TestProfile_GetPut(t *testing.T) {
	e := newTestEnv(t, echoLLM)

	expectError(t, e.do(t, http.MethodGet, "/profile", nil), http.StatusNotFound, ErrCodeNotFound)

	p := domain.OnboardingData{
		Locations:    []domain.LocationNode{{ID: "asia", Label: "Asia", Type: domain.LocationContinent, HasChildren: true}},
		Interests:    []string{"Robotics"},
		DegreeLevels: []string{"bachelors"},
		Budget:       &domain.BudgetPreference{CurrencyCode: "INR", Min: 0, Max: 500_000, Label: "₹0 - ₹500,000"},
		StudyModes:   []string{"on_campus"},
		Language:     "Hindi",
		Completed:    true,
	}
	if w := e.do(t, http.MethodPut, "/profile", p); w.Code != http.StatusNoContent {
		t.Fatalf("put: %d %s", w.Code, w.Body.String())
	}
	w := e.do(t, http.MethodGet, "/profile", nil)
	got := decode[domain.OnboardingData](t, w)
	if !got.Completed || got.Budget == nil || got.Budget.Max != 500_000 || got.Language != "Hindi" {
		t.Fatalf("profile %+v", got)
	}
	if w := e.do(t, http.MethodGet, "/profile", nil, "X-User-ID", "u2"); w.Code != http.StatusNotFound {
		t.Fatalf("profiles are per user: %d", w.Code)
	}

	invalid := []domain.OnboardingData{
		{Completed: true},
		{DegreeLevels: []string{"phd-ish"}},
		{Budget: &domain.BudgetPreference{CurrencyCode: "US", Max: 1}},
		{Budget: &domain.BudgetPreference{CurrencyCode: "USD", Min: 10, Max: 1}},
	}
	for i, d := range invalid {
		w := e.do(t, http.MethodPut, "/profile", d)
		if w.Code != http.StatusBadRequest || decode[ErrorResponse](t, w).Code != ErrCodeInvalidProfile {
			t.Errorf("case %d: %d %s", i, w.Code, w.Body.String())
		}
	}
	expectError(t, e.do(t, http.MethodPut, "/profile", "[1,2"), http.StatusBadRequest, ErrCodeBadRequest)
}

func TestBookmarks_Toggle(t *testing.T) {
	e := newTestEnv(t, echoLLM)

	w := e.do(t, http.MethodGet, "/bookmarks", nil)
	if list := decode[BookmarksResponse](t, w); w.Code != http.StatusOK || len(list.Bookmarks) != 0 {
		t.Fatalf("empty list: %d %+v", w.Code, list)
	}

	w = e.do(t, http.MethodPost, "/bookmarks/mit-001/toggle", nil)
	if r := decode[ToggleBookmarkResponse](t, w); w.Code != http.StatusOK || !r.Bookmarked || r.CollegeID != "mit-001" {
		t.Fatalf("add: %d %+v", w.Code, r)
	}
	w = e.do(t, http.MethodGet, "/bookmarks", nil)
	if list := decode[BookmarksResponse](t, w); len(list.Bookmarks) != 1 || list.Bookmarks[0].CollegeID != "mit-001" {
		t.Fatalf("list %+v", list)
	}

	w = e.do(t, http.MethodPost, "/bookmarks/mit-001/toggle", nil)
	if r := decode[ToggleBookmarkResponse](t, w); r.Bookmarked {
		t.Fatalf("remove: %+v", r)
	}
	w = e.do(t, http.MethodGet, "/bookmarks", nil)
	if list := decode[BookmarksResponse](t, w); len(list.Bookmarks) != 0 {
		t.Fatalf("after remove %+v", list)
	}
}

type failingBookmarks struct{ state bool }

func (f failingBookmarks) List(context.Context, string) ([]domain.Bookmark, error) {
	return nil, fmt.Errorf("store down")
}

func (f failingBookmarks) Toggle(context.Context, string, string) (bool, error) {
	return f.state, fmt.Errorf("%w: store down", services.ErrBookmarkFailed)
}

func TestBookmarks_Failures(t *testing.T) {
	e := newTestEnv(t, echoLLM, func(d *Deps) { d.Bookmarks = failingBookmarks{state: true} })

	w := e.do(t, http.MethodPost, "/bookmarks/mit-001/toggle", nil)
	if w.Code != http.StatusBadGateway || w.Header().Get("X-Error-Code") != ErrCodeBookmarkFailed {
		t.Fatalf("toggle: %d %v", w.Code, w.Header())
	}
	if r := decode[ToggleBookmarkResponse](t, w); !r.Bookmarked {
		t.Fatalf("reverted state must be reported: %+v", r)
	}

	expectError(t, e.do(t, http.MethodGet, "/bookmarks", nil), http.StatusInternalServerError, ErrCodeListFailed)
}

func TestBookmarks_InvalidCollege(t *testing.T) {
	e := newTestEnv(t, echoLLM)
	long := make([]byte, 65)
	for i := range long {
		long[i] = 'a'
	}
	expectError(t, e.do(t, http.MethodPost, "/bookmarks/"+string(long)+"/toggle", nil), http.StatusBadRequest, ErrCodeBadRequest)
}
