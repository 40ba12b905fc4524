package personalize

import (
	"strings"
	"testing"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
)

func TestBuild_NilProfileIsBaseline(t *testing.T) {
	if got := Build(nil); got != Baseline {
		t.Fatalf("got %q", got)
	}
}

func TestBuild_EmptyProfileIsBaseline(t *testing.T) {
	if got := Build(&domain.OnboardingData{Interests: []string{"  "}}); got != Baseline {
		t.Fatalf("got %q", got)
	}
}

func TestBuild_FullProfile(t *testing.T) {
	p := &domain.OnboardingData{
		Locations: []domain.LocationNode{
			{ID: "europe/fr", Label: "France"},
			{ID: "asia/jp", Label: "Japan"},
		},
		Interests:    []string{"Robotics", "Machine Learning"},
		DegreeLevels: []string{"masters"},
		Budget:       &domain.BudgetPreference{CurrencyCode: "USD", Min: 10000, Max: 30000, Label: "$10,000 - $30,000"},
		StudyModes:   []string{"on_campus"},
		Language:     "English",
		Completed:    true,
	}
	want := "User preferences:\n" +
		"- Preferred locations: France, Japan\n" +
		"- Interests: Robotics, Machine Learning\n" +
		"- Degree levels: masters\n" +
		"- Budget: $10,000 - $30,000\n" +
		"- Study modes: on_campus\n" +
		"- Language: English\n\n" + Baseline
	if got := Build(p); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuild_OmitsEmptyFields(t *testing.T) {
	got := Build(&domain.OnboardingData{Interests: []string{"Law"}})
	if strings.Contains(got, "Budget") || strings.Contains(got, "Language") || strings.Contains(got, "locations") {
		t.Fatalf("empty fields leaked: %q", got)
	}
	if !strings.HasPrefix(got, "User preferences:\n- Interests: Law\n") || !strings.HasSuffix(got, Baseline) {
		t.Fatalf("got %q", got)
	}
}
