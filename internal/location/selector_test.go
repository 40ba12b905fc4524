package location

import (
	"errors"
	"testing"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
)

var (
	europe = domain.LocationNode{ID: "europe", Label: "Europe", Type: domain.LocationContinent, HasChildren: true}
	france = domain.LocationNode{ID: "europe/fr", Label: "France", Type: domain.LocationCountry, ParentID: "europe", HasChildren: true}
	idf    = domain.LocationNode{ID: "europe/fr/s0", Label: "Brava", Type: domain.LocationState, ParentID: "europe/fr", HasChildren: true}
	paris  = domain.LocationNode{ID: "europe/fr/s0/v1", Label: "Paris", Type: domain.LocationCity, ParentID: "europe/fr/s0"}
	asia   = domain.LocationNode{ID: "asia", Label: "Asia", Type: domain.LocationContinent, HasChildren: true}
)

func ids(nodes []domain.LocationNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSelector_DrillingDoesNotChangeSelection(t *testing.T) {
	s := NewSelector()
	s.ToggleSelection(asia)
	for _, n := range []domain.LocationNode{europe, france, idf} {
		if err := s.DrillInto(n); err != nil {
			t.Fatalf("drill %s: %v", n.ID, err)
		}
	}
	s.BreadcrumbJump(0)
	s.BreadcrumbJump(-1)
	if !equal(ids(s.Selected()), []string{"asia"}) {
		t.Fatalf("selection changed: %v", ids(s.Selected()))
	}
}

func TestSelector_ToggleIsExact(t *testing.T) {
	s := NewSelector()
	s.ToggleSelection(europe)
	s.ToggleSelection(france)
	s.ToggleSelection(paris)
	if !equal(ids(s.Selected()), []string{"europe", "europe/fr", "europe/fr/s0/v1"}) {
		t.Fatalf("got %v", ids(s.Selected()))
	}
	s.ToggleSelection(france)
	if !equal(ids(s.Selected()), []string{"europe", "europe/fr/s0/v1"}) {
		t.Fatalf("removing a parent must not cascade: %v", ids(s.Selected()))
	}
	if s.IsSelected("europe/fr") || !s.IsSelected("europe") {
		t.Fatal("IsSelected mismatch")
	}
}

func TestSelector_DrillTerminalToggles(t *testing.T) {
	s := NewSelector()
	_ = s.DrillInto(europe)
	_ = s.DrillInto(france)
	_ = s.DrillInto(idf)
	if err := s.DrillInto(paris); err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(s.Path()) != 3 || !s.IsSelected(paris.ID) {
		t.Fatal("terminal node should be selected, not drilled")
	}
	_ = s.DrillInto(paris)
	if s.IsSelected(paris.ID) {
		t.Fatal("second drill should deselect")
	}
}

func TestSelector_DrillRequiresParentLink(t *testing.T) {
	s := NewSelector()
	if err := s.DrillInto(france); !errors.Is(err, ErrNotChild) {
		t.Fatalf("drilling a country from root: %v", err)
	}
	_ = s.DrillInto(europe)
	if err := s.DrillInto(asia); !errors.Is(err, ErrNotChild) {
		t.Fatalf("drilling a sibling root: %v", err)
	}
	if len(s.Path()) != 1 {
		t.Fatal("failed drill must not change the path")
	}
}

func TestSelector_BreadcrumbJump(t *testing.T) {
	s := NewSelector()
	_ = s.DrillInto(europe)
	_ = s.DrillInto(france)
	_ = s.DrillInto(idf)

	s.BreadcrumbJump(5)
	if len(s.Path()) != 3 {
		t.Fatal("jump beyond depth should be a no-op")
	}
	s.BreadcrumbJump(2)
	if len(s.Path()) != 3 {
		t.Fatal("jump to current top should be a no-op")
	}
	s.BreadcrumbJump(0)
	if !equal(ids(s.Path()), []string{"europe"}) {
		t.Fatalf("got %v", ids(s.Path()))
	}
	if st := s.State(); st.Phase != AtLevel || st.Depth != 1 || st.Current.ID != "europe" {
		t.Fatalf("state %+v", st)
	}
	s.BreadcrumbJump(-1)
	if st := s.State(); st.Phase != AtRoot || st.Depth != 0 || st.Current != nil {
		t.Fatalf("state %+v", st)
	}
}

func TestSelector_CopiesAreIndependent(t *testing.T) {
	s := NewSelector(europe, europe)
	if len(s.Selected()) != 1 {
		t.Fatal("initial selection should be de-duplicated")
	}
	sel := s.Selected()
	sel[0].Label = "changed"
	if s.Selected()[0].Label != "Europe" {
		t.Fatal("Selected must return a copy")
	}
}
