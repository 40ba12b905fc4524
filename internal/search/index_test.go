package search

import (
	"testing"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
)

func node(id, cat, sub, spec string) domain.InterestNode {
	return domain.InterestNode{
		ID: id, Label: spec, Category: cat, SubCategory: sub, Specialization: spec,
		SearchSlug: domain.InterestSlug(cat, sub, spec),
	}
}

func fixture() *InterestIndex {
	return NewInterestIndex([]domain.InterestNode{
		node("i3", "Engineering", "Computer Science", "Machine Learning"),
		node("i1", "Engineering", "Computer Science", "Applied Machine Learning"),
		node("i2", "Sciences", "Biology", "Genetics"),
		node("i4", "Business", "Finance", "Learning Analytics"),
		node("i5", "Health", "Medicine", "Public Health"),
	})
}

func TestWithStopwords(t *testing.T) {
	cfg := defaultConfig()
	WithStopwords([]string{"  Of ", "", "The"})(&cfg)
	if _, ok := cfg.stopwords["of"]; !ok {
		t.Fatalf("missing 'of': %#v", cfg.stopwords)
	}
	cfg2 := defaultConfig()
	WithStopwords(nil)(&cfg2)
	if cfg2.stopwords != nil {
		t.Fatal("empty stopwords should remain nil")
	}
}

func TestTopK_EmptyIndex(t *testing.T) {
	if got := NewInterestIndex(nil).TopK("x", 5); got != nil {
		t.Fatalf("got %v", got)
	}
}

func TestTopK_EmptyQueryBrowsesByID(t *testing.T) {
	got := fixture().TopK("   ", 3)
	if len(got) != 3 || got[0].Interest.ID != "i1" || got[1].Interest.ID != "i2" || got[2].Interest.ID != "i3" {
		t.Fatalf("got %+v", got)
	}
}

func TestTopK_SubstringBeforeTokenOverlap(t *testing.T) {
	got := fixture().TopK("machine learning", 10)
	if len(got) != 3 {
		t.Fatalf("len = %d: %+v", len(got), got)
	}
	// Both slugs contain the phrase; i3 matches earlier in its slug
	// ("engineering computer science machine learning") than i1.
	if got[0].Interest.ID != "i3" || got[1].Interest.ID != "i1" {
		t.Fatalf("order %s, %s", got[0].Interest.ID, got[1].Interest.ID)
	}
	if got[0].Score <= 1 || got[2].Score >= 1 {
		t.Fatalf("scores %v %v", got[0].Score, got[2].Score)
	}
	if got[2].Interest.ID != "i4" {
		t.Fatalf("token match should be last, got %s", got[2].Interest.ID)
	}
}

func TestTopK_CategoryMatches(t *testing.T) {
	got := fixture().TopK("Health", 0)
	if len(got) != 1 || got[0].Interest.ID != "i5" {
		t.Fatalf("got %+v", got)
	}
}

func TestTopK_NoMatch(t *testing.T) {
	if got := fixture().TopK("astronomy", 5); got != nil {
		t.Fatalf("got %+v", got)
	}
}

func TestTopK_KCaps(t *testing.T) {
	if got := fixture().TopK("e", 2); len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
}

func TestTopK_TieBreakByID(t *testing.T) {
	idx := NewInterestIndex([]domain.InterestNode{
		node("b", "X", "Y", "Alpha Beta"),
		node("a", "X", "Y", "Alpha Gamma"),
	})
	got := idx.TopK("alpha zzz", 2)
	if len(got) != 2 || got[0].Interest.ID != "a" {
		t.Fatalf("got %+v", got)
	}
}

func TestTopK_DistinctLabels(t *testing.T) {
	idx := NewInterestIndex([]domain.InterestNode{
		node("i1", "Engineering", "Mechanical", "Advanced Robotics"),
		node("i2", "Engineering", "Electrical", "Advanced Robotics"),
		node("i3", "Engineering", "Mechanical", "Advanced Robotics"),
		node("i4", "Sciences", "Computing", "Computational Robotics"),
		node("i5", "Sciences", "Computing", "Foundations of Robotics"),
	})
	for _, q := range []string{"robotics", ""} {
		got := idx.TopK(q, 10)
		if len(got) != 3 {
			t.Fatalf("q=%q: len = %d: %+v", q, len(got), got)
		}
		seen := map[string]bool{}
		for _, r := range got {
			if seen[r.Interest.Label] {
				t.Fatalf("q=%q: duplicate label %q in %+v", q, r.Interest.Label, got)
			}
			seen[r.Interest.Label] = true
		}
		if !seen["Computational Robotics"] || !seen["Foundations of Robotics"] {
			t.Fatalf("q=%q: distinct matches missing: %+v", q, got)
		}
	}
	// Same slug for i1 and i3: the lower id wins.
	for _, r := range idx.TopK("mechanical advanced robotics", 10) {
		if r.Interest.Label == "Advanced Robotics" && r.Interest.ID != "i1" {
			t.Fatalf("want i1, got %s", r.Interest.ID)
		}
	}
}
