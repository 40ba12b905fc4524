package domain

import "strings"

// LocationType is the level of a node in the geography tree.
type LocationType string

const (
	LocationContinent LocationType = "continent"
	LocationCountry   LocationType = "country"
	LocationState     LocationType = "state"
	LocationCity      LocationType = "city"
)

var locationOrder = []LocationType{LocationContinent, LocationCountry, LocationState, LocationCity}

// Level returns the depth of t (continent = 0) or -1 for an unknown type.
func (t LocationType) Level() int {
	for i, v := range locationOrder {
		if v == t {
			return i
		}
	}
	return -1
}

// Child returns the type one level below t. The second result is false for
// cities and unknown types.
func (t LocationType) Child() (LocationType, bool) {
	l := t.Level()
	if l < 0 || l+1 >= len(locationOrder) {
		return "", false
	}
	return locationOrder[l+1], true
}

// LocationNode is a node in the hierarchical geography tree.
type LocationNode struct {
	ID          string       `json:"id"`
	Label       string       `json:"label"`
	Type        LocationType `json:"type"`
	ParentID    string       `json:"parent_id,omitempty"`
	HasChildren bool         `json:"has_children"`
}

// IsRoot reports whether n has no parent.
func (n LocationNode) IsRoot() bool { return n.ParentID == "" }

// InterestNode is a leaf of the academic-interest taxonomy.
type InterestNode struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	Category       string `json:"category"`
	SubCategory    string `json:"sub_category"`
	Specialization string `json:"specialization"`
	SearchSlug     string `json:"search_slug"`
}

// InterestSlug derives the search slug of an interest from its taxonomy
// path. InterestNode.SearchSlug always equals this value.
func InterestSlug(category, subCategory, specialization string) string {
	return strings.ToLower(category + " " + subCategory + " " + specialization)
}

// VirtualLocation is a procedurally generated place.
type VirtualLocation struct {
	ID         string          `json:"id"`
	Label      string          `json:"label"`
	Rank       int             `json:"rank"`
	Popularity float64         `json:"popularity"`
	Metadata   VirtualMetadata `json:"metadata"`
}

// VirtualMetadata describes where a virtual location sits in the hierarchy.
type VirtualMetadata struct {
	Type  LocationType `json:"type"`
	Level int          `json:"level"`
}

// BudgetPreference is the tuition budget chosen during onboarding.
type BudgetPreference struct {
	CurrencyCode string `json:"currency_code"`
	Min          int64  `json:"min"`
	Max          int64  `json:"max"`
	Label        string `json:"label"`
	IsCustom     bool   `json:"is_custom"`
}

// OnboardingData is the user preference profile.
type OnboardingData struct {
	Locations    []LocationNode    `json:"locations"`
	Interests    []string          `json:"interests"`
	DegreeLevels []string          `json:"degree_levels"`
	Budget       *BudgetPreference `json:"budget,omitempty"`
	StudyModes   []string          `json:"study_modes"`
	Language     string            `json:"language"`
	Completed    bool              `json:"completed"`
}

// LocationLabels returns the labels of the selected locations in order.
func (d *OnboardingData) LocationLabels() []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, len(d.Locations))
	for _, l := range d.Locations {
		out = append(out, l.Label)
	}
	return out
}
