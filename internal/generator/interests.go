package generator

import (
	"fmt"
	"math/rand/v2"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
)

// DefaultInterestCount is the taxonomy size used by onboarding.
const DefaultInterestCount = 3000

// MaxInterestCount caps GenerateInterests.
const MaxInterestCount = 100_000

// taxonomy maps category -> sub-category -> base specializations.
var taxonomy = []struct {
	category string
	subs     []subCategory
}{
	{"Engineering", []subCategory{
		{"Computer Science", []string{"Machine Learning", "Distributed Systems", "Cybersecurity", "Human-Computer Interaction"}},
		{"Mechanical Engineering", []string{"Robotics", "Thermodynamics", "Automotive Design", "Manufacturing"}},
		{"Electrical Engineering", []string{"Power Systems", "Embedded Systems", "Signal Processing", "VLSI Design"}},
		{"Civil Engineering", []string{"Structural Design", "Transportation", "Water Resources", "Urban Infrastructure"}},
	}},
	{"Sciences", []subCategory{
		{"Physics", []string{"Astrophysics", "Quantum Mechanics", "Condensed Matter", "Optics"}},
		{"Chemistry", []string{"Organic Chemistry", "Materials Chemistry", "Biochemistry", "Analytical Chemistry"}},
		{"Biology", []string{"Genetics", "Ecology", "Microbiology", "Neuroscience"}},
		{"Mathematics", []string{"Statistics", "Applied Mathematics", "Number Theory", "Operations Research"}},
	}},
	{"Business", []subCategory{
		{"Management", []string{"Strategy", "Entrepreneurship", "Supply Chain", "Human Resources"}},
		{"Finance", []string{"Investment Banking", "Financial Analytics", "Fintech", "Corporate Finance"}},
		{"Marketing", []string{"Digital Marketing", "Brand Management", "Consumer Behaviour", "Market Research"}},
	}},
	{"Health", []subCategory{
		{"Medicine", []string{"Cardiology", "Pediatrics", "Public Health", "Surgery"}},
		{"Nursing", []string{"Critical Care", "Community Nursing", "Midwifery", "Geriatric Care"}},
		{"Pharmacy", []string{"Pharmacology", "Clinical Pharmacy", "Drug Discovery", "Toxicology"}},
	}},
	{"Arts & Humanities", []subCategory{
		{"Design", []string{"Graphic Design", "Industrial Design", "Fashion Design", "Interaction Design"}},
		{"Literature", []string{"Creative Writing", "Comparative Literature", "Linguistics", "Journalism"}},
		{"History", []string{"Ancient History", "Modern History", "Archaeology", "Art History"}},
	}},
	{"Social Sciences", []subCategory{
		{"Economics", []string{"Development Economics", "Behavioural Economics", "Econometrics", "Public Policy"}},
		{"Psychology", []string{"Clinical Psychology", "Cognitive Psychology", "Organisational Psychology", "Child Development"}},
		{"Law", []string{"Corporate Law", "International Law", "Human Rights", "Intellectual Property"}},
	}},
}

type subCategory struct {
	name  string
	specs []string
}

// focuses widen the base specializations into a large leaf set.
var focuses = []string{"", "Applied", "Advanced", "Foundations of", "Research in", "Computational", "Global", "Sustainable"}

// Intner is the random source used by GenerateInterests.
type Intner interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// GenerateInterests samples count interests from the taxonomy using the
// global random source. Two calls return different orderings; nothing may
// persist an interest id expecting it to be regenerated later.
func GenerateInterests(count int) ([]domain.InterestNode, error) {
	return GenerateInterestsFrom(globalSource{}, count)
}

// GenerateInterestsSeeded is the reproducible form of GenerateInterests.
func GenerateInterestsSeeded(seed uint64, count int) ([]domain.InterestNode, error) {
	return GenerateInterestsFrom(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), count)
}

// GenerateInterestsFrom samples count interests using r.
func GenerateInterestsFrom(r Intner, count int) ([]domain.InterestNode, error) {
	if count < 0 {
		return nil, invalid("count", count, "must be >= 0")
	}
	if count > MaxInterestCount {
		return nil, invalid("count", count, fmt.Sprintf("must be <= %d", MaxInterestCount))
	}

	out := make([]domain.InterestNode, 0, count)
	for i := 0; i < count; i++ {
		cat := taxonomy[r.IntN(len(taxonomy))]
		sub := cat.subs[r.IntN(len(cat.subs))]
		spec := sub.specs[r.IntN(len(sub.specs))]
		if f := focuses[r.IntN(len(focuses))]; f != "" {
			spec = f + " " + spec
		}
		out = append(out, domain.InterestNode{
			ID:             fmt.Sprintf("interest-%05d", i+1),
			Label:          spec,
			Category:       cat.category,
			SubCategory:    sub.name,
			Specialization: spec,
			SearchSlug:     domain.InterestSlug(cat.category, sub.name, spec),
		})
	}
	return out, nil
}
