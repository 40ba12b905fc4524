// Package personalize renders a user's onboarding preferences into the text
// block sent alongside every inference request.
package personalize

import (
	"strings"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
)

// Baseline is appended to every context and sent alone when the user has no
// profile.
const Baseline = `Advisor guidelines:
- You are a college admissions advisor. Recommend specific institutions and programs.
- When preferences are missing, ask about location, field of study, degree level and budget.
- Mention tuition ranges, admission requirements and application deadlines when known.
- Be concise and use short lists where they help.`

// Build returns the personalization context for profile. Empty preference
// fields are left out; a nil profile yields Baseline.
func Build(profile *domain.OnboardingData) string {
	if profile == nil {
		return Baseline
	}

	var lines []string
	add := func(label string, values []string) {
		values = nonEmpty(values)
		if len(values) > 0 {
			lines = append(lines, "- "+label+": "+strings.Join(values, ", "))
		}
	}

	add("Preferred locations", profile.LocationLabels())
	add("Interests", profile.Interests)
	add("Degree levels", profile.DegreeLevels)
	if b := profile.Budget; b != nil && strings.TrimSpace(b.Label) != "" {
		lines = append(lines, "- Budget: "+strings.TrimSpace(b.Label))
	}
	add("Study modes", profile.StudyModes)
	if l := strings.TrimSpace(profile.Language); l != "" {
		lines = append(lines, "- Language: "+l)
	}

	if len(lines) == 0 {
		return Baseline
	}
	return "User preferences:\n" + strings.Join(lines, "\n") + "\n\n" + Baseline
}

func nonEmpty(in []string) []string {
	out := in[:0:0]
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
