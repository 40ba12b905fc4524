package generator

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Phoneme tables. Changing any entry changes every generated label and id;
// Verify exists to detect ids minted under an older table.
var (
	onsets = []string{
		"b", "br", "c", "ch", "d", "dr", "f", "g", "gr", "h", "j", "k", "kr",
		"l", "m", "n", "p", "pr", "r", "s", "sh", "st", "t", "th", "tr", "v", "w", "z",
	}
	nuclei = []string{"a", "e", "i", "o", "u", "ai", "ea", "ia", "io", "ou"}
	codas  = []string{"n", "r", "l", "s", "m", "th", "x", "nd", "rt", "sk"}
)

// codaChance is the probability that a syllable ends in a coda consonant.
const codaChance = 0.4

// Name builds a pronounceable place name of two or three syllables from seed.
func Name(seed uint32) string {
	return nameFrom(NewStream(int64(seed)))
}

func nameFrom(s *Stream) string {
	n := 2 + s.Intn(2)
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(s.pick(onsets))
		b.WriteString(s.pick(nuclei))
		if s.Next() < codaChance {
			b.WriteString(s.pick(codas))
		}
	}
	// A Caser keeps state, so one is built per call.
	return cases.Title(language.Und).String(b.String())
}
