// Package search provides a deterministic, concurrency-safe in-memory index
// over the onboarding interest taxonomy. The index is immutable after
// construction.
//
// Ranking:
//   - entries whose search slug contains the whole query rank first, earlier
//     match positions before later ones;
//   - remaining entries are scored by Jaccard similarity between the query
//     token set and the label token set: |Q ∩ L| / |Q ∪ L|;
//   - ties are broken by id, so the order is stable;
//   - each label appears at most once.
package search

import (
	"regexp"
	"sort"
	"strings"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
)

// Result is a ranked interest with its score. Substring matches score above 1.
type Result struct {
	Interest domain.InterestNode `json:"interest"`
	Score    float64             `json:"score"`
}

// Index is the minimal interface implemented by interest indices.
type Index interface {
	TopK(query string, k int) []Result
}

// DefaultK is used when TopK is called with k <= 0.
const DefaultK = 20

// Option configures an InterestIndex.
type Option func(*config)

type config struct {
	stopwords map[string]struct{}
}

func defaultConfig() config { return config{} }

// WithStopwords drops the given words from labels and queries.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

type entry struct {
	node   domain.InterestNode
	slug   string
	tokens map[string]struct{}
}

// InterestIndex implements Index over a fixed taxonomy.
type InterestIndex struct {
	cfg     config
	entries []entry
}

// NewInterestIndex builds an index over nodes. The nodes are copied.
func NewInterestIndex(nodes []domain.InterestNode, opts ...Option) *InterestIndex {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	entries := make([]entry, 0, len(nodes))
	for _, n := range nodes {
		entries = append(entries, entry{
			node:   n,
			slug:   strings.ToLower(n.SearchSlug),
			tokens: tokenize(n.Label, cfg.stopwords),
		})
	}
	sort.SliceStable(entries, func(a, b int) bool { return entries[a].node.ID < entries[b].node.ID })
	return &InterestIndex{cfg: cfg, entries: entries}
}

// Len returns the number of indexed interests.
func (i *InterestIndex) Len() int { return len(i.entries) }

// TopK returns up to k interests matching q. An empty query browses the
// taxonomy in id order.
func (i *InterestIndex) TopK(q string, k int) []Result {
	if len(i.entries) == 0 {
		return nil
	}
	if k <= 0 {
		k = DefaultK
	}
	q = strings.ToLower(strings.TrimSpace(normalizeWhitespace(q)))
	if q == "" {
		out := make([]Result, 0, min(k, len(i.entries)))
		seen := make(map[string]struct{}, cap(out))
		for j := 0; j < len(i.entries) && len(out) < k; j++ {
			if !firstLabel(seen, i.entries[j].node.Label) {
				continue
			}
			out = append(out, Result{Interest: i.entries[j].node})
		}
		return out
	}

	qTokens := tokenize(q, i.cfg.stopwords)
	qLen := len(qTokens)

	type scored struct {
		e     *entry
		score float64
	}
	buf := make([]scored, 0, min(k*4, len(i.entries)))
	for j := range i.entries {
		e := &i.entries[j]
		if pos := strings.Index(e.slug, q); pos >= 0 {
			// 1 < score <= 2, earlier matches higher.
			buf = append(buf, scored{e: e, score: 1 + 1/float64(pos+1)})
			continue
		}
		over := overlap(qTokens, e.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + len(e.tokens) - over)
		if union <= 0 {
			continue
		}
		buf = append(buf, scored{e: e, score: float64(over) / union})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		return buf[a].e.node.ID < buf[b].e.node.ID
	})

	// Labels repeat across categories; the best-ranked one, lowest id on
	// ties, stands for all of them.
	out := make([]Result, 0, min(k, len(buf)))
	seen := make(map[string]struct{}, cap(out))
	for j := 0; j < len(buf) && len(out) < k; j++ {
		if !firstLabel(seen, buf[j].e.node.Label) {
			continue
		}
		out = append(out, Result{Interest: buf[j].e.node, Score: buf[j].score})
	}
	return out
}

// firstLabel records label in seen and reports whether it was new.
func firstLabel(seen map[string]struct{}, label string) bool {
	key := strings.ToLower(label)
	if _, ok := seen[key]; ok {
		return false
	}
	seen[key] = struct{}{}
	return true
}

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
