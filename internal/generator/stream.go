package generator

const (
	// modulus is the Mersenne prime 2^31-1 used by the Park–Miller generator.
	modulus int64 = 2147483647
	// multiplier is the Park–Miller "minimal standard" revision multiplier.
	multiplier int64 = 48271
)

// Stream is a seeded linear-congruential pseudo-random sequence. A Stream is
// not safe for concurrent use; each generation call owns its own.
type Stream struct {
	state int64
}

// NewStream returns a Stream whose sequence is fully determined by seed.
// Any seed, including zero and negatives, is mapped into [1, modulus-1] so the
// generator can never get stuck at zero.
func NewStream(seed int64) *Stream {
	s := seed % (modulus - 1)
	if s < 0 {
		s += modulus - 1
	}
	return &Stream{state: s + 1}
}

// Next advances the stream and returns a value in [0, 1).
func (s *Stream) Next() float64 {
	s.state = s.state * multiplier % modulus
	return float64(s.state-1) / float64(modulus-1)
}

// Intn returns a value in [0, n). It returns 0 when n <= 0.
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	i := int(s.Next() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// pick returns a deterministic element of table.
func (s *Stream) pick(table []string) string {
	return table[s.Intn(len(table))]
}
