package generator

import (
	"testing"
	"unicode"
)

func TestName_Deterministic(t *testing.T) {
	for _, seed := range []uint32{0, 1, 99, 0xffffffff} {
		if Name(seed) != Name(seed) {
			t.Fatalf("Name(%d) not deterministic", seed)
		}
	}
}

func TestName_Shape(t *testing.T) {
	for seed := uint32(0); seed < 500; seed++ {
		n := Name(seed)
		r := []rune(n)
		if len(r) < 4 {
			t.Fatalf("Name(%d) = %q too short", seed, n)
		}
		if !unicode.IsUpper(r[0]) {
			t.Fatalf("Name(%d) = %q not capitalized", seed, n)
		}
		for _, c := range r[1:] {
			if !unicode.IsLower(c) {
				t.Fatalf("Name(%d) = %q has non-lowercase tail", seed, n)
			}
		}
	}
}
