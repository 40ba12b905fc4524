// Package generator produces stable synthetic data without a backing store:
// procedurally named virtual locations addressed by (path, index), and the
// academic-interest taxonomy used during onboarding.
//
// Everything that feeds an identifier (Hash, Stream, Name,
// ListVirtualLocations) is a pure function of its inputs and yields the same
// output on every platform. GenerateInterests is the exception: it samples
// from the global random source unless a seeded source is supplied.
package generator

import "hash/fnv"

// Hash returns the 32-bit FNV-1a hash of input's bytes.
//
//	Hash("")  == 0x811c9dc5
//	Hash("a") == 0xe40c292c
func Hash(input string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(input))
	return h.Sum32()
}
