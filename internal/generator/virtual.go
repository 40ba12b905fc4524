package generator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
)

const (
	// MaxLimit caps a single ListVirtualLocations window.
	MaxLimit = 1000
	// MaxRank is the largest synthetic population rank.
	MaxRank = 1_000_000

	minPopularity = 0.05
)

// ItemSeed returns the seed of the item at index under path.
func ItemSeed(path string, index int) uint32 {
	return Hash(path + "|" + strconv.Itoa(index))
}

// ListVirtualLocations returns the window [offset, offset+limit) of the
// infinite virtual-location list rooted at path. The result depends only on
// its arguments, so two calls with the same triple return identical slices
// in any process.
func ListVirtualLocations(path string, offset, limit int) ([]domain.VirtualLocation, error) {
	if offset < 0 {
		return nil, invalid("offset", offset, "must be >= 0")
	}
	if limit < 0 {
		return nil, invalid("limit", limit, "must be >= 0")
	}
	if limit > MaxLimit {
		return nil, invalid("limit", limit, fmt.Sprintf("must be <= %d", MaxLimit))
	}
	if offset > math.MaxInt-limit {
		return nil, invalid("offset", offset, "window overflows")
	}

	level := pathLevel(path)
	out := make([]domain.VirtualLocation, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, virtualAt(path, offset+i, level))
	}
	return out, nil
}

// Verify reports whether id is the id currently generated for index under
// path. Invalid arguments yield false.
func Verify(id, path string, index int) bool {
	if id == "" || index < 0 {
		return false
	}
	return virtualAt(path, index, pathLevel(path)).ID == id
}

func virtualAt(path string, index, level int) domain.VirtualLocation {
	seed := ItemSeed(path, index)
	s := NewStream(int64(seed))

	label := nameFrom(s)
	rank := 1 + s.Intn(MaxRank)
	pop := math.Round((minPopularity+s.Next()*(1-minPopularity))*100) / 100

	return domain.VirtualLocation{
		ID:         virtualID(path, index, seed),
		Label:      label,
		Rank:       rank,
		Popularity: pop,
		Metadata:   domain.VirtualMetadata{Type: domain.LocationCity, Level: level},
	}
}

// virtualID combines the item seed with an independent hash of the same
// coordinates, giving 64 bits per (path, index).
func virtualID(path string, index int, seed uint32) string {
	return fmt.Sprintf("v%08x%08x", seed, Hash(strconv.Itoa(index)+"#"+path))
}

// pathLevel counts the non-empty segments of a slash-separated path.
func pathLevel(path string) int {
	n := 0
	for _, seg := range strings.Split(path, "/") {
		if strings.TrimSpace(seg) != "" {
			n++
		}
	}
	return n
}
