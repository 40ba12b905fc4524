// Package location serves the continent → country → state → city tree used by
// onboarding. Roots and countries come from static tables; states and cities
// are generated on first drill-down and cached for the life of the Catalog.
package location

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/generator"
)

var (
	// ErrUnknownNode is returned for an id the catalog has never produced.
	ErrUnknownNode = errors.New("unknown location")
	// ErrNoChildren is returned when expanding a terminal node.
	ErrNoChildren = errors.New("location has no children")
)

// Default fan-out of generated levels.
const (
	DefaultStatesPerCountry = 8
	DefaultCitiesPerState   = 12
)

type country struct{ code, label string }

var continents = []struct {
	id, label string
	countries []country
}{
	{"africa", "Africa", []country{{"eg", "Egypt"}, {"gh", "Ghana"}, {"ke", "Kenya"}, {"ng", "Nigeria"}, {"za", "South Africa"}}},
	{"asia", "Asia", []country{{"cn", "China"}, {"in", "India"}, {"jp", "Japan"}, {"kr", "South Korea"}, {"sg", "Singapore"}, {"ae", "United Arab Emirates"}}},
	{"europe", "Europe", []country{{"fr", "France"}, {"de", "Germany"}, {"ie", "Ireland"}, {"it", "Italy"}, {"nl", "Netherlands"}, {"es", "Spain"}, {"se", "Sweden"}, {"ch", "Switzerland"}, {"gb", "United Kingdom"}}},
	{"north-america", "North America", []country{{"ca", "Canada"}, {"mx", "Mexico"}, {"us", "United States"}}},
	{"south-america", "South America", []country{{"ar", "Argentina"}, {"br", "Brazil"}, {"cl", "Chile"}, {"co", "Colombia"}}},
	{"oceania", "Oceania", []country{{"au", "Australia"}, {"nz", "New Zealand"}}},
}

// Catalog is safe for concurrent use.
type Catalog struct {
	StatesPerCountry int
	CitiesPerState   int

	roots []domain.LocationNode

	mu       sync.RWMutex
	nodes    map[string]domain.LocationNode
	children map[string][]domain.LocationNode
	group    singleflight.Group
}

// NewCatalog returns a catalog seeded with the continent roots.
func NewCatalog() *Catalog {
	c := &Catalog{
		StatesPerCountry: DefaultStatesPerCountry,
		CitiesPerState:   DefaultCitiesPerState,
		nodes:            make(map[string]domain.LocationNode),
		children:         make(map[string][]domain.LocationNode),
	}
	for _, ct := range continents {
		n := domain.LocationNode{ID: ct.id, Label: ct.label, Type: domain.LocationContinent, HasChildren: true}
		c.roots = append(c.roots, n)
		c.nodes[n.ID] = n
	}
	return c
}

// Roots returns the continents. The slice is shared; callers must not modify it.
func (c *Catalog) Roots() []domain.LocationNode { return c.roots }

// Node looks up a node that has already been produced by Roots or Children.
// Use Resolve to look up an id from an earlier process.
func (c *Catalog) Node(id string) (domain.LocationNode, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.nodes[id]
	return n, ok
}

// Children returns the children of parentID, generating and caching them on
// the first call. Concurrent first calls for the same parent share one
// generation. The returned slice is shared; callers must not modify it.
func (c *Catalog) Children(ctx context.Context, parentID string) ([]domain.LocationNode, error) {
	c.mu.RLock()
	kids, cached := c.children[parentID]
	c.mu.RUnlock()
	if cached {
		return kids, nil
	}
	parent, err := c.Resolve(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if !parent.HasChildren {
		return nil, fmt.Errorf("%w: %q", ErrNoChildren, parentID)
	}

	ch := c.group.DoChan(parentID, func() (interface{}, error) {
		return c.fill(parent)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.LocationNode), nil
	}
}

// Resolve returns the node for id, expanding its ancestors when id has not
// been produced yet. Ids encode their ancestry ("europe/fr/s2"), so any id the
// catalog ever generated can be resolved by a fresh Catalog.
func (c *Catalog) Resolve(ctx context.Context, id string) (domain.LocationNode, error) {
	if n, ok := c.Node(id); ok {
		return n, nil
	}
	i := strings.LastIndexByte(id, '/')
	if i <= 0 {
		return domain.LocationNode{}, fmt.Errorf("%w: %q", ErrUnknownNode, id)
	}
	if _, err := c.Children(ctx, id[:i]); err != nil {
		if errors.Is(err, ErrNoChildren) {
			err = fmt.Errorf("%w: %q", ErrUnknownNode, id)
		}
		return domain.LocationNode{}, err
	}
	if n, ok := c.Node(id); ok {
		return n, nil
	}
	return domain.LocationNode{}, fmt.Errorf("%w: %q", ErrUnknownNode, id)
}

func (c *Catalog) fill(parent domain.LocationNode) ([]domain.LocationNode, error) {
	c.mu.RLock()
	if kids, ok := c.children[parent.ID]; ok {
		c.mu.RUnlock()
		return kids, nil
	}
	c.mu.RUnlock()

	kids, err := c.generate(parent)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.children[parent.ID]; ok {
		return existing, nil
	}
	for _, k := range kids {
		c.nodes[k.ID] = k
	}
	c.children[parent.ID] = kids
	log.Debug().Str("parent", parent.ID).Int("children", len(kids)).Msg("location children generated")
	return kids, nil
}

func (c *Catalog) generate(parent domain.LocationNode) ([]domain.LocationNode, error) {
	switch parent.Type {
	case domain.LocationContinent:
		for _, ct := range continents {
			if ct.id != parent.ID {
				continue
			}
			out := make([]domain.LocationNode, 0, len(ct.countries))
			for _, co := range ct.countries {
				out = append(out, domain.LocationNode{
					ID:          parent.ID + "/" + co.code,
					Label:       co.label,
					Type:        domain.LocationCountry,
					ParentID:    parent.ID,
					HasChildren: true,
				})
			}
			return out, nil
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, parent.ID)

	case domain.LocationCountry:
		out := make([]domain.LocationNode, 0, c.StatesPerCountry)
		for i := 0; i < c.StatesPerCountry; i++ {
			out = append(out, domain.LocationNode{
				ID:          parent.ID + "/s" + strconv.Itoa(i),
				Label:       generator.Name(generator.ItemSeed(parent.ID+"#state", i)),
				Type:        domain.LocationState,
				ParentID:    parent.ID,
				HasChildren: true,
			})
		}
		return out, nil

	case domain.LocationState:
		cities, err := generator.ListVirtualLocations(parent.ID, 0, c.CitiesPerState)
		if err != nil {
			return nil, err
		}
		out := make([]domain.LocationNode, 0, len(cities))
		for _, v := range cities {
			out = append(out, domain.LocationNode{
				ID:       parent.ID + "/" + v.ID,
				Label:    v.Label,
				Type:     domain.LocationCity,
				ParentID: parent.ID,
			})
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNoChildren, parent.ID)
}
