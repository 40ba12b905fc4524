package location

import (
	"errors"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
)

// ErrNotChild is returned by DrillInto when node is not a child of the
// current drill position.
var ErrNotChild = errors.New("location is not a child of the current level")

// Phase is the coarse selector state.
type Phase string

const (
	AtRoot  Phase = "at_root"
	AtLevel Phase = "at_level"
)

// State describes the drill position. Depth is the drill-path length.
type State struct {
	Phase   Phase                `json:"phase"`
	Depth   int                  `json:"depth"`
	Current *domain.LocationNode `json:"current,omitempty"`
}

// Selector tracks the drill path and the multi-level selection. Drilling
// and selecting are independent: moving through the tree never changes what
// is selected, and toggling one node never touches its ancestors or
// descendants. A Selector is not safe for concurrent use.
type Selector struct {
	path     []domain.LocationNode
	selected []domain.LocationNode
}

// NewSelector returns a selector at the root with an optional initial selection.
func NewSelector(selected ...domain.LocationNode) *Selector {
	s := &Selector{}
	for _, n := range selected {
		if !s.IsSelected(n.ID) {
			s.selected = append(s.selected, n)
		}
	}
	return s
}

// DrillInto descends into node. Terminal nodes are toggled instead of drilled.
func (s *Selector) DrillInto(node domain.LocationNode) error {
	if !node.HasChildren {
		s.ToggleSelection(node)
		return nil
	}
	if len(s.path) == 0 {
		if !node.IsRoot() {
			return ErrNotChild
		}
	} else if node.ParentID != s.path[len(s.path)-1].ID {
		return ErrNotChild
	}
	s.path = append(s.path, node)
	return nil
}

// BreadcrumbJump truncates the drill path to depth index+1. A negative index
// returns to the root; an index at or past the current top does nothing.
func (s *Selector) BreadcrumbJump(index int) {
	switch {
	case index < 0:
		s.path = nil
	case index+1 < len(s.path):
		s.path = s.path[:index+1]
	}
}

// ToggleSelection adds node if absent or removes it if present.
func (s *Selector) ToggleSelection(node domain.LocationNode) {
	for i, n := range s.selected {
		if n.ID == node.ID {
			s.selected = append(s.selected[:i:i], s.selected[i+1:]...)
			return
		}
	}
	s.selected = append(s.selected, node)
}

// IsSelected reports whether id is selected.
func (s *Selector) IsSelected(id string) bool {
	for _, n := range s.selected {
		if n.ID == id {
			return true
		}
	}
	return false
}

// Path returns a copy of the drill path, root first.
func (s *Selector) Path() []domain.LocationNode {
	return append([]domain.LocationNode(nil), s.path...)
}

// Selected returns a copy of the selection in insertion order.
func (s *Selector) Selected() []domain.LocationNode {
	return append([]domain.LocationNode(nil), s.selected...)
}

// Current returns the node at the top of the drill path.
func (s *Selector) Current() (domain.LocationNode, bool) {
	if len(s.path) == 0 {
		return domain.LocationNode{}, false
	}
	return s.path[len(s.path)-1], true
}

// State returns the current drill position.
func (s *Selector) State() State {
	cur, ok := s.Current()
	if !ok {
		return State{Phase: AtRoot}
	}
	return State{Phase: AtLevel, Depth: len(s.path), Current: &cur}
}
