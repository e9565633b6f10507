package selection

import "slices"

// Snapshot is the selection as published to the shell.
type Snapshot struct {
	IDs        []string `json:"ids"`
	PrimaryID  string   `json:"primaryId,omitempty"`
	PointIndex int      `json:"pointIndex"`
}

// State is the current selection: an insertion-ordered id set, the primary
// element that vertex editing applies to, and the selected vertex or -1.
// It holds ids only; elements stay in the store.
type State struct {
	ids     []string
	primary string
	point   int
}

func NewState() *State {
	return &State{point: -1}
}

func (s *State) IDs() []string { return slices.Clone(s.ids) }

func (s *State) Primary() string { return s.primary }

func (s *State) PointIndex() int { return s.point }

func (s *State) Len() int { return len(s.ids) }

func (s *State) IsEmpty() bool { return len(s.ids) == 0 }

func (s *State) Contains(id string) bool { return slices.Contains(s.ids, id) }

// Replace selects exactly ids. primary may be empty.
func (s *State) Replace(ids []string, primary string) {
	s.ids = s.ids[:0]
	for _, id := range ids {
		if !slices.Contains(s.ids, id) {
			s.ids = append(s.ids, id)
		}
	}
	s.primary = primary
	s.point = -1
}

// Add appends id and makes it primary.
func (s *State) Add(id string) {
	if !s.Contains(id) {
		s.ids = append(s.ids, id)
	}
	if s.primary != id {
		s.point = -1
	}
	s.primary = id
}

// Remove drops id; if it was primary there is no primary afterwards.
func (s *State) Remove(id string) {
	s.ids = slices.DeleteFunc(s.ids, func(x string) bool { return x == id })
	if s.primary == id {
		s.primary = ""
		s.point = -1
	}
}

// SelectPoint sets the vertex of the primary element; -1 clears it.
func (s *State) SelectPoint(index int) {
	if s.primary == "" {
		index = -1
	}
	s.point = index
}

func (s *State) Clear() {
	s.ids = nil
	s.primary = ""
	s.point = -1
}

// Prune removes ids for which exists is false, such as elements removed by
// an undo. It reports whether anything changed.
func (s *State) Prune(exists func(id string) bool) bool {
	before := len(s.ids)
	s.ids = slices.DeleteFunc(s.ids, func(id string) bool { return !exists(id) })
	changed := len(s.ids) != before
	if s.primary != "" && !exists(s.primary) {
		s.primary = ""
		s.point = -1
		changed = true
	}
	return changed
}

func (s *State) Snapshot() Snapshot {
	ids := s.IDs()
	if ids == nil {
		ids = []string{}
	}
	return Snapshot{IDs: ids, PrimaryID: s.primary, PointIndex: s.point}
}

// Equal reports whether two snapshots describe the same selection.
func (a Snapshot) Equal(b Snapshot) bool {
	return slices.Equal(a.IDs, b.IDs) && a.PrimaryID == b.PrimaryID && a.PointIndex == b.PointIndex
}
