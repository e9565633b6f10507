package selection

import (
	"reflect"
	"testing"
)

func TestStateReplaceAndModifiers(t *testing.T) {
	s := NewState()
	if s.PointIndex() != -1 {
		t.Fatalf("PointIndex() = %d, want -1", s.PointIndex())
	}

	s.Replace([]string{"a", "b", "a"}, "b")
	s.SelectPoint(2)
	if got := s.IDs(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("IDs() = %v, want [a b]", got)
	}

	s.Add("c")
	if s.Primary() != "c" || s.PointIndex() != -1 {
		t.Errorf("after Add: primary %q point %d", s.Primary(), s.PointIndex())
	}

	s.Remove("c")
	if s.Primary() != "" || s.Contains("c") {
		t.Errorf("after Remove: primary %q contains %v", s.Primary(), s.Contains("c"))
	}

	s.SelectPoint(1)
	if s.PointIndex() != -1 {
		t.Errorf("SelectPoint without primary = %d, want -1", s.PointIndex())
	}
}

func TestStatePrune(t *testing.T) {
	s := NewState()
	s.Replace([]string{"a", "b"}, "b")
	s.SelectPoint(0)

	alive := map[string]bool{"a": true}
	if !s.Prune(func(id string) bool { return alive[id] }) {
		t.Fatal("Prune() = false, want true")
	}
	want := Snapshot{IDs: []string{"a"}, PrimaryID: "", PointIndex: -1}
	if got := s.Snapshot(); !got.Equal(want) {
		t.Errorf("Snapshot() = %+v, want %+v", got, want)
	}
	if s.Prune(func(id string) bool { return alive[id] }) {
		t.Error("second Prune() = true, want false")
	}
}

func TestSnapshotOfEmptyState(t *testing.T) {
	snap := NewState().Snapshot()
	if snap.IDs == nil || len(snap.IDs) != 0 {
		t.Errorf("IDs = %#v, want empty non-nil slice", snap.IDs)
	}
}
