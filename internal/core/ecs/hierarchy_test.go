package ecs

import (
	"reflect"
	"testing"
)

func TestDescendants(t *testing.T) {
	// 0
	// ├── 1
	// │   └── 3
	// └── 2
	//     └── 4 (despawned)
	//         └── 5
	w := NewWorld()
	w.Spawn(6)
	w.Parents().Set(1, Parent{Entity: 0})
	w.Parents().Set(2, Parent{Entity: 0})
	w.Parents().Set(3, Parent{Entity: 1})
	w.Parents().Set(4, Parent{Entity: 2})
	w.Parents().Set(5, Parent{Entity: 4})
	w.Spawned().Clear(4)

	if got := Descendants(w, 0); !reflect.DeepEqual(got, []Entity{1, 3, 2}) {
		t.Errorf("expected depth-first [1 3 2], got %v", got)
	}
	if got := Descendants(w, 4); !reflect.DeepEqual(got, []Entity{5}) {
		t.Errorf("expected [5] under despawned 4, got %v", got)
	}
	if got := Descendants(w, 3); len(got) != 0 {
		t.Errorf("expected leaf to have no descendants, got %v", got)
	}
	if got := Descendants(w, 99); len(got) != 0 {
		t.Errorf("expected unknown parent to have no descendants, got %v", got)
	}
}

func TestDescendantsCycle(t *testing.T) {
	w := NewWorld()
	w.Spawn(3)
	w.Parents().Set(0, Parent{Entity: 1})
	w.Parents().Set(1, Parent{Entity: 0})
	w.Parents().Set(2, Parent{Entity: 2})

	if got := Descendants(w, 0); !reflect.DeepEqual(got, []Entity{1}) {
		t.Errorf("expected [1], got %v", got)
	}
	if got := Descendants(w, 2); len(got) != 0 {
		t.Errorf("expected self-parent to report nothing, got %v", got)
	}
}
