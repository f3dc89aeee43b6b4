package datastruct

import (
	"reflect"
	"testing"
)

func TestRingBufferSnapshotOrder(t *testing.T) {
	r := NewRingBuffer(3)
	r.Push("a")
	r.Push("b")
	r.Push("c")
	if got := r.Snapshot(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("Snapshot() = %v, want [a b c]", got)
	}
}

func TestRingBufferEvictsOldestOnOverflow(t *testing.T) {
	r := NewRingBuffer(2)
	r.Push("a")
	r.Push("b")
	r.Push("c")
	if got := r.Snapshot(); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Fatalf("Snapshot() = %v, want [b c]", got)
	}
}

func TestRingBufferClear(t *testing.T) {
	r := NewRingBuffer(2)
	r.Push("a")
	r.Clear()
	if got := r.Snapshot(); len(got) != 0 {
		t.Fatalf("Snapshot() after Clear() = %v, want empty", got)
	}
}

func TestNewRingBufferPanicsOnZeroCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for zero capacity")
		}
	}()
	NewRingBuffer(0)
}
