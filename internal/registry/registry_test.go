package registry

import (
	"errors"
	"testing"
	"time"
)

func TestNewAssignsContiguousSlots(t *testing.T) {
	r, err := New([]string{"A", "B", "C"})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if r.Len() != 3 {
		t.Fatalf("expected 3 lockers, got %d", r.Len())
	}

	for i, id := range []string{"A", "B", "C"} {
		e, err := r.ByID(id)
		if err != nil {
			t.Fatalf("lookup %s: %v", id, err)
		}
		if e.SlotIndex != i+1 {
			t.Fatalf("locker %s: expected slot %d, got %d", id, i+1, e.SlotIndex)
		}
		if e.State != StateLocked {
			t.Fatalf("locker %s: expected default locked, got %s", id, e.State)
		}
	}
}

func TestNewRejectsInvalidConfigurations(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatalf("expected error for empty list")
	}
	if _, err := New([]string{"A", "B", "C", "D"}); err == nil {
		t.Fatalf("expected error for over-capacity list")
	}
	if _, err := New([]string{"A", ""}); err == nil {
		t.Fatalf("expected error for empty locker id")
	}
}

func TestLookupUnknown(t *testing.T) {
	r, _ := New([]string{"A"})

	if _, err := r.ByID("Z"); !errors.Is(err, ErrUnknownLocker) {
		t.Fatalf("expected ErrUnknownLocker, got %v", err)
	}
	if _, err := r.BySlot(9); !errors.Is(err, ErrUnknownLocker) {
		t.Fatalf("expected ErrUnknownLocker, got %v", err)
	}
	if err := r.SetState("Z", StateUnlocked, time.Now()); !errors.Is(err, ErrUnknownLocker) {
		t.Fatalf("expected ErrUnknownLocker, got %v", err)
	}
}

func TestSetStateUpdatesEntry(t *testing.T) {
	r, _ := New([]string{"A", "B"})
	now := time.Now()

	if err := r.SetState("B", StateUnlocked, now); err != nil {
		t.Fatalf("set state: %v", err)
	}

	e, _ := r.ByID("B")
	if e.State != StateUnlocked {
		t.Fatalf("expected unlocked, got %s", e.State)
	}
	if !e.LastUpdate.Equal(now) {
		t.Fatalf("expected last update %v, got %v", now, e.LastUpdate)
	}

	a, _ := r.ByID("A")
	if a.State != StateLocked {
		t.Fatalf("locker A mutated unexpectedly")
	}
}

func TestSetSlotState(t *testing.T) {
	r, _ := New([]string{"A", "B"})

	if err := r.SetSlotState(2, StateUnlocked, time.Now()); err != nil {
		t.Fatalf("set slot state: %v", err)
	}
	e, _ := r.ByID("B")
	if e.State != StateUnlocked {
		t.Fatalf("expected slot 2 (locker B) unlocked, got %s", e.State)
	}
}

func TestSetOccupied(t *testing.T) {
	r, _ := New([]string{"A"})

	if err := r.SetOccupied(1, true, time.Now()); err != nil {
		t.Fatalf("set occupied: %v", err)
	}
	e, _ := r.ByID("A")
	if e.Occupied == nil || !*e.Occupied {
		t.Fatalf("expected occupied true, got %v", e.Occupied)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	r, _ := New([]string{"A"})
	_ = r.SetOccupied(1, true, time.Now())

	snap := r.Snapshot()
	snap[0].State = StateUnlocked
	*snap[0].Occupied = false

	e, _ := r.ByID("A")
	if e.State != StateLocked {
		t.Fatalf("snapshot mutation leaked into registry state")
	}
	if !*e.Occupied {
		t.Fatalf("snapshot mutation leaked into registry occupancy")
	}
}
