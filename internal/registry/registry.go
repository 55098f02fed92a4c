// Package registry holds the in-memory table of configured lockers. The
// table is owned by the control loop; all mutation happens on that
// goroutine.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxLockers is the hardware capacity of one module.
const MaxLockers = 3

// State is a locker's authoritative local lock state.
type State string

const (
	StateLocked   State = "locked"
	StateUnlocked State = "unlocked"
)

// ErrUnknownLocker is returned when a locker id or slot does not resolve.
var ErrUnknownLocker = errors.New("registry: unknown locker")

// Entry represents one physical locker.
type Entry struct {
	ID         string
	SlotIndex  int // 1-based, matches the subordinate controller's indexing
	State      State
	Occupied   *bool // nil on variants without an occupancy sensor
	LastUpdate time.Time
}

// Registry is the module's locker table, built once from the persisted
// configuration.
type Registry struct {
	entries []*Entry
}

// New builds a registry from the coordinator-assigned locker id list. Slot
// indexes are assigned by position, starting at 1.
func New(lockerIDs []string) (*Registry, error) {
	if len(lockerIDs) == 0 {
		return nil, errors.New("registry: no lockers configured")
	}
	if len(lockerIDs) > MaxLockers {
		return nil, fmt.Errorf("registry: %d lockers exceeds capacity %d", len(lockerIDs), MaxLockers)
	}

	r := &Registry{}
	for i, id := range lockerIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("registry: empty locker id at position %d", i)
		}
		r.entries = append(r.entries, &Entry{
			ID:        id,
			SlotIndex: i + 1,
			State:     StateLocked,
		})
	}
	return r, nil
}

// Len returns the number of configured lockers.
func (r *Registry) Len() int {
	return len(r.entries)
}

// ByID resolves a coordinator-assigned locker id.
func (r *Registry) ByID(lockerID string) (*Entry, error) {
	for _, e := range r.entries {
		if e.ID == lockerID {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownLocker, lockerID)
}

// BySlot resolves a physical slot index.
func (r *Registry) BySlot(slot int) (*Entry, error) {
	for _, e := range r.entries {
		if e.SlotIndex == slot {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: slot %d", ErrUnknownLocker, slot)
}

// SetState records a confirmed actuation for the given locker.
func (r *Registry) SetState(lockerID string, state State, now time.Time) error {
	e, err := r.ByID(lockerID)
	if err != nil {
		return err
	}
	e.State = state
	e.LastUpdate = now
	return nil
}

// SetSlotState records a state push from the subordinate controller.
func (r *Registry) SetSlotState(slot int, state State, now time.Time) error {
	e, err := r.BySlot(slot)
	if err != nil {
		return err
	}
	e.State = state
	e.LastUpdate = now
	return nil
}

// SetOccupied records an occupancy reading for the given slot.
func (r *Registry) SetOccupied(slot int, occupied bool, now time.Time) error {
	e, err := r.BySlot(slot)
	if err != nil {
		return err
	}
	e.Occupied = &occupied
	e.LastUpdate = now
	return nil
}

// Snapshot returns a copy of every entry, in slot order. Used by the
// periodic status broadcast.
func (r *Registry) Snapshot() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		copied := *e
		if e.Occupied != nil {
			v := *e.Occupied
			copied.Occupied = &v
		}
		out = append(out, copied)
	}
	return out
}
