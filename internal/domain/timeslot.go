package domain

import (
	"fmt"
	"sort"
)

// TimeSlot is an immutable bookable hour range from the slot catalog
type TimeSlot struct {
	ID        int64
	Code      string
	StartHour int
	EndHour   int
}

// Validate checks the hour range of the slot
func (t TimeSlot) Validate() error {
	if t.StartHour < MinSlotHour || t.StartHour > MaxSlotHour {
		return fmt.Errorf("%w: start hour %d out of range", ErrValidation, t.StartHour)
	}
	if t.EndHour < MinSlotHour || t.EndHour > MaxSlotHour {
		return fmt.Errorf("%w: end hour %d out of range", ErrValidation, t.EndHour)
	}
	if t.EndHour <= t.StartHour {
		return fmt.Errorf("%w: end hour must be after start hour", ErrValidation)
	}
	return nil
}

// Label returns the human readable range, e.g. "14:00-15:00"
func (t TimeSlot) Label() string {
	return fmt.Sprintf("%02d:00-%02d:00", t.StartHour, t.EndHour)
}

// Overlaps returns true if the two hour ranges intersect (touching ranges do not)
func (t TimeSlot) Overlaps(other TimeSlot) bool {
	return t.StartHour < other.EndHour && other.StartHour < t.EndHour
}

// MaxEndHour returns the latest end hour among the slots.
// The second value is false when slots is empty.
func MaxEndHour(slots []TimeSlot) (int, bool) {
	if len(slots) == 0 {
		return 0, false
	}
	maxEnd := slots[0].EndHour
	for _, s := range slots[1:] {
		if s.EndHour > maxEnd {
			maxEnd = s.EndHour
		}
	}
	return maxEnd, true
}

// SlotsOverlap returns true if any slot of a intersects any slot of b
func SlotsOverlap(a, b []TimeSlot) bool {
	for _, x := range a {
		for _, y := range b {
			if x.ID == y.ID || x.Overlaps(y) {
				return true
			}
		}
	}
	return false
}

// SortSlots orders slots by start hour
func SortSlots(slots []TimeSlot) {
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].StartHour < slots[j].StartHour
	})
}
