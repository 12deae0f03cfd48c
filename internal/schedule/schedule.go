package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Slot is a wall-clock time of day in the schedule's zone.
type Slot struct {
	Hour   int
	Minute int
}

// ParseSlot parses "HH:MM".
func ParseSlot(value string) (Slot, error) {
	value = strings.TrimSpace(value)
	hour, minute, ok := strings.Cut(value, ":")
	if !ok || len(hour) != 2 || len(minute) != 2 {
		return Slot{}, fmt.Errorf("slot %q must be HH:MM", value)
	}
	h, err := strconv.Atoi(hour)
	if err != nil || h < 0 || h > 23 {
		return Slot{}, fmt.Errorf("slot %q has an invalid hour", value)
	}
	m, err := strconv.Atoi(minute)
	if err != nil || m < 0 || m > 59 {
		return Slot{}, fmt.Errorf("slot %q has an invalid minute", value)
	}
	return Slot{Hour: h, Minute: m}, nil
}

// String renders the slot as HH:MM.
func (s Slot) String() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

// Minutes is the slot's offset from midnight.
func (s Slot) Minutes() int {
	return s.Hour*60 + s.Minute
}

// On returns the slot's instant on the calendar day of day, in loc.
func (s Slot) On(day time.Time, loc *time.Location) time.Time {
	local := day.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), s.Hour, s.Minute, 0, 0, loc)
}

// Schedule is a fixed set of daily slots in one fixed-offset zone.
type Schedule struct {
	Slots    []Slot
	Location *time.Location
}

// Occurrence is one slot pinned to an absolute instant.
type Occurrence struct {
	Slot Slot
	At   time.Time
}

// New parses the slot strings and sorts them by time of day.
func New(slots []string, loc *time.Location) (*Schedule, error) {
	if len(slots) == 0 {
		return nil, errors.New("schedule: at least one slot is required")
	}
	if loc == nil {
		loc = time.UTC
	}
	parsed := make([]Slot, 0, len(slots))
	for _, raw := range slots {
		slot, err := ParseSlot(raw)
		if err != nil {
			return nil, fmt.Errorf("schedule: %w", err)
		}
		parsed = append(parsed, slot)
	}
	sort.Slice(parsed, func(i, j int) bool { return parsed[i].Minutes() < parsed[j].Minutes() })
	return &Schedule{Slots: parsed, Location: loc}, nil
}

// Next returns the earliest slot occurrence strictly after now. A slot whose
// time today has already arrived rolls over to tomorrow.
func (s *Schedule) Next(now time.Time) Occurrence {
	var best Occurrence
	for _, slot := range s.Slots {
		at := slot.On(now, s.Location)
		if !at.After(now) {
			at = slot.On(now.In(s.Location).AddDate(0, 0, 1), s.Location)
		}
		if best.At.IsZero() || at.Before(best.At) {
			best = Occurrence{Slot: slot, At: at}
		}
	}
	return best
}

// Missed returns today's slots that passed less than window ago: those with
// slot < now <= slot+window.
func (s *Schedule) Missed(now time.Time, window time.Duration) []Occurrence {
	if window <= 0 {
		return nil
	}
	var missed []Occurrence
	for _, slot := range s.Slots {
		at := slot.On(now, s.Location)
		if now.After(at) && !now.After(at.Add(window)) {
			missed = append(missed, Occurrence{Slot: slot, At: at})
		}
	}
	return missed
}

// Current returns the slot matching now's wall clock, used for manual
// triggers.
func (s *Schedule) Current(now time.Time) Slot {
	local := now.In(s.Location)
	return Slot{Hour: local.Hour(), Minute: local.Minute()}
}

// Key identifies a slot on a given day for deduplication.
func (s *Schedule) Key(day time.Time, slot Slot) string {
	return day.In(s.Location).Format(time.DateOnly) + "_" + slot.String()
}

// StatusLine describes the wait until the next upload, e.g.
// "Next upload in 3h 12m at 19:00 IST".
func (s *Schedule) StatusLine(now time.Time) string {
	next := s.Next(now)
	wait := next.At.Sub(now)
	hours := int(wait.Hours())
	minutes := int(wait.Minutes()) % 60
	zone, _ := next.At.Zone()
	return fmt.Sprintf("Next upload in %dh %dm at %s %s", hours, minutes, next.Slot, zone)
}

// Strings returns the slots as HH:MM values.
func (s *Schedule) Strings() []string {
	out := make([]string, len(s.Slots))
	for i, slot := range s.Slots {
		out[i] = slot.String()
	}
	return out
}
