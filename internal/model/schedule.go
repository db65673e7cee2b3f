package model

import "time"

// Time is the nanosecond wire encoding the maintenance API uses for all
// timestamps and durations.
type Time struct {
	Nanoseconds int64 `json:"nanoseconds"`
}

// NewTime converts a Go duration into the wire encoding.
func NewTime(d time.Duration) Time {
	return Time{Nanoseconds: d.Nanoseconds()}
}

// NewTimeAt converts an absolute point in time into the wire encoding.
func NewTimeAt(t time.Time) Time {
	return Time{Nanoseconds: t.UnixNano()}
}

// Unavailability describes when a window's machines are expected to be
// offline: a start point and a duration from that point.
type Unavailability struct {
	Start    Time `json:"start"`
	Duration Time `json:"duration"`
}

// Window groups machines that share one unavailability interval.
type Window struct {
	MachineIDs     []MachineID    `json:"machine_ids"`
	Unavailability Unavailability `json:"unavailability"`
}

// Schedule is the master's full maintenance schedule document. The API
// models it as a single document: every update replaces the whole thing.
type Schedule struct {
	Windows []Window `json:"windows,omitempty"`
}

// Contains reports whether the machine appears in any window.
func (s *Schedule) Contains(id MachineID) bool {
	for _, w := range s.Windows {
		for _, mid := range w.MachineIDs {
			if mid.Equal(id) {
				return true
			}
		}
	}
	return false
}

// Append returns a copy of the schedule with a new single-machine window
// starting at start and lasting duration.
func (s *Schedule) Append(id MachineID, start time.Time, duration time.Duration) Schedule {
	windows := make([]Window, 0, len(s.Windows)+1)
	windows = append(windows, s.Windows...)
	windows = append(windows, Window{
		MachineIDs: []MachineID{id},
		Unavailability: Unavailability{
			Start:    NewTimeAt(start),
			Duration: NewTime(duration),
		},
	})
	return Schedule{Windows: windows}
}

// Remove returns a copy of the schedule with every reference to the machine
// stripped out, dropping windows that end up empty, and reports whether the
// machine was present at all.
func (s *Schedule) Remove(id MachineID) (Schedule, bool) {
	var removed bool
	windows := make([]Window, 0, len(s.Windows))
	for _, w := range s.Windows {
		ids := make([]MachineID, 0, len(w.MachineIDs))
		for _, mid := range w.MachineIDs {
			if mid.Equal(id) {
				removed = true
				continue
			}
			ids = append(ids, mid)
		}
		if len(ids) == 0 {
			continue
		}
		windows = append(windows, Window{
			MachineIDs:     ids,
			Unavailability: w.Unavailability,
		})
	}
	return Schedule{Windows: windows}, removed
}
