package cues

import (
	"slices"

	"subsync/internal/faults"
)

var (
	// ErrNoCuesFound reports input that contained no timed groups.
	ErrNoCuesFound = faults.Wrap(faults.ErrParse, "cues", "parse", "no cues found", nil)
	// ErrCapacityExceeded reports input with more groups than its estimated capacity.
	ErrCapacityExceeded = faults.Wrap(faults.ErrParse, "cues", "parse", "cue capacity exceeded", nil)
	// ErrCapacityEstimation reports input whose cue count could not be estimated.
	ErrCapacityEstimation = faults.Wrap(faults.ErrParse, "cues", "estimate", "cue capacity could not be estimated", nil)
)

// Cue is a single timed subtitle entry. Times are in seconds.
type Cue struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Text  string  `json:"text" yaml:"text"`
}

// Contains reports whether t falls inside the cue's closed display window.
func (c Cue) Contains(t float64) bool {
	return t >= c.Start && t <= c.End
}

// Set is an ordered list of cues, ascending by start time.
type Set []Cue

// Len returns the number of cues.
func (s Set) Len() int { return len(s) }

// Span returns the earliest start and latest end across the set.
func (s Set) Span() (float64, float64) {
	if len(s) == 0 {
		return 0, 0
	}
	first, last := s[0].Start, s[0].End
	for _, cue := range s[1:] {
		first = min(first, cue.Start)
		last = max(last, cue.End)
	}
	return first, last
}

// normalize enforces start <= end on every cue and stable start ordering.
func (s Set) normalize() Set {
	for i := range s {
		if s[i].End < s[i].Start {
			s[i].End = s[i].Start
		}
	}
	if !slices.IsSortedFunc(s, compareStart) {
		slices.SortStableFunc(s, compareStart)
	}
	return s
}

func compareStart(a, b Cue) int {
	switch {
	case a.Start < b.Start:
		return -1
	case a.Start > b.Start:
		return 1
	default:
		return 0
	}
}
