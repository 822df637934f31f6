package cues

import (
	"strconv"
	"strings"
)

const timecodeSeparator = " --> "

// EstimateCapacity sizes the cue set for the given lines. The last timecode
// line is usually preceded by its SRT index; since indexes may start at zero,
// the capacity is that index plus one. Without an index the estimate falls
// back to one cue per three lines.
func EstimateCapacity(lines []string) (int, error) {
	for i := len(lines) - 1; i >= 1; i-- {
		if !strings.Contains(lines[i], timecodeSeparator) {
			continue
		}
		if index, err := strconv.Atoi(strings.TrimSpace(lines[i-1])); err == nil && index+1 > 0 {
			return index + 1, nil
		}
		break
	}

	if capacity := len(lines) / 3; capacity > 0 {
		return capacity, nil
	}
	return 0, ErrCapacityEstimation
}
