// Package tracker matches playback time to the active cues of a set.
//
// The tracker keeps a frontier over the set and the indices of the cues that
// are currently showing. While time moves forward each cue is entered and left
// once between resets, so a tick costs O(1) amortized plus the number of cues
// on screen; a long cue does not force a rescan of the cues after it. A
// backward jump is treated as a seek and rewinds to the start.
package tracker

import (
	"strings"

	"subsync/internal/cues"
)

// Tracker is not safe for concurrent use.
type Tracker struct {
	set      cues.Set
	next     int
	active   []int
	lastTime float64
	lastText string
	visits   int
}

// Observation is the outcome of a single tick.
type Observation struct {
	// Text is the newline-joined text of every active cue.
	Text string
	// Changed is true when Text differs from the previous emission.
	Changed bool
	// Seeked is true when the time moved backwards and the cursor was reset.
	Seeked bool
}

// New creates a tracker over set. The set must be ordered by start time.
func New(set cues.Set) *Tracker {
	return &Tracker{set: set}
}

// Reset rewinds the cursor and forgets the last observed time and text.
func (t *Tracker) Reset() {
	t.next = 0
	t.active = t.active[:0]
	t.lastTime = 0
	t.lastText = ""
}

// Cursor returns the index of the earliest cue that may still be active.
func (t *Tracker) Cursor() int {
	if len(t.active) > 0 {
		return t.active[0]
	}
	return t.next
}

// Visits returns how many cue comparisons the tracker has made since it was created.
func (t *Tracker) Visits() int {
	return t.visits
}

// Text returns the most recent emission.
func (t *Tracker) Text() string {
	return t.lastText
}

// Observe feeds the current playback time and returns the active text.
// Observing the same time twice is a no-op that reports no change.
func (t *Tracker) Observe(now float64) Observation {
	if now == t.lastTime {
		return Observation{Text: t.lastText}
	}

	var obs Observation
	if now < t.lastTime {
		obs.Seeked = true
		t.next = 0
		t.active = t.active[:0]
	}
	t.lastTime = now

	// Drop ended cues, keeping start order.
	kept := t.active[:0]
	for _, i := range t.active {
		t.visits++
		if now <= t.set[i].End {
			kept = append(kept, i)
		}
	}
	t.active = kept

	for t.next < len(t.set) {
		t.visits++
		cue := t.set[t.next]
		if cue.Start > now {
			break
		}
		if cue.Contains(now) {
			t.active = append(t.active, t.next)
		}
		t.next++
	}

	lines := make([]string, len(t.active))
	for n, i := range t.active {
		lines[n] = t.set[i].Text
	}
	text := strings.Join(lines, "\n")
	obs.Text = text
	obs.Changed = text != t.lastText || obs.Seeked
	t.lastText = text
	return obs
}
