// Package status holds the status line shown on every registered control.
//
// Plain texts replace each other. A temporary text is shown for a while and
// then the text underneath comes back; a sticky text behaves the same but
// cannot be displaced by another sticky text while it is up. Texts set while
// an overlay text is showing become the text underneath. Save and Restore
// bracket a transfer so that its progress messages do not erase the status
// that preceded it.
//
// A Board is owned by the frame loop and is not safe for concurrent use.
package status

import (
	"time"

	"subsync/internal/scheduler"
)

// Sink receives the displayed status text.
type Sink interface {
	SetStatusText(text string)
}

// Board tracks the status text and fans it out to sinks.
type Board struct {
	loop  *scheduler.Loop
	sinks []Sink

	text    string
	under   string
	holding bool
	sticky  bool
	expiry  scheduler.TaskID

	saved    string
	hasSaved bool

	local bool
}

// NewBoard creates a board that schedules expiries on loop.
func NewBoard(loop *scheduler.Loop) *Board {
	return &Board{loop: loop}
}

// Attach registers a sink and pushes the current text to it. Attaching the
// same sink twice is a no-op.
func (b *Board) Attach(s Sink) {
	if s == nil {
		return
	}
	for _, existing := range b.sinks {
		if existing == s {
			return
		}
	}
	b.sinks = append(b.sinks, s)
	s.SetStatusText(b.Displayed())
}

// Detach removes a sink.
func (b *Board) Detach(s Sink) {
	for idx, existing := range b.sinks {
		if existing == s {
			b.sinks = append(b.sinks[:idx], b.sinks[idx+1:]...)
			return
		}
	}
}

// Sinks returns the number of attached sinks.
func (b *Board) Sinks() int {
	return len(b.sinks)
}

// Text returns the logical text currently shown.
func (b *Board) Text() string {
	return b.text
}

// Displayed returns the text with the local mode indicator applied.
func (b *Board) Displayed() string {
	if b.local && b.text != "" {
		return b.text + " " + LocalIndicator
	}
	return b.text
}

// SetLocal toggles the local mode indicator.
func (b *Board) SetLocal(local bool) {
	if b.local == local {
		return
	}
	b.local = local
	b.publish()
}

// Set replaces the status. While a temporary or sticky text is up, text
// becomes the status shown after it expires.
func (b *Board) Set(text string) {
	if b.holding {
		b.under = text
		return
	}
	b.show(text)
}

// Temporary shows text for d, then restores the status underneath.
func (b *Board) Temporary(text string, d time.Duration) {
	b.overlay(text, d, false)
}

// Sticky shows text for d. It is ignored while another sticky text is up.
func (b *Board) Sticky(text string, d time.Duration) {
	if b.holding && b.sticky {
		return
	}
	b.overlay(text, d, true)
}

// Holding reports whether a temporary or sticky text is up.
func (b *Board) Holding() bool {
	return b.holding
}

func (b *Board) overlay(text string, d time.Duration, sticky bool) {
	if b.holding {
		b.loop.Cancel(b.expiry)
	} else {
		b.under = b.text
		b.holding = true
	}
	b.sticky = sticky
	b.show(text)
	b.expiry = b.loop.AfterDuration(d, b.expire)
}

func (b *Board) expire() {
	if !b.holding {
		return
	}
	b.holding = false
	b.sticky = false
	b.show(b.under)
	b.under = ""
}

// Save remembers the current status for Restore. Nested saves keep the first.
func (b *Board) Save() {
	if b.hasSaved {
		return
	}
	b.saved = b.text
	if b.holding {
		b.saved = b.under
	}
	b.hasSaved = true
}

// Restore puts back the saved status, if any.
func (b *Board) Restore() {
	if !b.hasSaved {
		return
	}
	text := b.saved
	b.saved = ""
	b.hasSaved = false
	b.Set(text)
}

// Discard forgets a saved status without applying it.
func (b *Board) Discard() {
	b.saved = ""
	b.hasSaved = false
}

func (b *Board) show(text string) {
	b.text = text
	b.publish()
}

func (b *Board) publish() {
	displayed := b.Displayed()
	for _, s := range b.sinks {
		s.SetStatusText(displayed)
	}
}
