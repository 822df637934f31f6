// Package overlay renders subtitle text to a terminal.
//
// The Terminal is the presentation surface the manager drives. It only knows
// how to show a block of text with the current presentation settings; what to
// show and when is decided by the manager.
package overlay

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"subsync/internal/settings"
)

// Terminal writes subtitles to an io.Writer. On a TTY it redraws in place
// and uses truecolor escapes; elsewhere it appends plain text, one block per
// change.
type Terminal struct {
	mu       sync.Mutex
	out      io.Writer
	color    bool
	redraw   bool
	settings settings.Presentation
	text     string
	drawn    int
	renders  int
}

// Option tweaks a Terminal.
type Option func(*Terminal)

// WithColor forces colour output on or off.
func WithColor(enabled bool) Option {
	return func(t *Terminal) { t.color = enabled }
}

// WithSettings sets the initial presentation.
func WithSettings(p settings.Presentation) Option {
	return func(t *Terminal) { t.settings = p }
}

// NewTerminal creates a renderer writing to out.
func NewTerminal(out io.Writer, opts ...Option) *Terminal {
	tty := isTerminal(out)
	t := &Terminal{
		out:      out,
		color:    tty,
		redraw:   tty,
		settings: settings.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Render shows text. Rendering the text already shown does nothing; an empty
// text clears the overlay.
func (t *Terminal) Render(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if text == t.text {
		return
	}
	t.text = text
	t.draw()
}

// Clear removes whatever is shown.
func (t *Terminal) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.text == "" {
		return
	}
	t.text = ""
	t.draw()
}

// Refresh draws the current text again, for example after a resize.
func (t *Terminal) Refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.draw()
}

// ApplySettings changes the presentation and redraws.
func (t *Terminal) ApplySettings(p settings.Presentation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.settings = p
	if t.text != "" {
		t.draw()
	}
}

// Text returns the text currently shown.
func (t *Terminal) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.text
}

// Renders counts how many times the overlay was drawn.
func (t *Terminal) Renders() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.renders
}

func (t *Terminal) draw() {
	t.renders++
	block := Format(t.text, t.settings, t.color)
	if t.redraw {
		if t.drawn > 0 {
			fmt.Fprintf(t.out, "\x1b[%dF\x1b[J", t.drawn)
		}
		if block == "" {
			t.drawn = 0
			return
		}
		fmt.Fprintln(t.out, block)
		t.drawn = strings.Count(block, "\n") + 1
		return
	}
	if block == "" {
		fmt.Fprintln(t.out, "--")
		return
	}
	fmt.Fprintln(t.out, block)
}
