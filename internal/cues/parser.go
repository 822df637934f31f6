package cues

import (
	"strings"
	"time"

	"github.com/benbjohnson/clock"

	"subsync/internal/faults"
)

// DefaultBudget is the per-step work budget used when none is configured.
const DefaultBudget = 10 * time.Millisecond

type parserState int

const (
	expectTimecode parserState = iota
	expectFirstTextLine
	expectMoreTextOrBlank
)

// Options tunes a Parser.
type Options struct {
	// Budget is the wall-clock time a single Step may spend. Zero processes
	// one line per step.
	Budget time.Duration
	// LinesPerStep caps the lines processed by one Step. Zero means no cap.
	LinesPerStep int
	// FilterTags enables FilterText on every cue.
	FilterTags bool
	// Clock measures the budget. Nil uses wall time.
	Clock clock.Clock
}

// Progress reports the state of a parse session after a Step.
type Progress struct {
	Done    bool
	Percent int
	Cues    int
}

// Parser is an incremental, time-sliced subtitle parser. It is not safe for
// concurrent use; the frame loop owns it.
type Parser struct {
	opts Options

	active   bool
	done     bool
	lines    []string
	index    int
	state    parserState
	capacity int
	current  Cue
	text     strings.Builder
	cues     Set
	err      error
}

// NewParser constructs an idle parser.
func NewParser(opts Options) *Parser {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Budget < 0 {
		opts.Budget = 0
	}
	return &Parser{opts: opts}
}

// Begin starts a new session over raw, discarding any session in progress.
// Empty input is rejected without disturbing the running session.
func (p *Parser) Begin(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return faults.Wrap(faults.ErrEmptyInput, "cues", "begin", "input is empty", nil)
	}
	p.Reset()

	raw = strings.TrimPrefix(raw, "\ufeff")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	lines := strings.Split(raw, "\n")
	lines = append(lines, "")

	capacity, err := EstimateCapacity(lines)
	if err != nil {
		return err
	}

	p.lines = lines
	p.capacity = capacity
	p.cues = make(Set, 0, capacity)
	p.active = true
	return nil
}

// Active reports whether a session is in progress.
func (p *Parser) Active() bool {
	return p.active
}

// Capacity returns the estimated cue capacity of the current session.
func (p *Parser) Capacity() int {
	return p.capacity
}

// Step processes lines until the budget is spent, at least one line per call.
func (p *Parser) Step() Progress {
	if !p.active {
		return Progress{Done: p.done, Percent: p.percent(), Cues: len(p.cues)}
	}

	start := p.opts.Clock.Now()
	processed := 0
	for p.index < len(p.lines) {
		p.consume(p.lines[p.index])
		p.index++
		processed++
		if p.err != nil {
			break
		}
		if p.opts.LinesPerStep > 0 && processed >= p.opts.LinesPerStep {
			break
		}
		if p.opts.Clock.Since(start) >= p.opts.Budget {
			break
		}
	}

	if p.err != nil || p.index >= len(p.lines) {
		p.finish()
	}
	return Progress{Done: p.done, Percent: p.percent(), Cues: len(p.cues)}
}

// Result returns the parsed set once the session is done.
func (p *Parser) Result() (Set, error) {
	if !p.done {
		return nil, faults.Wrap(faults.ErrParse, "cues", "result", "parse still in progress", nil)
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.cues, nil
}

// Reset abandons the current session.
func (p *Parser) Reset() {
	p.active = false
	p.done = false
	p.lines = nil
	p.index = 0
	p.state = expectTimecode
	p.capacity = 0
	p.current = Cue{}
	p.text.Reset()
	p.cues = nil
	p.err = nil
}

func (p *Parser) consume(line string) {
	switch {
	case p.state == expectTimecode && strings.Contains(line, timecodeSeparator):
		if len(p.cues) >= p.capacity {
			p.err = ErrCapacityExceeded
			return
		}
		startText, endText, _ := strings.Cut(line, timecodeSeparator)
		endText = strings.TrimSpace(endText)
		if cut := strings.IndexAny(endText, " \t"); cut >= 0 {
			endText = endText[:cut]
		}
		p.current = Cue{Start: ParseTimestamp(startText), End: ParseTimestamp(endText)}
		p.text.Reset()
		p.state = expectFirstTextLine
	case p.state == expectFirstTextLine && line != "":
		p.text.WriteString(line)
		p.state = expectMoreTextOrBlank
	case p.state == expectMoreTextOrBlank && line != "":
		p.text.WriteByte('\n')
		p.text.WriteString(line)
	case p.state != expectTimecode && line == "":
		p.closeGroup()
	}
}

func (p *Parser) closeGroup() {
	text := p.text.String()
	if p.opts.FilterTags {
		text = FilterText(text)
	}
	p.current.Text = text
	p.cues = append(p.cues, p.current)
	p.current = Cue{}
	p.text.Reset()
	p.state = expectTimecode
}

func (p *Parser) finish() {
	p.active = false
	p.done = true
	if p.err == nil && len(p.cues) == 0 {
		p.err = ErrNoCuesFound
	}
	if p.err != nil {
		p.cues = nil
		return
	}
	p.cues = p.cues.normalize()
}

func (p *Parser) percent() int {
	if p.done {
		return 100
	}
	if len(p.lines) == 0 {
		return 0
	}
	return p.index * 100 / len(p.lines)
}

// Parse drains a full session over raw.
func Parse(raw string, opts Options) (Set, error) {
	if opts.Budget == 0 && opts.LinesPerStep == 0 {
		opts.Budget = time.Hour
	}
	parser := NewParser(opts)
	if err := parser.Begin(raw); err != nil {
		return nil, err
	}
	for !parser.Step().Done {
	}
	return parser.Result()
}
