package status

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"subsync/internal/scheduler"
)

type sink struct {
	texts []string
}

func (s *sink) SetStatusText(text string) { s.texts = append(s.texts, text) }

func (s *sink) last() string {
	if len(s.texts) == 0 {
		return ""
	}
	return s.texts[len(s.texts)-1]
}

func newBoard() (*Board, *scheduler.Loop, *clock.Mock) {
	clk := clock.NewMock()
	loop := scheduler.New(clk)
	return NewBoard(loop), loop, clk
}

func advance(loop *scheduler.Loop, clk *clock.Mock, d time.Duration) {
	clk.Add(d)
	loop.Tick()
}

func TestAttachPushesCurrentText(t *testing.T) {
	board, _, _ := newBoard()
	board.Set(NotLoaded)
	s := &sink{}
	board.Attach(s)
	board.Attach(s)
	if board.Sinks() != 1 {
		t.Fatalf("sinks = %d, want 1", board.Sinks())
	}
	if s.last() != NotLoaded {
		t.Fatalf("got %q want %q", s.last(), NotLoaded)
	}
	board.Detach(s)
	board.Set(Loaded)
	if s.last() != NotLoaded {
		t.Fatal("detached sink should not be updated")
	}
}

func TestTemporaryRestoresUnderlyingText(t *testing.T) {
	board, loop, clk := newBoard()
	s := &sink{}
	board.Attach(s)
	board.Set(Loaded)

	board.Temporary(OnlyOwner("Alice", ActionAdd), 3*time.Second)
	if s.last() != "Only Alice can add subtitles" {
		t.Fatalf("got %q", s.last())
	}
	board.Set(Cleared)
	if s.last() == Cleared {
		t.Fatal("set during a temporary text should wait for expiry")
	}
	advance(loop, clk, time.Second)
	if board.Text() != "Only Alice can add subtitles" {
		t.Fatalf("expired too early: %q", board.Text())
	}
	advance(loop, clk, 2*time.Second)
	if s.last() != Cleared {
		t.Fatalf("got %q want %q", s.last(), Cleared)
	}
	if board.Holding() {
		t.Fatal("board should no longer hold")
	}
}

func TestStickyIgnoresSecondSticky(t *testing.T) {
	board, loop, clk := newBoard()
	board.Set(Loaded)
	board.Sticky(WaitSync, 3*time.Second)
	board.Sticky("other", 3*time.Second)
	if board.Text() != WaitSync {
		t.Fatalf("got %q want %q", board.Text(), WaitSync)
	}
	advance(loop, clk, 3*time.Second)
	if board.Text() != Loaded {
		t.Fatalf("got %q want %q", board.Text(), Loaded)
	}
}

func TestTemporaryReplacesSticky(t *testing.T) {
	board, loop, clk := newBoard()
	board.Set(Loaded)
	board.Sticky(WaitSync, 3*time.Second)
	board.Temporary("temp", time.Second)
	if board.Text() != "temp" {
		t.Fatalf("got %q", board.Text())
	}
	advance(loop, clk, time.Second)
	if board.Text() != Loaded {
		t.Fatalf("got %q want %q", board.Text(), Loaded)
	}
	advance(loop, clk, 3*time.Second)
	if board.Text() != Loaded {
		t.Fatal("cancelled sticky expiry must not fire")
	}
}

func TestSaveRestoreAroundTransfer(t *testing.T) {
	board, _, _ := newBoard()
	board.Set(Loaded)
	board.Save()
	board.Set(Synchronizing(0, 3, true))
	board.Save()
	board.Set(Synchronizing(1, 3, true))
	board.Restore()
	if board.Text() != Loaded {
		t.Fatalf("got %q want %q", board.Text(), Loaded)
	}
	board.Set(Cleared)
	board.Restore()
	if board.Text() != Cleared {
		t.Fatal("restore without save must be a no-op")
	}
}

func TestLocalIndicator(t *testing.T) {
	board, _, _ := newBoard()
	s := &sink{}
	board.Attach(s)
	board.Set(Loaded)
	board.SetLocal(true)
	if s.last() != "Subtitles loaded (local)" {
		t.Fatalf("got %q", s.last())
	}
	if board.Text() != Loaded {
		t.Fatal("indicator must not leak into the logical text")
	}
}

func TestMessageFormats(t *testing.T) {
	cases := []struct {
		got  string
		want string
	}{
		{Synchronizing(2, 5, true), "Synchronizing 2 / 5 ▲"},
		{Synchronizing(1, 5, false), "Synchronizing 1 / 5 ▼"},
		{Parsing(40), "Parsing... (40%)"},
		{OnlyOwner("Bob", ActionClear), "Only Bob can clear subtitles"},
		{OwnerLabel("Bob", true), "Bob (local)"},
		{OwnerLabel("Bob", false), "Bob"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("got %q want %q", tc.got, tc.want)
		}
	}
}
