package manager_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/benbjohnson/clock"

	"subsync/internal/faults"
	"subsync/internal/host"
	"subsync/internal/host/loopback"
	"subsync/internal/manager"
	"subsync/internal/replication"
	"subsync/internal/scheduler"
	"subsync/internal/status"
	"subsync/internal/testsupport"
)

const overlapping = "1\n00:00:01,000 --> 00:00:03,000\nHello\n\n2\n00:00:02,500 --> 00:00:04,000\nWorld\n\n"

type fakeVideo struct {
	playing bool
	time    float64
	url     string
}

func (v *fakeVideo) IsPlaying() bool { return v.playing }

func (v *fakeVideo) CurrentTime() float64 { return v.time }

func (v *fakeVideo) CurrentURL() string { return v.url }

type fakeOverlay struct {
	text   string
	clears int
}

func (o *fakeOverlay) Render(text string) { o.text = text }

func (o *fakeOverlay) Clear() {
	o.text = ""
	o.clears++
}

type fakeControl struct {
	status  string
	history []string
	owner   string
	locked  bool
	cleared int
	closed  int
}

func (c *fakeControl) SetStatusText(text string) {
	c.status = text
	c.history = append(c.history, text)
}

func (c *fakeControl) ClearInput() { c.cleared++ }

func (c *fakeControl) CloseInputMenu() { c.closed++ }

func (c *fakeControl) OwnerChanged(label string) { c.owner = label }

func (c *fakeControl) LockChanged(locked bool) { c.locked = locked }

type fakeFetcher struct {
	text string
	err  error
}

func (f fakeFetcher) FetchText(context.Context, string) (string, error) {
	return f.text, f.err
}

type peer struct {
	ep      *loopback.Endpoint
	loop    *scheduler.Loop
	mgr     *manager.Manager
	video   *fakeVideo
	overlay *fakeOverlay
	control *fakeControl
}

func newPeer(room *loopback.Room, clk *clock.Mock, id, name string, opts ...func(*manager.Options)) *peer {
	loop := scheduler.New(clk)
	p := &peer{
		loop:    loop,
		video:   &fakeVideo{},
		overlay: &fakeOverlay{},
		control: &fakeControl{},
	}
	p.ep = room.Join(host.PeerID(id), name, loop)
	options := manager.Options{
		Network: p.ep,
		Loop:    loop,
		Video:   p.video,
		Overlay: p.overlay,
	}
	for _, opt := range opts {
		opt(&options)
	}
	p.mgr = manager.New(options)
	p.mgr.Register(p.control)
	p.mgr.Start()
	return p
}

func withChunkSize(size int) func(*manager.Options) {
	return func(o *manager.Options) { o.ChunkSize = size }
}

func withLinesPerFrame(lines int) func(*manager.Options) {
	return func(o *manager.Options) { o.LinesPerFrame = lines }
}

func tick(n int, peers ...*peer) {
	for i := 0; i < n; i++ {
		for _, p := range peers {
			p.loop.Tick()
		}
	}
}

func settle(t *testing.T, cond func() bool, peers ...*peer) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		tick(1, peers...)
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached")
}

func newRoom() (*loopback.Room, *clock.Mock) {
	clk := clock.NewMock()
	return loopback.NewRoom(clk, nil), clk
}

func TestOverlappingCuesDisplayTogether(t *testing.T) {
	room, clk := newRoom()
	a := newPeer(room, clk, "a", "Alice")

	if err := a.mgr.SubmitText(overlapping); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if a.mgr.CueCount() != 2 {
		t.Fatalf("expected 2 cues, got %d", a.mgr.CueCount())
	}
	if a.control.status != status.Loaded {
		t.Fatalf("got %q want %q", a.control.status, status.Loaded)
	}
	if a.control.closed != 1 {
		t.Fatalf("expected the input menu to close once, got %d", a.control.closed)
	}

	a.video.playing = true
	a.video.time = 2.7
	tick(2, a)
	if a.overlay.text != "Hello\nWorld" {
		t.Fatalf("got %q want %q", a.overlay.text, "Hello\nWorld")
	}

	a.video.time = 3.5
	tick(1, a)
	if a.mgr.DisplayText() != "World" {
		t.Fatalf("got %q want %q", a.mgr.DisplayText(), "World")
	}

	a.video.time = 1.5
	tick(1, a)
	if a.overlay.text != "Hello" {
		t.Fatalf("seek back: got %q want %q", a.overlay.text, "Hello")
	}
}

func TestPausedVideoIsNotTracked(t *testing.T) {
	room, clk := newRoom()
	a := newPeer(room, clk, "a", "Alice")
	a.mgr.SubmitText(overlapping)

	a.video.time = 2
	tick(3, a)
	if a.overlay.text != "" {
		t.Fatalf("paused video should not render, got %q", a.overlay.text)
	}
}

func TestEmptyInputIsRejected(t *testing.T) {
	room, clk := newRoom()
	a := newPeer(room, clk, "a", "Alice")
	a.mgr.SubmitText(overlapping)

	err := a.mgr.SubmitText("")
	if !errors.Is(err, faults.ErrEmptyInput) {
		t.Fatalf("expected empty input error, got %v", err)
	}
	if a.mgr.CueCount() != 2 {
		t.Fatalf("cues must not change, got %d", a.mgr.CueCount())
	}
	if a.control.status != status.Empty {
		t.Fatalf("got %q want %q", a.control.status, status.Empty)
	}

	clk.Add(manager.DefaultTemporaryStatus)
	tick(1, a)
	if a.control.status != status.Loaded {
		t.Fatalf("temporary status should expire, got %q", a.control.status)
	}
}

func TestBlankInputKeepsLoadedCues(t *testing.T) {
	room, clk := newRoom()
	a := newPeer(room, clk, "a", "Alice")
	a.mgr.SubmitText(overlapping)

	err := a.mgr.SubmitText("   \n\n")
	if !errors.Is(err, faults.ErrEmptyInput) {
		t.Fatalf("expected empty input error, got %v", err)
	}
	if a.mgr.CueCount() != 2 {
		t.Fatalf("cues must not change, got %d", a.mgr.CueCount())
	}
	if a.control.status != status.Empty {
		t.Fatalf("got %q want %q", a.control.status, status.Empty)
	}
	if slices.Contains(a.control.history, status.Failed) {
		t.Fatalf("blank input reported as a parse failure: %v", a.control.history)
	}
}

func TestEmptyInputDuringParseLetsItFinish(t *testing.T) {
	room, clk := newRoom()
	a := newPeer(room, clk, "a", "Alice", withLinesPerFrame(3))

	if err := a.mgr.SubmitText(overlapping); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !a.mgr.Parsing() {
		t.Fatal("expected the parse to span several frames")
	}
	if err := a.mgr.SubmitText(""); !errors.Is(err, faults.ErrEmptyInput) {
		t.Fatalf("expected empty input error, got %v", err)
	}
	if !a.mgr.Parsing() {
		t.Fatal("empty input must not abandon the running parse")
	}

	tick(6, a)
	if a.mgr.Parsing() {
		t.Fatal("parse should have finished")
	}
	if a.mgr.CueCount() != 2 {
		t.Fatalf("expected 2 cues, got %d", a.mgr.CueCount())
	}
	clk.Add(manager.DefaultTemporaryStatus)
	tick(1, a)
	if a.control.status != status.Loaded {
		t.Fatalf("got %q want %q", a.control.status, status.Loaded)
	}
}

func TestUnparsableInputFallsBackToNotLoaded(t *testing.T) {
	room, clk := newRoom()
	a := newPeer(room, clk, "a", "Alice")
	a.mgr.SubmitText(overlapping)

	a.mgr.SubmitText("just some words\nwithout any timing\n")
	if a.mgr.CueCount() != 0 {
		t.Fatalf("expected cues to be dropped, got %d", a.mgr.CueCount())
	}
	if a.control.status != status.Failed {
		t.Fatalf("got %q want %q", a.control.status, status.Failed)
	}
	clk.Add(manager.DefaultTemporaryStatus)
	tick(1, a)
	if a.control.status != status.NotLoaded {
		t.Fatalf("got %q want %q", a.control.status, status.NotLoaded)
	}
}

func TestChunkedTransferReassembles(t *testing.T) {
	room, clk := newRoom()
	a := newPeer(room, clk, "a", "Alice", withChunkSize(10000))
	b := newPeer(room, clk, "b", "Bob", withChunkSize(10000))
	tick(2, a, b)

	payload := testsupport.SRT(600, 2, 1.5)
	if got := replication.ChunkCount(utf8.RuneCountInString(payload), 10000); got != 3 {
		t.Fatalf("fixture should need 3 chunks, needs %d", got)
	}

	if err := a.mgr.SubmitText(payload); err != nil {
		t.Fatalf("submit: %v", err)
	}
	settle(t, func() bool { return b.mgr.CueCount() == 600 }, a, b)

	if b.mgr.Data() != payload {
		t.Fatal("reassembled payload differs from the sent one")
	}
	if room.Sends() != 3 {
		t.Fatalf("expected 3 sends, got %d", room.Sends())
	}
	if a.mgr.SyncID() != b.mgr.SyncID() {
		t.Fatalf("sync ids differ: %d vs %d", a.mgr.SyncID(), b.mgr.SyncID())
	}
	if !slices.Contains(a.control.history, status.Synchronizing(0, 3, true)) {
		t.Fatalf("owner never reported sending progress: %v", a.control.history)
	}
	if !slices.Contains(b.control.history, status.Synchronizing(2, 3, false)) {
		t.Fatalf("receiver never reported receiving progress: %v", b.control.history)
	}

	tick(2, a, b)
	if a.control.status != status.Loaded || b.control.status != status.Loaded {
		t.Fatalf("expected both to settle on %q, got %q and %q", status.Loaded, a.control.status, b.control.status)
	}
	if !a.mgr.DataComplete() || !b.mgr.DataComplete() {
		t.Fatal("both peers should be complete")
	}
}

func TestLateJoinerReceivesPayload(t *testing.T) {
	room, clk := newRoom()
	a := newPeer(room, clk, "a", "Alice")
	a.mgr.SubmitText(overlapping)
	tick(2, a)
	if room.Sends() != 0 {
		t.Fatalf("a lone peer should not send, got %d sends", room.Sends())
	}

	b := newPeer(room, clk, "b", "Bob")
	settle(t, func() bool { return b.mgr.CueCount() == 2 }, a, b)
	if b.mgr.Data() != overlapping {
		t.Fatalf("got %q", b.mgr.Data())
	}
	if b.control.owner != "Alice" {
		t.Fatalf("got owner %q want %q", b.control.owner, "Alice")
	}
}

func TestLateJoinerAfterChunkedTransfer(t *testing.T) {
	room, clk := newRoom()
	a := newPeer(room, clk, "a", "Alice", withChunkSize(10))
	b := newPeer(room, clk, "b", "Bob", withChunkSize(10))
	tick(2, a, b)

	a.mgr.SubmitText(overlapping)
	settle(t, func() bool { return b.mgr.CueCount() == 2 && a.mgr.DataComplete() }, a, b)

	c := newPeer(room, clk, "c", "Carol", withChunkSize(10))
	settle(t, func() bool { return c.mgr.CueCount() == 2 }, a, b, c)
	if c.mgr.Data() != overlapping {
		t.Fatalf("got %q", c.mgr.Data())
	}
	if slices.Contains(c.control.history, status.Interrupted) {
		t.Fatalf("late joiner reported a gap: %v", c.control.history)
	}
	if c.control.status != status.Loaded {
		t.Fatalf("got %q want %q", c.control.status, status.Loaded)
	}
}

func TestLockedControlsRefuseOtherPeers(t *testing.T) {
	room, clk := newRoom()
	a := newPeer(room, clk, "a", "Alice")
	b := newPeer(room, clk, "b", "Bob")
	tick(2, a, b)

	if err := a.mgr.SetLocked(true); err != nil {
		t.Fatalf("lock: %v", err)
	}
	settle(t, func() bool { return b.mgr.IsLocked() }, a, b)
	if !b.control.locked {
		t.Fatal("control should see the lock")
	}

	err := b.mgr.SubmitText(overlapping)
	if !errors.Is(err, faults.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if want := status.OnlyOwner("Alice", status.ActionAdd); b.control.status != want {
		t.Fatalf("got %q want %q", b.control.status, want)
	}
	if b.mgr.CueCount() != 0 {
		t.Fatal("refused input must not load cues")
	}
	if err := b.mgr.SetLocked(false); !errors.Is(err, faults.ErrPermission) {
		t.Fatalf("expected permission error on unlock, got %v", err)
	}
}

func TestUnlockedPeerTakesOwnershipOnSubmit(t *testing.T) {
	room, clk := newRoom()
	a := newPeer(room, clk, "a", "Alice")
	b := newPeer(room, clk, "b", "Bob")
	tick(2, a, b)

	if err := b.mgr.SubmitText(overlapping); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if room.Owner() != "b" {
		t.Fatalf("expected b to own the room, got %q", room.Owner())
	}
	settle(t, func() bool { return a.mgr.CueCount() == 2 }, a, b)
	if a.control.owner != "Bob" {
		t.Fatalf("got owner %q want %q", a.control.owner, "Bob")
	}
}

func TestClearReplicatesEmptyPayload(t *testing.T) {
	room, clk := newRoom()
	a := newPeer(room, clk, "a", "Alice")
	b := newPeer(room, clk, "b", "Bob")
	tick(2, a, b)
	a.mgr.SubmitText(overlapping)
	settle(t, func() bool { return b.mgr.CueCount() == 2 }, a, b)

	if err := a.mgr.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if a.mgr.CueCount() != 0 {
		t.Fatalf("owner should clear at once, got %d cues", a.mgr.CueCount())
	}
	settle(t, func() bool { return b.mgr.CueCount() == 0 && a.mgr.DataComplete() }, a, b)
	if a.control.status != status.Cleared || b.control.status != status.Cleared {
		t.Fatalf("expected %q on both, got %q and %q", status.Cleared, a.control.status, b.control.status)
	}
	if b.control.cleared == 0 {
		t.Fatal("receiver inputs should be cleared")
	}
}

func TestClearWaitsForRunningTransfer(t *testing.T) {
	room, clk := newRoom()
	a := newPeer(room, clk, "a", "Alice", withChunkSize(10))
	b := newPeer(room, clk, "b", "Bob", withChunkSize(10))
	tick(2, a, b)
	a.mgr.SubmitText(overlapping)
	settle(t, func() bool { return b.mgr.CueCount() == 2 && a.mgr.DataComplete() }, a, b)

	a.mgr.SubmitText(strings.Replace(overlapping, "World", "Earth", 1))
	tick(1, a, b)
	if b.mgr.DataComplete() {
		t.Fatal("b should be mid transfer")
	}

	err := b.mgr.Clear()
	if !errors.Is(err, faults.ErrBusy) {
		t.Fatalf("expected busy error, got %v", err)
	}
	if b.control.status != status.WaitSync {
		t.Fatalf("got %q want %q", b.control.status, status.WaitSync)
	}
	if b.mgr.CueCount() != 2 {
		t.Fatal("refused clear must keep cues")
	}
}

func TestOwnerLeavingMidTransferSettlesPeers(t *testing.T) {
	room, clk := newRoom()
	a := newPeer(room, clk, "a", "Alice", withChunkSize(10))
	b := newPeer(room, clk, "b", "Bob", withChunkSize(10))
	c := newPeer(room, clk, "c", "Carol", withChunkSize(10))
	tick(2, a, b, c)

	a.mgr.SubmitText(overlapping)
	settle(t, func() bool {
		return b.mgr.CueCount() == 2 && c.mgr.CueCount() == 2 && a.mgr.DataComplete()
	}, a, b, c)

	a.mgr.SubmitText(strings.Replace(overlapping, "World", "Earth", 1))
	tick(1, a, b, c)
	a.ep.Leave()

	settle(t, func() bool {
		return room.Owner() == "b" && b.mgr.DataComplete() && c.mgr.DataComplete()
	}, b, c)
	if c.mgr.Data() != overlapping || b.mgr.Data() != overlapping {
		t.Fatal("remaining peers should settle on the last complete payload")
	}
	if c.control.owner != "Bob" {
		t.Fatalf("got owner %q want %q", c.control.owner, "Bob")
	}
}

func TestResyncByNonOwnerIsRefused(t *testing.T) {
	room, clk := newRoom()
	a := newPeer(room, clk, "a", "Alice")
	b := newPeer(room, clk, "b", "Bob")
	tick(2, a, b)
	a.mgr.SubmitText(overlapping)
	settle(t, func() bool { return b.mgr.CueCount() == 2 }, a, b)

	err := b.mgr.RequestResync()
	if !errors.Is(err, faults.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if want := status.OnlyOwner("Alice", status.ActionSync); b.control.status != want {
		t.Fatalf("got %q want %q", b.control.status, want)
	}

	sends := room.Sends()
	if err := a.mgr.RequestResync(); err != nil {
		t.Fatalf("owner resync: %v", err)
	}
	tick(2, a, b)
	if room.Sends() != sends+1 {
		t.Fatalf("expected one more send, got %d", room.Sends()-sends)
	}
}

func TestLocalModeKeepsPayloadPrivate(t *testing.T) {
	room, clk := newRoom()
	a := newPeer(room, clk, "a", "Alice")
	b := newPeer(room, clk, "b", "Bob")
	tick(2, a, b)

	b.mgr.SetLocalMode(true)
	if b.control.owner != "Bob "+status.LocalIndicator {
		t.Fatalf("got owner %q", b.control.owner)
	}
	if err := b.mgr.SubmitText(overlapping); err != nil {
		t.Fatalf("submit: %v", err)
	}
	tick(3, a, b)
	if b.mgr.CueCount() != 2 || a.mgr.CueCount() != 0 {
		t.Fatalf("local input must stay local: a=%d b=%d", a.mgr.CueCount(), b.mgr.CueCount())
	}
	if room.Sends() != 0 {
		t.Fatalf("expected no sends, got %d", room.Sends())
	}
	if b.control.status != status.Loaded+" "+status.LocalIndicator {
		t.Fatalf("got %q", b.control.status)
	}

	if err := b.mgr.Clear(); err != nil {
		t.Fatalf("local clear: %v", err)
	}
	if b.mgr.CueCount() != 0 {
		t.Fatal("local clear should drop cues")
	}
}

func TestPlaceholderAndDisable(t *testing.T) {
	room, clk := newRoom()
	a := newPeer(room, clk, "a", "Alice")

	a.mgr.SetPlaceholder(true)
	tick(1, a)
	if a.overlay.text != status.PlaceholderText {
		t.Fatalf("got %q", a.overlay.text)
	}
	a.mgr.SetPlaceholder(false)
	if a.overlay.text != "" {
		t.Fatal("placeholder should be cleared")
	}

	a.mgr.SubmitText(overlapping)
	a.video.playing = true
	a.video.time = 2
	tick(1, a)
	if a.overlay.text != "Hello" {
		t.Fatalf("got %q want %q", a.overlay.text, "Hello")
	}
	a.mgr.SetEnabled(false)
	a.video.time = 3.5
	tick(2, a)
	if a.overlay.text != "" || a.mgr.IsEnabled() {
		t.Fatalf("disabled manager should not render, got %q", a.overlay.text)
	}
}

func TestSubmitURL(t *testing.T) {
	room, clk := newRoom()
	ok := newPeer(room, clk, "a", "Alice", func(o *manager.Options) {
		o.Fetcher = fakeFetcher{text: overlapping}
	})
	if err := ok.mgr.SubmitURL(context.Background(), "https://example.com/a.srt"); err != nil {
		t.Fatalf("submit url: %v", err)
	}
	if ok.control.status != status.Fetching {
		t.Fatalf("got %q want %q", ok.control.status, status.Fetching)
	}
	settle(t, func() bool { return ok.mgr.CueCount() == 2 }, ok)

	failRoom, failClk := newRoom()
	bad := newPeer(failRoom, failClk, "a", "Alice", func(o *manager.Options) {
		o.Fetcher = fakeFetcher{err: faults.Wrap(faults.ErrFetch, "fetch", "get", "boom", nil)}
	})
	bad.mgr.SubmitURL(context.Background(), "https://example.com/b.srt")
	settle(t, func() bool { return bad.control.status == status.FetchFailed }, bad)
}

func TestNewVideoClearsWhenConfigured(t *testing.T) {
	room, clk := newRoom()
	a := newPeer(room, clk, "a", "Alice", func(o *manager.Options) { o.ClearOnNewVideo = true })
	a.video.url = "https://example.com/one.mp4"
	a.mgr.OnVideoPlay()
	a.mgr.SubmitText(overlapping)

	a.mgr.OnVideoPlay()
	if a.mgr.CueCount() != 2 {
		t.Fatal("same URL must keep subtitles")
	}

	a.video.url = "https://example.com/two.mp4"
	a.mgr.OnVideoPlay()
	if a.mgr.CueCount() != 0 || a.mgr.Data() != "" {
		t.Fatal("new URL should clear subtitles")
	}
}

func TestRegisterPushesState(t *testing.T) {
	room, clk := newRoom()
	a := newPeer(room, clk, "a", "Alice")
	a.mgr.SubmitText(overlapping)

	late := &fakeControl{}
	a.mgr.Register(late)
	a.mgr.Register(late)
	if late.status != status.Loaded || late.owner != "Alice" {
		t.Fatalf("late control got %q / %q", late.status, late.owner)
	}
	if len(late.history) != 1 {
		t.Fatalf("duplicate registration should be ignored, got %v", late.history)
	}

	a.mgr.Unregister(late)
	a.mgr.SubmitText("")
	if late.status == status.Empty {
		t.Fatal("unregistered control should not receive updates")
	}
}
