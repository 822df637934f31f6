package loopback

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"subsync/internal/host"
	"subsync/internal/replication"
	"subsync/internal/scheduler"
)

type recorder struct {
	next     replication.SyncedState
	pre      int
	post     []bool
	received []replication.SyncedState
	joined   []host.PeerID
	left     []host.PeerID
	owners   []host.PeerID
}

func (r *recorder) OnPreSerialization() replication.SyncedState {
	r.pre++
	return r.next
}

func (r *recorder) OnPostSerialization(ok bool) { r.post = append(r.post, ok) }

func (r *recorder) OnDeserialization(state replication.SyncedState) {
	r.received = append(r.received, state)
}

func (r *recorder) OnPeerJoined(id host.PeerID) { r.joined = append(r.joined, id) }

func (r *recorder) OnPeerLeft(id host.PeerID) { r.left = append(r.left, id) }

func (r *recorder) OnOwnershipTransferred(owner host.PeerID) {
	r.owners = append(r.owners, owner)
}

type member struct {
	ep   *Endpoint
	loop *scheduler.Loop
	rec  *recorder
}

func join(room *Room, id, name string) *member {
	loop := scheduler.New(clock.NewMock())
	m := &member{loop: loop, rec: &recorder{}}
	m.ep = room.Join(host.PeerID(id), name, loop)
	m.ep.Bind(m.rec)
	return m
}

func tickAll(members ...*member) {
	for _, m := range members {
		m.loop.Tick()
	}
}

func TestFirstPeerOwnsRoom(t *testing.T) {
	room := NewRoom(clock.NewMock(), nil)
	a := join(room, "a", "Alice")
	b := join(room, "b", "")

	if !a.ep.IsOwner() || b.ep.IsOwner() {
		t.Fatalf("unexpected owner %q", room.Owner())
	}
	if got := b.ep.PeerCount(); got != 2 {
		t.Fatalf("peer count = %d, want 2", got)
	}
	if got := b.ep.PeerName("a"); got != "Alice" {
		t.Fatalf("peer name = %q, want Alice", got)
	}
	if got := a.ep.PeerName("b"); got != "b" {
		t.Fatalf("unnamed peer = %q, want id", got)
	}
	tickAll(a, b)
	if len(a.rec.joined) != 1 || a.rec.joined[0] != "b" {
		t.Fatalf("owner join events = %v", a.rec.joined)
	}
}

func TestSerializationCoalescesAndDelivers(t *testing.T) {
	room := NewRoom(clock.NewMock(), nil)
	a := join(room, "a", "")
	b := join(room, "b", "")
	a.rec.next = replication.SyncedState{SyncID: 7, ChunkCount: 1, Chunk: "x"}

	a.ep.RequestSerialization()
	a.ep.RequestSerialization()
	b.ep.RequestSerialization()
	tickAll(a)
	if a.rec.pre != 1 {
		t.Fatalf("pre-serialization calls = %d, want 1", a.rec.pre)
	}
	if len(a.rec.post) != 1 || !a.rec.post[0] {
		t.Fatalf("post results = %v", a.rec.post)
	}
	if len(b.rec.received) != 0 {
		t.Fatal("delivery should wait for the receiver's next tick")
	}
	tickAll(b)
	if len(b.rec.received) != 1 || b.rec.received[0].SyncID != 7 {
		t.Fatalf("received = %v", b.rec.received)
	}
	if len(a.rec.received) != 0 {
		t.Fatal("sender must not receive its own state")
	}
}

func TestLateJoinerGetsLastState(t *testing.T) {
	room := NewRoom(clock.NewMock(), nil)
	a := join(room, "a", "")
	b := join(room, "b", "")
	a.rec.next = replication.SyncedState{SyncID: 3, ChunkCount: 2, ChunkIndex: 1, Chunk: "tail"}
	a.ep.RequestSerialization()
	tickAll(a, b)

	c := join(room, "c", "")
	tickAll(a, b, c)
	if len(c.rec.received) != 1 || c.rec.received[0].Chunk != "tail" {
		t.Fatalf("late joiner received %v", c.rec.received)
	}
}

func TestFailedSendIsNotDelivered(t *testing.T) {
	room := NewRoom(clock.NewMock(), nil)
	a := join(room, "a", "")
	b := join(room, "b", "")
	room.FailSends(func(host.PeerID) bool { return true })
	a.rec.next = replication.SyncedState{SyncID: 1, ChunkCount: 1}

	a.ep.RequestSerialization()
	tickAll(a, b)
	tickAll(a, b)
	if len(a.rec.post) != 1 || a.rec.post[0] {
		t.Fatalf("post results = %v, want [false]", a.rec.post)
	}
	if len(b.rec.received) != 0 || room.Sends() != 0 {
		t.Fatal("failed send must not be delivered")
	}
}

func TestOwnerLeaveTransfersToOldestPeer(t *testing.T) {
	room := NewRoom(clock.NewMock(), nil)
	a := join(room, "a", "")
	b := join(room, "b", "")
	c := join(room, "c", "")
	tickAll(a, b, c)

	a.ep.Leave()
	tickAll(b, c)
	if room.Owner() != "b" {
		t.Fatalf("owner = %q, want b", room.Owner())
	}
	for _, m := range []*member{b, c} {
		if len(m.rec.owners) != 1 || m.rec.owners[0] != "b" {
			t.Fatalf("ownership events = %v", m.rec.owners)
		}
		if len(m.rec.left) != 1 || m.rec.left[0] != "a" {
			t.Fatalf("leave events = %v", m.rec.left)
		}
	}

	a.ep.RequestSerialization()
	tickAll(a)
	if a.rec.pre != 0 {
		t.Fatal("departed peer must not serialize")
	}
}

func TestTakeOwnershipNotifiesEveryone(t *testing.T) {
	room := NewRoom(clock.NewMock(), nil)
	a := join(room, "a", "")
	b := join(room, "b", "")
	b.ep.TakeOwnership()
	tickAll(a, b)
	if !b.ep.IsOwner() {
		t.Fatal("b should own the room")
	}
	if len(a.rec.owners) != 1 || len(b.rec.owners) != 1 {
		t.Fatalf("ownership events a=%v b=%v", a.rec.owners, b.rec.owners)
	}
	b.ep.TakeOwnership()
	tickAll(a, b)
	if len(a.rec.owners) != 1 {
		t.Fatal("repeated take must not notify again")
	}
}

func TestServerTimeIsStrictlyIncreasing(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(time.UnixMilli(5000))
	room := NewRoom(clk, nil)
	a := join(room, "a", "")

	first := a.ep.ServerTimeMillis()
	second := a.ep.ServerTimeMillis()
	if first != 5000 || second != 5001 {
		t.Fatalf("server times = %d, %d", first, second)
	}
	clk.Add(time.Second)
	if got := a.ep.ServerTimeMillis(); got != 6000 {
		t.Fatalf("server time after advance = %d", got)
	}
}
