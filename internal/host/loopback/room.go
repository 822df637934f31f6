// Package loopback implements host.Network in process. Every peer of a Room
// runs its own frame loop and receives callbacks through it, which makes the
// room suitable for tests and single-process demos of the replication
// protocol.
package loopback

import (
	"log/slog"
	"sync"

	"github.com/benbjohnson/clock"

	"subsync/internal/host"
	"subsync/internal/logging"
	"subsync/internal/replication"
	"subsync/internal/scheduler"
)

// Room is a shared in-process room.
type Room struct {
	clock  clock.Clock
	logger *slog.Logger

	mu        sync.Mutex
	peers     []*Endpoint
	owner     host.PeerID
	last      replication.SyncedState
	lastTime  int64
	failSends func(from host.PeerID) bool
	sends     int
}

// NewRoom creates an empty room. A nil clock uses wall time.
func NewRoom(clk clock.Clock, logger *slog.Logger) *Room {
	if clk == nil {
		clk = clock.New()
	}
	return &Room{clock: clk, logger: logging.NewComponentLogger(logger, "loopback")}
}

// FailSends installs a hook that makes matching sends fail. The state is
// not delivered and the sender sees OnPostSerialization(false).
func (r *Room) FailSends(fn func(from host.PeerID) bool) {
	r.mu.Lock()
	r.failSends = fn
	r.mu.Unlock()
}

// Sends returns the number of delivered serializations.
func (r *Room) Sends() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sends
}

// Owner returns the current owner.
func (r *Room) Owner() host.PeerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owner
}

// Peers lists the members in join order.
func (r *Room) Peers() []host.Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]host.Peer, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, host.Peer{ID: p.id, Name: p.name})
	}
	return out
}

// Join adds a peer whose callbacks run on loop. The first peer becomes the
// owner. A joiner first receives the last serialized state, then existing
// peers are told about the join.
func (r *Room) Join(id host.PeerID, name string, loop *scheduler.Loop) *Endpoint {
	ep := &Endpoint{room: r, id: id, name: name, loop: loop}

	r.mu.Lock()
	existing := append([]*Endpoint(nil), r.peers...)
	r.peers = append(r.peers, ep)
	if r.owner == "" {
		r.owner = id
	}
	last := r.last
	r.mu.Unlock()

	r.logger.Debug("peer joined", logging.Peer(string(id)), logging.Int("peers", len(existing)+1))

	if !last.Empty() {
		ep.deliver(func(h host.Handler) { h.OnDeserialization(last) })
	}
	for _, other := range existing {
		other.deliver(func(h host.Handler) { h.OnPeerJoined(id) })
	}
	return ep
}

func (r *Room) leave(ep *Endpoint) {
	r.mu.Lock()
	if ep.left {
		r.mu.Unlock()
		return
	}
	ep.left = true
	remaining := r.peers[:0]
	for _, p := range r.peers {
		if p != ep {
			remaining = append(remaining, p)
		}
	}
	r.peers = remaining
	transferred := false
	if r.owner == ep.id {
		r.owner = ""
		if len(remaining) > 0 {
			r.owner = remaining[0].id
		}
		transferred = true
	}
	owner := r.owner
	others := append([]*Endpoint(nil), remaining...)
	r.mu.Unlock()

	r.logger.Debug("peer left", logging.Peer(string(ep.id)), logging.Owner(string(owner)))

	for _, other := range others {
		if transferred {
			other.deliver(func(h host.Handler) { h.OnOwnershipTransferred(owner) })
		}
		other.deliver(func(h host.Handler) { h.OnPeerLeft(ep.id) })
	}
}

func (r *Room) setOwner(id host.PeerID) {
	r.mu.Lock()
	if r.owner == id {
		r.mu.Unlock()
		return
	}
	r.owner = id
	all := append([]*Endpoint(nil), r.peers...)
	r.mu.Unlock()

	for _, p := range all {
		p.deliver(func(h host.Handler) { h.OnOwnershipTransferred(id) })
	}
}

func (r *Room) serverTime() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock.Now().UnixMilli()
	if now <= r.lastTime {
		now = r.lastTime + 1
	}
	r.lastTime = now
	return now
}
