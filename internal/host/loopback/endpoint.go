package loopback

import (
	"subsync/internal/host"
	"subsync/internal/logging"
	"subsync/internal/scheduler"
)

// Endpoint is one peer's host.Network inside a Room.
type Endpoint struct {
	room *Room
	id   host.PeerID
	name string
	loop *scheduler.Loop

	handler host.Handler
	pending bool
	left    bool
}

var _ host.Network = (*Endpoint)(nil)

// Bind installs the handler. Callbacks queued before Bind are delivered once
// the handler is present.
func (e *Endpoint) Bind(h host.Handler) {
	e.handler = h
}

func (e *Endpoint) LocalPeer() host.PeerID { return e.id }

func (e *Endpoint) Owner() host.PeerID { return e.room.Owner() }

func (e *Endpoint) IsOwner() bool { return e.room.Owner() == e.id }

func (e *Endpoint) TakeOwnership() {
	e.room.setOwner(e.id)
}

func (e *Endpoint) PeerCount() int {
	e.room.mu.Lock()
	defer e.room.mu.Unlock()
	return len(e.room.peers)
}

func (e *Endpoint) PeerName(id host.PeerID) string {
	e.room.mu.Lock()
	defer e.room.mu.Unlock()
	for _, p := range e.room.peers {
		if p.id == id && p.name != "" {
			return p.name
		}
	}
	return string(id)
}

func (e *Endpoint) ServerTimeMillis() int64 {
	return e.room.serverTime()
}

// RequestSerialization schedules a send on the next tick. Requests made
// before that send coalesce into it.
func (e *Endpoint) RequestSerialization() {
	r := e.room
	r.mu.Lock()
	if e.left || r.owner != e.id || e.pending {
		r.mu.Unlock()
		return
	}
	e.pending = true
	r.mu.Unlock()
	e.loop.Post(e.flush)
}

func (e *Endpoint) flush() {
	r := e.room
	r.mu.Lock()
	e.pending = false
	owner := !e.left && r.owner == e.id
	r.mu.Unlock()
	if !owner || e.handler == nil {
		return
	}

	state := e.handler.OnPreSerialization()

	r.mu.Lock()
	ok := r.failSends == nil || !r.failSends(e.id)
	var targets []*Endpoint
	if ok {
		r.last = state
		r.sends++
		for _, p := range r.peers {
			if p != e {
				targets = append(targets, p)
			}
		}
	}
	r.mu.Unlock()

	if ok {
		r.logger.Debug("state serialized",
			logging.Peer(string(e.id)),
			logging.SyncID(state.SyncID),
			logging.ChunkIndex(state.ChunkIndex),
			logging.ChunkCount(state.ChunkCount),
		)
		for _, target := range targets {
			target.deliver(func(h host.Handler) { h.OnDeserialization(state) })
		}
	}
	e.handler.OnPostSerialization(ok)
}

// Leave removes the peer from the room.
func (e *Endpoint) Leave() {
	e.room.leave(e)
}

func (e *Endpoint) deliver(fn func(h host.Handler)) {
	e.loop.Post(func() {
		e.room.mu.Lock()
		left := e.left
		e.room.mu.Unlock()
		if left || e.handler == nil {
			return
		}
		fn(e.handler)
	})
}
