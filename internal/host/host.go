// Package host defines the networking contract the subtitle manager runs on.
//
// The contract mirrors an instance-networking runtime with one owner per
// replicated object: only the owner may serialize, several requests made
// before a send coalesce into one send, delivery to each peer is reliable and
// ordered, a late joiner first receives the last serialized state, and when
// the owner leaves the oldest remaining peer takes over.
//
// Every Handler callback runs on the frame loop that owns the handler, so
// implementations never call a handler from their own goroutines directly.
package host

import "subsync/internal/replication"

// PeerID identifies a participant in a room.
type PeerID string

// Network is the local peer's view of its room.
type Network interface {
	// Bind installs the handler that receives network callbacks.
	Bind(h Handler)
	LocalPeer() PeerID
	Owner() PeerID
	IsOwner() bool
	// TakeOwnership makes the local peer the owner.
	TakeOwnership()
	// PeerCount includes the local peer.
	PeerCount() int
	// PeerName returns a display name, or the id when the peer is unknown.
	PeerName(id PeerID) string
	// RequestSerialization asks for a send on the next opportunity. It is a
	// no-op for non-owners.
	RequestSerialization()
	// ServerTimeMillis returns the shared clock, used for sync ids.
	ServerTimeMillis() int64
}

// Handler receives network callbacks on its frame loop.
type Handler interface {
	OnPreSerialization() replication.SyncedState
	OnPostSerialization(ok bool)
	OnDeserialization(state replication.SyncedState)
	OnPeerJoined(id PeerID)
	OnPeerLeft(id PeerID)
	OnOwnershipTransferred(owner PeerID)
}

// Peer describes a room member.
type Peer struct {
	ID   PeerID `cbor:"1,keyasint" json:"id"`
	Name string `cbor:"2,keyasint" json:"name"`
}
