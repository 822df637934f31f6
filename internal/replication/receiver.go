package replication

import (
	"fmt"
	"strings"
)

// Outcome classifies what Apply did with an incoming state.
type Outcome int

const (
	// Ignored means the state carried nothing new for the payload.
	Ignored Outcome = iota
	// Opened means chunk zero opened a new reassembly buffer.
	Opened
	// Appended means the chunk extended the current buffer.
	Appended
	// Rejected means the chunk did not follow the last applied one.
	Rejected
	// Completed means the final chunk arrived and the payload is ready.
	Completed
	// Joined means a peer that has never received a payload joined in the
	// middle of a transfer; it waits for the next chunk zero.
	Joined
)

func (o Outcome) String() string {
	switch o {
	case Opened:
		return "opened"
	case Appended:
		return "appended"
	case Rejected:
		return "rejected"
	case Completed:
		return "completed"
	case Joined:
		return "joined"
	default:
		return "ignored"
	}
}

// Receiver is the peer side of the protocol.
type Receiver struct {
	hasApplied  bool
	lastApplied int64

	inSession  bool
	session    int64
	chunkCount int
	nextIndex  int
	buffer     strings.Builder

	payload string
}

// NewReceiver creates an empty receiver.
func NewReceiver() *Receiver {
	return &Receiver{}
}

// Apply feeds one delivered state. Rejected outcomes carry an error wrapping
// ErrSyncGap; every other outcome returns nil.
func (r *Receiver) Apply(state SyncedState) (Outcome, error) {
	if state.Empty() {
		return Ignored, nil
	}
	// A payload already applied is ignored, unless a newer transfer was cut
	// off and the old payload is being sent again to settle every peer on it.
	if r.hasApplied && state.SyncID == r.lastApplied && !(r.inSession && state.ChunkIndex == 0) {
		return Ignored, nil
	}

	switch {
	case state.ChunkIndex == 0:
		r.inSession = true
		r.session = state.SyncID
		r.chunkCount = state.ChunkCount
		r.nextIndex = 1
		r.buffer.Reset()
		r.buffer.WriteString(state.Chunk)
		if r.complete() {
			return Completed, nil
		}
		return Opened, nil
	case !r.inSession && !r.hasApplied:
		return Joined, nil
	case r.inSession && state.SyncID == r.session && state.ChunkIndex == r.nextIndex-1:
		// Re-delivery of the chunk just applied, for example a lock-only delta.
		return Ignored, nil
	case r.inSession && state.SyncID == r.session && state.ChunkIndex == r.nextIndex:
		r.buffer.WriteString(state.Chunk)
		r.nextIndex++
		if r.complete() {
			return Completed, nil
		}
		return Appended, nil
	default:
		expected := 0
		if r.inSession {
			expected = r.nextIndex
		}
		return Rejected, fmt.Errorf("%w: got chunk %d of sync %d, expected chunk %d of sync %d",
			ErrSyncGap, state.ChunkIndex, state.SyncID, expected, r.session)
	}
}

func (r *Receiver) complete() bool {
	if r.nextIndex < r.chunkCount {
		return false
	}
	r.payload = r.buffer.String()
	r.buffer.Reset()
	r.inSession = false
	r.hasApplied = true
	r.lastApplied = r.session
	return true
}

// Complete reports whether no partially received payload is pending.
func (r *Receiver) Complete() bool {
	return !r.inSession
}

// LastAppliedSyncID returns the sync id of the last completed payload.
func (r *Receiver) LastAppliedSyncID() (int64, bool) {
	return r.lastApplied, r.hasApplied
}

// Payload returns the last completed payload.
func (r *Receiver) Payload() string {
	return r.payload
}

// Progress returns the chunks received and expected for the current session.
func (r *Receiver) Progress() (int, int) {
	if !r.inSession {
		return r.chunkCount, r.chunkCount
	}
	return r.nextIndex, r.chunkCount
}

// MarkApplied records syncID as applied without a transfer. The owner uses it
// so that its own transmissions are recognised if they are echoed back.
func (r *Receiver) MarkApplied(syncID int64, payload string) {
	r.hasApplied = true
	r.lastApplied = syncID
	r.payload = payload
	r.inSession = false
	r.buffer.Reset()
}
