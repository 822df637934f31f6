package replication

// BeginResult describes what Begin did with a payload.
type BeginResult int

const (
	// Skipped means there were no other peers to send to.
	Skipped BeginResult = iota
	// Started means the first chunk is ready for serialization.
	Started
	// Queued means a transmission was already running; the payload starts
	// when it finishes, replacing any payload queued before it.
	Queued
)

func (r BeginResult) String() string {
	switch r {
	case Started:
		return "started"
	case Queued:
		return "queued"
	default:
		return "skipped"
	}
}

// PostResult is returned after each confirmed send.
type PostResult struct {
	// More is true when another serialization should be requested.
	More bool
	// Finished is true when the send completed a payload.
	Finished bool
	// Restarted is true when a queued payload took over after Finished.
	Restarted bool
}

type pending struct {
	payload []rune
	syncID  int64
}

// Sender is the owner side of the protocol. It counts characters, not bytes,
// so every chunk is valid UTF-8 on its own.
type Sender struct {
	chunkSize int

	active     bool
	payload    []rune
	syncID     int64
	chunkCount int
	chunkIndex int
	last       SyncedState
	queued     *pending
}

// NewSender creates a sender that emits at most chunkSize characters per send.
func NewSender(chunkSize int) *Sender {
	if chunkSize <= 0 {
		chunkSize = 10000
	}
	return &Sender{chunkSize: chunkSize}
}

// ChunkSize returns the configured chunk size.
func (s *Sender) ChunkSize() int {
	return s.chunkSize
}

// Begin prepares a transmission of payload tagged with syncID. Nothing is
// sent when peers is one or fewer.
func (s *Sender) Begin(payload string, syncID int64, peers int) BeginResult {
	if peers <= 1 {
		return Skipped
	}
	runes := []rune(payload)
	if s.active {
		s.queued = &pending{payload: runes, syncID: syncID}
		return Queued
	}
	s.start(runes, syncID)
	return Started
}

func (s *Sender) start(payload []rune, syncID int64) {
	s.active = true
	s.payload = payload
	s.syncID = syncID
	s.chunkCount = ChunkCount(len(payload), s.chunkSize)
	s.chunkIndex = 0
}

// PreSerialize fills the outgoing state. When no transmission is running the
// last emitted chunk is repeated with the new lock flag, which receivers that
// already hold the payload ignore by sync id.
func (s *Sender) PreSerialize(locked bool) SyncedState {
	if !s.active {
		s.last.Locked = locked
		return s.last
	}

	start := s.chunkIndex * s.chunkSize
	start = max(0, min(start, len(s.payload)))
	end := min(start+s.chunkSize, len(s.payload))

	s.last = SyncedState{
		SyncID:     s.syncID,
		ChunkCount: s.chunkCount,
		ChunkIndex: s.chunkIndex,
		Chunk:      string(s.payload[start:end]),
		Locked:     locked,
	}
	return s.last
}

// PostSerialize advances after a send. A failed send keeps the current chunk
// so the next request repeats it.
func (s *Sender) PostSerialize(ok bool) PostResult {
	if !s.active {
		return PostResult{}
	}
	if !ok {
		return PostResult{More: true}
	}

	s.chunkIndex++
	if s.chunkIndex < s.chunkCount {
		return PostResult{More: true}
	}

	s.active = false
	s.payload = nil
	result := PostResult{Finished: true}
	if next := s.queued; next != nil {
		s.queued = nil
		s.start(next.payload, next.syncID)
		result.More = true
		result.Restarted = true
	}
	return result
}

// Abort drops the running and queued transmissions, typically on ownership loss.
func (s *Sender) Abort() {
	s.active = false
	s.payload = nil
	s.queued = nil
}

// Active reports whether a transmission is running.
func (s *Sender) Active() bool {
	return s.active
}

// HasQueued reports whether a payload is waiting for the running transmission.
func (s *Sender) HasQueued() bool {
	return s.queued != nil
}

// Progress returns the number of chunks confirmed and the chunk total.
func (s *Sender) Progress() (int, int) {
	return s.chunkIndex, s.chunkCount
}

// SyncID returns the sync id of the running or last transmission.
func (s *Sender) SyncID() int64 {
	return s.syncID
}

// Last returns the most recently serialized state.
func (s *Sender) Last() SyncedState {
	return s.last
}
