package replication

import (
	"fmt"

	"subsync/internal/faults"
)

// ErrSyncGap reports a chunk that does not follow the last applied one.
var ErrSyncGap = faults.Wrap(faults.ErrSyncGap, "replication", "apply", "out of order chunk", nil)

// SyncedState is the replicated object written by the owner on every send.
type SyncedState struct {
	SyncID     int64  `cbor:"1,keyasint" json:"sync_id"`
	ChunkCount int    `cbor:"2,keyasint" json:"chunk_count"`
	ChunkIndex int    `cbor:"3,keyasint" json:"chunk_index"`
	Chunk      string `cbor:"4,keyasint" json:"chunk"`
	Locked     bool   `cbor:"5,keyasint" json:"locked"`
}

// Empty reports whether the state has never carried a payload.
func (s SyncedState) Empty() bool {
	return s.ChunkCount == 0
}

func (s SyncedState) String() string {
	return fmt.Sprintf("sync %d chunk %d/%d (%d chars, locked=%t)", s.SyncID, s.ChunkIndex+1, s.ChunkCount, len(s.Chunk), s.Locked)
}

// ChunkCount returns how many chunks a payload of n characters needs. An
// empty payload still takes one chunk so that clearing is replicated.
func ChunkCount(n, chunkSize int) int {
	if chunkSize <= 0 || n <= 0 {
		return 1
	}
	return (n + chunkSize - 1) / chunkSize
}
