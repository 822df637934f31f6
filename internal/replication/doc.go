// Package replication implements the chunked, single-owner payload
// replication protocol.
//
// One peer owns the payload. Its Sender splits the payload into chunks and
// emits one SyncedState per network send; the host delivers those states in
// order to every other peer, whose Receiver reassembles them. A sync id
// distinguishes payload versions so receivers can drop duplicate deliveries
// and deltas that only touch other replicated fields such as the lock flag.
//
// There is no retransmission of individual chunks. A receiver that sees a gap
// rejects the chunk and waits for the next full transmission, which always
// starts at chunk zero.
package replication
