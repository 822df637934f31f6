package manager

import (
	"subsync/internal/host"
	"subsync/internal/logging"
	"subsync/internal/replication"
	"subsync/internal/status"
)

// setAndTransmit claims the payload and sends it as a new version.
func (m *Manager) setAndTransmit(text string) {
	m.takeOwnership()
	m.data = text
	m.syncID = m.net.ServerTimeMillis()
	m.receiver.MarkApplied(m.syncID, text)
	m.transmit()
}

func (m *Manager) takeOwnership() {
	if m.net.IsOwner() {
		return
	}
	m.net.TakeOwnership()
	m.owner = m.net.LocalPeer()
	m.notifyOwner()
}

// transmit sends the synchronized payload to the other peers.
func (m *Manager) transmit() {
	result := m.sender.Begin(m.data, m.syncID, m.net.PeerCount())
	attrs := []logging.Attr{
		logging.SyncID(m.syncID),
		logging.Int("peers", m.net.PeerCount()),
		logging.String("result", result.String()),
	}
	switch result {
	case replication.Skipped:
		m.logger.Debug("transmission skipped", logging.Args(attrs...)...)
		return
	case replication.Queued:
		m.logger.Info("transmission queued behind running transfer", logging.Args(attrs...)...)
		return
	}

	_, total := m.sender.Progress()
	attrs = append(attrs, logging.ChunkCount(total))
	m.logger.Info("transmission started", logging.Args(attrs...)...)
	m.transfer.Reset()
	m.board.Save()
	m.board.Set(status.Synchronizing(0, total, true))
	m.net.RequestSerialization()
}

// OnPreSerialization returns the state to send.
func (m *Manager) OnPreSerialization() replication.SyncedState {
	return m.sender.PreSerialize(m.locked)
}

// OnPostSerialization advances the transfer after a send.
func (m *Manager) OnPostSerialization(ok bool) {
	if !ok && m.sender.Active() {
		done, total := m.sender.Progress()
		logging.WarnWithContext(m.logger, "chunk send failed; retrying", "sync_send_failed",
			logging.SyncID(m.sender.SyncID()),
			logging.ChunkIndex(done),
			logging.ChunkCount(total),
			logging.Impact("transfer delayed"),
		)
	}

	result := m.sender.PostSerialize(ok)
	if result.Finished {
		m.logger.Info("transmission finished", logging.SyncID(m.syncID))
		if !result.Restarted {
			m.board.Restore()
		}
	}
	if m.sender.Active() {
		done, total := m.sender.Progress()
		m.board.Set(status.Synchronizing(done, total, true))
		if m.transfer.Chunks("send", done, total) {
			m.logger.Debug("transfer progress", logging.SyncID(m.sender.SyncID()), logging.ChunkIndex(done), logging.ChunkCount(total))
		}
	}
	if result.More {
		m.loop.AfterFrames(1, m.net.RequestSerialization)
	}
}

// OnDeserialization applies a state received from the owner.
func (m *Manager) OnDeserialization(state replication.SyncedState) {
	if state.Locked != m.locked {
		m.locked = state.Locked
		m.notifyLock()
	}

	outcome, err := m.receiver.Apply(state)
	switch outcome {
	case replication.Ignored:
		return
	case replication.Joined:
		m.logger.Debug("chunk skipped before first payload",
			logging.SyncID(state.SyncID),
			logging.ChunkIndex(state.ChunkIndex),
			logging.ChunkCount(state.ChunkCount),
		)
		return
	case replication.Rejected:
		logging.WarnWithContext(m.logger, "chunk rejected", "sync_gap",
			logging.Error(err),
			logging.SyncID(state.SyncID),
			logging.ChunkIndex(state.ChunkIndex),
			logging.ChunkCount(state.ChunkCount),
			logging.Impact("payload incomplete until the next transmission"),
			logging.Hint("ask the owner to synchronize again"),
		)
		m.board.Temporary(status.Interrupted, m.temporary)
		return
	case replication.Opened, replication.Appended:
		done, total := m.receiver.Progress()
		if outcome == replication.Opened {
			m.transfer.Reset()
		}
		if m.transfer.Chunks("receive", done, total) {
			m.logger.Debug("transfer progress", logging.SyncID(state.SyncID), logging.ChunkIndex(done), logging.ChunkCount(total))
		}
		m.board.Save()
		m.board.Set(status.Synchronizing(done, total, false))
		return
	}

	m.board.Restore()
	m.data = m.receiver.Payload()
	m.syncID = state.SyncID
	m.logger.Info("payload received",
		logging.SyncID(state.SyncID),
		logging.ChunkCount(state.ChunkCount),
		logging.Int("length", len(m.data)),
	)
	if m.localMode {
		return
	}
	if m.data == "" {
		m.clearLocal()
		return
	}
	m.clearInputs()
	m.load(m.data, nil)
}

// OnPeerJoined sends the payload to a late joiner.
func (m *Manager) OnPeerJoined(id host.PeerID) {
	m.logger.Debug("peer joined", logging.Peer(string(id)))
	if m.net.IsOwner() && m.data != "" {
		m.transmit()
	}
}

func (m *Manager) OnPeerLeft(id host.PeerID) {
	m.logger.Debug("peer left", logging.Peer(string(id)))
}

// OnOwnershipTransferred updates the controls. A peer that gains ownership
// it did not ask for, and holds a complete payload, sends it again from the
// first chunk so that a transfer cut off by the old owner finishes.
func (m *Manager) OnOwnershipTransferred(owner host.PeerID) {
	previous := m.owner
	m.owner = owner
	m.logger.Info("ownership changed",
		logging.Owner(string(owner)),
		logging.String("previous", string(previous)),
	)
	m.notifyOwner()
	m.notifyLock()

	local := m.net.LocalPeer()
	if owner != local {
		if m.sender.Active() {
			m.sender.Abort()
			m.board.Restore()
		}
		return
	}
	if previous == local || m.sender.Active() {
		return
	}
	if id, ok := m.receiver.LastAppliedSyncID(); ok && m.data != "" {
		m.syncID = id
		m.receiver.MarkApplied(id, m.data)
		m.transmit()
	}
}
