package manager

import (
	"context"

	"subsync/internal/faults"
	"subsync/internal/logging"
	"subsync/internal/status"
)

// Fetcher loads subtitle text from a URL.
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// canControl reports whether the local peer may change the shared payload.
func (m *Manager) canControl() bool {
	return !m.locked || m.net.IsOwner()
}

func (m *Manager) refuse(action string) error {
	owner := m.ownerName()
	m.board.Temporary(status.OnlyOwner(owner, action), m.temporary)
	err := faults.Wrap(faults.ErrPermission, "manager", action, "controls are locked by "+owner, nil)
	m.logger.Info("action refused",
		logging.Event(faults.EventType(err)),
		logging.Owner(owner),
		logging.String("action", action),
	)
	return err
}

func (m *Manager) waitForSync() error {
	m.board.Sticky(status.WaitSync, m.temporary)
	return faults.Wrap(faults.ErrBusy, "manager", "sync", "transfer still running", nil)
}

// SubmitText loads pasted subtitles. In shared mode a successful parse is
// sent to every peer; in local mode it only replaces the local payload.
func (m *Manager) SubmitText(text string) error {
	m.logger.Debug("input submitted", logging.Int("length", len(text)))
	if !m.localMode && !m.canControl() {
		return m.refuse(status.ActionAdd)
	}

	localMode := m.localMode
	return m.load(text, func(ok bool) {
		if !ok {
			return
		}
		if localMode {
			m.local = text
		} else {
			m.setAndTransmit(text)
		}
		m.resetTracking()
	})
}

// SubmitURL fetches subtitles and then behaves like SubmitText. The request
// runs off the loop; its result is posted back.
func (m *Manager) SubmitURL(ctx context.Context, url string) error {
	if !m.localMode && !m.canControl() {
		return m.refuse(status.ActionLoadURL)
	}
	if m.fetcher == nil {
		return faults.Wrap(faults.ErrConfiguration, "manager", "fetch", "no fetcher configured", nil)
	}

	m.board.Set(status.Fetching)
	m.logger.Info("fetching subtitles", logging.String("url", url))
	go func() {
		text, err := m.fetcher.FetchText(ctx, url)
		m.loop.Post(func() {
			if err != nil {
				m.board.Set(status.NotLoaded)
				m.board.Temporary(status.FetchFailed, m.temporary)
				logging.WarnWithContext(m.logger, "subtitle fetch failed", faults.EventType(err),
					logging.Error(err),
					logging.String("url", url),
					logging.Impact("no subtitles loaded"),
					logging.Hint("check the URL and network access"),
				)
				return
			}
			_ = m.SubmitText(text)
		})
	}()
	return nil
}

// Clear removes the subtitles. In shared mode the empty payload is sent to
// every peer.
func (m *Manager) Clear() error {
	if len(m.set) == 0 {
		return nil
	}
	if m.localMode {
		m.local = ""
		m.clearLocal()
		return nil
	}
	if !m.DataComplete() {
		return m.waitForSync()
	}
	if !m.canControl() {
		return m.refuse(status.ActionClear)
	}
	m.clearLocal()
	m.setAndTransmit("")
	return nil
}

// RequestResync sends the payload again when called by the owner. Other
// peers are told who can do it and reparse what they already hold.
func (m *Manager) RequestResync() error {
	var err error
	if !m.localMode {
		err = m.resync()
	}
	m.resetTracking()
	return err
}

func (m *Manager) resync() error {
	if !m.DataComplete() {
		return m.waitForSync()
	}
	if m.data == "" {
		m.board.Set(status.NotLoaded)
		return nil
	}
	if m.net.IsOwner() {
		m.transmit()
		return nil
	}
	err := m.refuse(status.ActionSync)
	m.load(m.data, nil)
	return err
}

// SetLocked changes the lock flag. Locking claims ownership so that only the
// local peer can change subtitles afterwards.
func (m *Manager) SetLocked(locked bool) error {
	if locked == m.locked {
		return nil
	}
	if !m.canControl() {
		return m.refuse(status.ActionLock)
	}
	m.takeOwnership()
	m.locked = locked
	m.notifyLock()
	m.net.RequestSerialization()
	return nil
}

// SetEnabled toggles rendering. Disabling clears the overlay.
func (m *Manager) SetEnabled(enabled bool) {
	m.enabled = enabled
	if !enabled {
		m.displayed = ""
		m.overlay.Clear()
	}
}

// SetLocalMode switches between the shared and the local payload and loads
// whichever one is now active.
func (m *Manager) SetLocalMode(local bool) {
	m.localMode = local
	m.board.SetLocal(local)
	m.notifyOwner()

	payload := m.data
	if local {
		payload = m.local
	}
	if payload != "" {
		m.load(payload, nil)
	}
}

// SetPlaceholder shows sample text instead of cues, for adjusting the look.
func (m *Manager) SetPlaceholder(enabled bool) {
	m.placeholder = enabled
	if !enabled {
		m.displayed = ""
		m.overlay.Clear()
	}
}

// OnVideoPlay reacts to playback starting. A new URL clears the shared
// subtitles when configured to, if the local peer owns them.
func (m *Manager) OnVideoPlay() {
	url := m.video.CurrentURL()
	if url == m.lastURL {
		return
	}
	m.lastURL = url
	if !m.clearOnNewVideo || m.data == "" || !m.net.IsOwner() {
		return
	}

	m.logger.Info("new video detected; clearing subtitles", logging.String("url", url))
	if !m.localMode {
		m.clearLocal()
	}
	m.setAndTransmit("")
}

// OnVideoReload restarts cue tracking.
func (m *Manager) OnVideoReload() {
	m.resetTracking()
}

// OnVideoLockChange pushes the lock state to the controls again.
func (m *Manager) OnVideoLockChange() {
	m.notifyLock()
}
