package manager

import (
	"strings"

	"subsync/internal/faults"
	"subsync/internal/logging"
	"subsync/internal/status"
	"subsync/internal/tracker"
)

// load starts parsing text. The first slice runs immediately and the rest one
// slice per frame. done is called once with the outcome; a newer load
// abandons an older one without calling its done.
func (m *Manager) load(text string, done func(ok bool)) error {
	// Empty input leaves any parse in progress and the loaded cues alone.
	if strings.TrimSpace(text) == "" {
		m.board.Temporary(status.Empty, m.temporary)
		err := faults.Wrap(faults.ErrEmptyInput, "manager", "load", "input is empty", nil)
		logging.WarnWithContext(m.logger, "subtitle input rejected", faults.EventType(err),
			logging.Error(err),
			logging.Impact("no subtitles loaded"),
			logging.Hint("paste subtitle text or a URL"),
		)
		return err
	}

	m.loop.Cancel(m.parseTask)
	m.onParsed = nil
	if err := m.parser.Begin(text); err != nil {
		m.parseFailed(err)
		return err
	}
	m.logger.Debug("parse started",
		logging.Int("capacity", m.parser.Capacity()),
		logging.Int("length", len(text)),
	)
	m.sampler.Reset()
	m.onParsed = done
	m.board.Set(status.Parsing(0))
	m.stepParse()
	return nil
}

func (m *Manager) stepParse() {
	progress := m.parser.Step()
	if !progress.Done {
		m.board.Set(status.Parsing(progress.Percent))
		if m.sampler.Sample("parse", progress.Percent) {
			m.logger.Debug("parse progress",
				logging.Progress(progress.Percent),
				logging.CueCount(progress.Cues),
			)
		}
		m.parseTask = m.loop.AfterFrames(1, m.stepParse)
		return
	}

	done := m.onParsed
	m.onParsed = nil
	set, err := m.parser.Result()
	if err != nil {
		m.parseFailed(err)
		if done != nil {
			done(false)
		}
		return
	}

	m.set = set
	m.tracker = tracker.New(set)
	m.resetTracking()
	m.board.Set(status.Loaded)
	m.closeInputMenus()
	m.logger.Info("subtitles loaded", logging.CueCount(len(set)))
	if done != nil {
		done(true)
	}
}

func (m *Manager) parseFailed(err error) {
	m.set = nil
	m.tracker = nil
	m.resetTracking()
	m.board.Set(status.NotLoaded)
	m.board.Temporary(status.Failed, m.temporary)
	logging.WarnWithContext(m.logger, "subtitle parse failed", faults.EventType(err),
		logging.Error(err),
		logging.Impact("no subtitles loaded"),
		logging.Hint("check that the input is SRT or VTT"),
	)
}

// clearLocal drops the cue set without touching the payloads.
func (m *Manager) clearLocal() {
	m.loop.Cancel(m.parseTask)
	m.parser.Reset()
	m.onParsed = nil
	m.set = nil
	m.tracker = nil
	m.resetTracking()
	m.clearInputs()
	m.board.Set(status.Cleared)
}

func (m *Manager) resetTracking() {
	if m.tracker != nil {
		m.tracker.Reset()
	}
	m.displayed = ""
	m.overlay.Clear()
}

func (m *Manager) scheduleUpdate() {
	m.updateTask = m.loop.AfterFrames(m.updateRate+1, func() {
		if !m.running {
			return
		}
		m.update()
		m.scheduleUpdate()
	})
}

func (m *Manager) update() {
	if (!m.enabled || len(m.set) == 0) && !m.placeholder {
		return
	}
	if m.placeholder {
		m.render(status.PlaceholderText)
		return
	}
	if m.tracker == nil || !m.video.IsPlaying() {
		return
	}
	obs := m.tracker.Observe(m.video.CurrentTime())
	if obs.Seeked {
		m.displayed = ""
		m.overlay.Clear()
	}
	if obs.Changed {
		m.render(obs.Text)
	}
}

func (m *Manager) render(text string) {
	if text == m.displayed {
		return
	}
	m.displayed = text
	if text == "" {
		m.overlay.Clear()
		return
	}
	m.overlay.Render(text)
}
