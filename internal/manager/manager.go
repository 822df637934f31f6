package manager

import (
	"log/slog"
	"time"

	"subsync/internal/cues"
	"subsync/internal/host"
	"subsync/internal/logging"
	"subsync/internal/replication"
	"subsync/internal/scheduler"
	"subsync/internal/status"
	"subsync/internal/tracker"
)

// DefaultTemporaryStatus is how long refusals and failures stay on screen.
const DefaultTemporaryStatus = 3 * time.Second

// Video is the playback source polled on every update.
type Video interface {
	IsPlaying() bool
	CurrentTime() float64
	CurrentURL() string
}

// Overlay shows the active subtitle text.
type Overlay interface {
	Render(text string)
	Clear()
}

// Control is a registered control surface.
type Control interface {
	status.Sink
	ClearInput()
	CloseInputMenu()
	OwnerChanged(label string)
	LockChanged(locked bool)
}

// Options configures a Manager.
type Options struct {
	Network host.Network
	Loop    *scheduler.Loop
	Video   Video
	Overlay Overlay
	Fetcher Fetcher
	Logger  *slog.Logger

	ChunkSize       int
	UpdateRate      int
	FrameBudget     time.Duration
	LinesPerFrame   int
	FilterTags      bool
	ClearOnNewVideo bool
	TemporaryStatus time.Duration
}

// Manager is the subtitle engine of one peer.
type Manager struct {
	net     host.Network
	loop    *scheduler.Loop
	video   Video
	overlay Overlay
	fetcher Fetcher
	logger  *slog.Logger

	updateRate      int
	clearOnNewVideo bool
	temporary       time.Duration

	board    *status.Board
	controls []Control
	sampler  *logging.ProgressSampler
	transfer *logging.ProgressSampler

	parser    *cues.Parser
	parseTask scheduler.TaskID
	onParsed  func(ok bool)
	set       cues.Set
	tracker   *tracker.Tracker

	sender   *replication.Sender
	receiver *replication.Receiver
	data     string
	local    string
	syncID   int64
	owner    host.PeerID

	enabled     bool
	localMode   bool
	locked      bool
	placeholder bool
	displayed   string
	lastURL     string

	updateTask scheduler.TaskID
	running    bool
}

// New creates a manager and binds it to the network.
func New(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	loop := opts.Loop
	if loop == nil {
		loop = scheduler.New(nil)
	}
	temporary := opts.TemporaryStatus
	if temporary <= 0 {
		temporary = DefaultTemporaryStatus
	}
	budget := opts.FrameBudget
	if budget <= 0 {
		budget = cues.DefaultBudget
	}

	m := &Manager{
		net:             opts.Network,
		loop:            loop,
		video:           opts.Video,
		overlay:         opts.Overlay,
		fetcher:         opts.Fetcher,
		logger:          logging.NewComponentLogger(logger, "manager"),
		updateRate:      max(0, opts.UpdateRate),
		clearOnNewVideo: opts.ClearOnNewVideo,
		temporary:       temporary,
		board:           status.NewBoard(loop),
		sampler:         logging.NewProgressSampler(25),
		transfer:        logging.NewProgressSampler(25),
		parser: cues.NewParser(cues.Options{
			Budget:       budget,
			LinesPerStep: max(0, opts.LinesPerFrame),
			FilterTags:   opts.FilterTags,
			Clock:        loop.Clock(),
		}),
		sender:   replication.NewSender(opts.ChunkSize),
		receiver: replication.NewReceiver(),
		enabled:  true,
	}
	if m.video == nil {
		m.video = stoppedVideo{}
	}
	if m.overlay == nil {
		m.overlay = nopOverlay{}
	}
	m.board.Set(status.NotLoaded)
	if m.net != nil {
		m.owner = m.net.Owner()
		m.net.Bind(m)
	}
	return m
}

// Start schedules the playback update on the loop.
func (m *Manager) Start() {
	if m.running {
		return
	}
	m.running = true
	m.scheduleUpdate()
}

// Stop cancels scheduled work and abandons any parse in progress.
func (m *Manager) Stop() {
	m.running = false
	m.loop.Cancel(m.updateTask)
	m.loop.Cancel(m.parseTask)
	m.parser.Reset()
	m.onParsed = nil
}

// AttachOverlay sets the overlay. Only one overlay may be attached.
func (m *Manager) AttachOverlay(o Overlay) bool {
	if _, empty := m.overlay.(nopOverlay); !empty {
		m.logger.Warn("overlay already attached; ignoring another",
			logging.Event("overlay_duplicate"),
		)
		return false
	}
	m.overlay = o
	return true
}

// Register adds a control. It immediately receives the status, owner and
// lock state. Registering the same control twice is a no-op.
func (m *Manager) Register(c Control) {
	for _, existing := range m.controls {
		if existing == c {
			return
		}
	}
	m.controls = append(m.controls, c)
	m.board.Attach(c)
	c.OwnerChanged(m.ownerLabel())
	c.LockChanged(m.locked)
}

// Unregister removes a control.
func (m *Manager) Unregister(c Control) {
	for idx, existing := range m.controls {
		if existing == c {
			m.controls = append(m.controls[:idx], m.controls[idx+1:]...)
			m.board.Detach(c)
			return
		}
	}
}

// Status returns the status text shown on controls, without the local indicator.
func (m *Manager) Status() string {
	return m.board.Text()
}

// Board exposes the status board.
func (m *Manager) Board() *status.Board {
	return m.board
}

// Cues returns the active cue set.
func (m *Manager) Cues() cues.Set {
	return m.set
}

// CueCount returns the number of loaded cues.
func (m *Manager) CueCount() int {
	return len(m.set)
}

// Data returns the synchronized payload.
func (m *Manager) Data() string {
	return m.data
}

// SyncID returns the version token of the synchronized payload.
func (m *Manager) SyncID() int64 {
	return m.syncID
}

// Parsing reports whether a parse is in progress.
func (m *Manager) Parsing() bool {
	return m.parser.Active()
}

func (m *Manager) IsEnabled() bool { return m.enabled }

func (m *Manager) IsLocal() bool { return m.localMode }

func (m *Manager) IsLocked() bool { return m.locked }

// DisplayText returns the text last handed to the overlay.
func (m *Manager) DisplayText() string {
	return m.displayed
}

// DataComplete reports whether no transfer is running in either direction.
// Destructive operations wait for it.
func (m *Manager) DataComplete() bool {
	return m.receiver.Complete() && !m.sender.Active()
}

func (m *Manager) ownerLabel() string {
	if m.net == nil {
		return ""
	}
	if m.localMode {
		return status.OwnerLabel(m.net.PeerName(m.net.LocalPeer()), true)
	}
	return status.OwnerLabel(m.net.PeerName(m.net.Owner()), false)
}

func (m *Manager) ownerName() string {
	if m.net == nil {
		return ""
	}
	return m.net.PeerName(m.net.Owner())
}

func (m *Manager) notifyOwner() {
	label := m.ownerLabel()
	for _, c := range m.controls {
		c.OwnerChanged(label)
	}
}

func (m *Manager) notifyLock() {
	for _, c := range m.controls {
		c.LockChanged(m.locked)
	}
}

func (m *Manager) clearInputs() {
	for _, c := range m.controls {
		c.ClearInput()
	}
}

func (m *Manager) closeInputMenus() {
	for _, c := range m.controls {
		c.CloseInputMenu()
	}
}

type stoppedVideo struct{}

func (stoppedVideo) IsPlaying() bool { return false }
func (stoppedVideo) CurrentTime() float64 { return 0 }
func (stoppedVideo) CurrentURL() string { return "" }

type nopOverlay struct{}

func (nopOverlay) Render(string) {}
func (nopOverlay) Clear() {}
