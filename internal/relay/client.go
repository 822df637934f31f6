package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"subsync/internal/host"
	"subsync/internal/logging"
	"subsync/internal/scheduler"
)

// ClientOptions configure a relay connection.
type ClientOptions struct {
	URL    string
	Room   string
	Name   string
	PeerID host.PeerID
	Loop   *scheduler.Loop
	Clock  clock.Clock
	Logger *slog.Logger

	// WriteTimeout bounds each frame write. Zero uses ten seconds.
	WriteTimeout time.Duration
}

// Client is a host.Network backed by a relay connection. Handler callbacks
// are posted onto the loop given in the options.
type Client struct {
	room         string
	peer         host.PeerID
	loop         *scheduler.Loop
	clock        clock.Clock
	logger       *slog.Logger
	writeTimeout time.Duration

	conn    *websocket.Conn
	writeMu sync.Mutex

	mu       sync.Mutex
	owner    host.PeerID
	peers    []host.Peer
	offset   int64
	lastTime int64
	pending  bool
	handler  host.Handler
	err      error

	done chan struct{}
}

var _ host.Network = (*Client)(nil)

// Dial connects to a relay, performs the hello/welcome exchange and starts
// reading frames in the background.
func Dial(ctx context.Context, opts ClientOptions) (*Client, error) {
	if opts.Loop == nil {
		return nil, errors.New("relay dial: loop is required")
	}
	room := strings.TrimSpace(opts.Room)
	if room == "" {
		return nil, errors.New("relay dial: room is required")
	}
	peer := opts.PeerID
	if peer == "" {
		peer = host.PeerID(uuid.NewString())
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	timeout := opts.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, opts.URL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("relay dial %s: %w", opts.URL, err)
	}

	c := &Client{
		room:         room,
		peer:         peer,
		loop:         opts.Loop,
		clock:        clk,
		logger:       logging.NewComponentLogger(opts.Logger, "relay-client").With(logging.Room(room), logging.Peer(string(peer))),
		writeTimeout: timeout,
		conn:         conn,
		done:         make(chan struct{}),
	}

	if err := c.send(Frame{Kind: KindHello, Room: room, Peer: peer, Name: strings.TrimSpace(opts.Name)}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("relay hello: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	} else {
		_ = conn.SetReadDeadline(time.Now().Add(helloTimeout))
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("relay welcome: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})
	welcome, err := DecodeFrame(data)
	if err != nil || welcome.Kind != KindWelcome {
		conn.Close()
		return nil, fmt.Errorf("relay welcome: unexpected frame")
	}
	c.owner = welcome.Owner
	c.peers = welcome.Peers
	c.syncTime(welcome.ServerTime)

	c.logger.Info("joined relay room",
		logging.Owner(string(c.owner)),
		logging.Int("peers", len(c.peers)),
	)
	go c.readLoop()
	return c, nil
}

// Bind installs the handler.
func (c *Client) Bind(h host.Handler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

func (c *Client) LocalPeer() host.PeerID { return c.peer }

func (c *Client) Owner() host.PeerID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner
}

func (c *Client) IsOwner() bool { return c.Owner() == c.peer }

// TakeOwnership claims the room. The local view changes immediately; the
// relay confirms with an owner frame to every member.
func (c *Client) TakeOwnership() {
	c.mu.Lock()
	c.owner = c.peer
	c.mu.Unlock()
	if err := c.send(Frame{Kind: KindTakeOwnership}); err != nil {
		c.logger.Warn("take ownership failed", logging.Error(err))
	}
}

func (c *Client) PeerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.peers)
}

func (c *Client) PeerName(id host.PeerID) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.peers {
		if p.ID == id && p.Name != "" {
			return p.Name
		}
	}
	return string(id)
}

// ServerTimeMillis estimates the relay clock from the last timestamp it sent.
// Values never repeat.
func (c *Client) ServerTimeMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now().UnixMilli() + c.offset
	if now <= c.lastTime {
		now = c.lastTime + 1
	}
	c.lastTime = now
	return now
}

// RequestSerialization schedules a state frame on the next tick.
func (c *Client) RequestSerialization() {
	c.mu.Lock()
	if c.owner != c.peer || c.pending {
		c.mu.Unlock()
		return
	}
	c.pending = true
	c.mu.Unlock()
	c.loop.Post(c.flush)
}

func (c *Client) flush() {
	c.mu.Lock()
	c.pending = false
	h := c.handler
	owner := c.owner == c.peer
	c.mu.Unlock()
	if h == nil || !owner {
		return
	}
	state := h.OnPreSerialization()
	if err := c.send(Frame{Kind: KindState, State: &state}); err != nil {
		c.logger.Warn("state send failed", logging.Error(err))
		h.OnPostSerialization(false)
	}
	// Success is reported when the relay acknowledges the frame.
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that ended the connection, if any.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close leaves the room.
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	err := c.conn.Close()
	<-c.done
	return err
}

func (c *Client) send(f Frame) error {
	data, err := EncodeFrame(f)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (c *Client) syncTime(server int64) {
	if server <= 0 {
		return
	}
	c.offset = server - c.clock.Now().UnixMilli()
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && !errors.Is(err, net.ErrClosed) {
				c.mu.Lock()
				c.err = err
				c.mu.Unlock()
				c.logger.Warn("relay connection closed", logging.Error(err))
			}
			return
		}
		frame, err := DecodeFrame(data)
		if err != nil {
			c.logger.Warn("discarding malformed frame", logging.Error(err))
			continue
		}
		c.handle(frame)
	}
}

func (c *Client) handle(f Frame) {
	switch f.Kind {
	case KindState:
		if f.State == nil {
			return
		}
		state := *f.State
		c.deliver(func(h host.Handler) { h.OnDeserialization(state) })
	case KindAck:
		c.mu.Lock()
		c.syncTime(f.ServerTime)
		c.mu.Unlock()
		ok := f.OK
		c.deliver(func(h host.Handler) { h.OnPostSerialization(ok) })
	case KindJoined:
		c.mu.Lock()
		c.peers = append(c.peers, host.Peer{ID: f.Peer, Name: f.Name})
		c.mu.Unlock()
		id := f.Peer
		c.deliver(func(h host.Handler) { h.OnPeerJoined(id) })
	case KindLeft:
		c.mu.Lock()
		for idx, p := range c.peers {
			if p.ID == f.Peer {
				c.peers = append(c.peers[:idx], c.peers[idx+1:]...)
				break
			}
		}
		c.mu.Unlock()
		id := f.Peer
		c.deliver(func(h host.Handler) { h.OnPeerLeft(id) })
	case KindOwner:
		c.mu.Lock()
		c.owner = f.Owner
		c.mu.Unlock()
		owner := f.Owner
		c.deliver(func(h host.Handler) { h.OnOwnershipTransferred(owner) })
	default:
		c.logger.Debug("ignoring frame", logging.String("kind", f.Kind))
	}
}

func (c *Client) deliver(fn func(h host.Handler)) {
	c.loop.Post(func() {
		c.mu.Lock()
		h := c.handler
		c.mu.Unlock()
		if h != nil {
			fn(h)
		}
	})
}
