package relay

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/rs/xid"

	"subsync/internal/host"
	"subsync/internal/logging"
	"subsync/internal/replication"
)

const (
	defaultWriteTimeout = 10 * time.Second
	helloTimeout        = 10 * time.Second
)

// ServerOptions configure a relay server.
type ServerOptions struct {
	Clock        clock.Clock
	Logger       *slog.Logger
	WriteTimeout time.Duration
}

// Server is the relay hub.
type Server struct {
	clock        clock.Clock
	logger       *slog.Logger
	writeTimeout time.Duration
	upgrader     websocket.Upgrader

	mu       sync.Mutex
	rooms    map[string]*room
	lastTime int64
}

type room struct {
	name    string
	members []*member
	owner   host.PeerID
	last    *replication.SyncedState
}

type member struct {
	connID xid.ID
	peer   host.PeerID
	name   string
	conn   *websocket.Conn
	mu     sync.Mutex
}

// RoomInfo is a snapshot of a room for status output.
type RoomInfo struct {
	Name    string      `json:"name"`
	Owner   host.PeerID `json:"owner"`
	Peers   []host.Peer `json:"peers"`
	SyncID  int64       `json:"sync_id,omitempty"`
	HasData bool        `json:"has_data"`
}

var errDuplicatePeer = errors.New("peer already connected")

// NewServer creates a relay server.
func NewServer(opts ServerOptions) *Server {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	timeout := opts.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	return &Server{
		clock:        clk,
		logger:       logging.NewComponentLogger(opts.Logger, "relay"),
		writeTimeout: timeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		rooms: make(map[string]*room),
	}
}

// Rooms returns a snapshot of every room, sorted by name.
func (s *Server) Rooms() []RoomInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RoomInfo, 0, len(s.rooms))
	for _, rm := range s.rooms {
		info := RoomInfo{Name: rm.name, Owner: rm.owner, Peers: rm.peerList()}
		if rm.last != nil {
			info.SyncID = rm.last.SyncID
			info.HasData = !rm.last.Empty()
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ServeHTTP upgrades the request and runs the connection until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()

	m := &member{connID: xid.New(), conn: conn}
	hello, err := s.readHello(m)
	if err != nil {
		logging.WarnWithContext(s.logger, "relay handshake failed", "handshake_failed",
			logging.String("conn_id", m.connID.String()),
			logging.Error(err),
			logging.Hint("client must send a hello frame first"),
			logging.Impact("connection closed"),
		)
		reason := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error())
		_ = conn.WriteControl(websocket.CloseMessage, reason, time.Now().Add(time.Second))
		return
	}

	roomName := hello.Room
	logger := s.logger.With(
		logging.Room(roomName),
		logging.Peer(string(m.peer)),
	)
	if err := s.join(roomName, m); err != nil {
		logger.Warn("join refused", logging.Error(err))
		reason := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error())
		_ = conn.WriteControl(websocket.CloseMessage, reason, time.Now().Add(time.Second))
		return
	}
	logger.Info("peer connected", logging.String("conn_id", m.connID.String()), logging.String("name", m.name))
	defer func() {
		s.leave(roomName, m)
		logger.Info("peer disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		frame, err := DecodeFrame(data)
		if err != nil {
			logger.Warn("discarding malformed frame", logging.Error(err))
			continue
		}
		switch frame.Kind {
		case KindState:
			s.forwardState(roomName, m, frame.State, logger)
		case KindTakeOwnership:
			s.transferOwnership(roomName, m.peer, logger)
		default:
			logger.Debug("ignoring frame", logging.String("kind", frame.Kind))
		}
	}
}

func (s *Server) readHello(m *member) (Frame, error) {
	_ = m.conn.SetReadDeadline(time.Now().Add(helloTimeout))
	defer m.conn.SetReadDeadline(time.Time{})

	_, data, err := m.conn.ReadMessage()
	if err != nil {
		return Frame{}, err
	}
	frame, err := DecodeFrame(data)
	if err != nil {
		return Frame{}, err
	}
	if frame.Kind != KindHello {
		return Frame{}, errors.New("expected hello frame")
	}
	frame.Room = strings.TrimSpace(frame.Room)
	if frame.Room == "" {
		return Frame{}, errors.New("hello frame without room")
	}
	m.peer = host.PeerID(strings.TrimSpace(string(frame.Peer)))
	if m.peer == "" {
		m.peer = host.PeerID(m.connID.String())
	}
	m.name = strings.TrimSpace(frame.Name)
	return frame, nil
}

// join registers m and sends the welcome and cached state. The server lock is
// held for every write so that each member sees room events in one order.
func (s *Server) join(name string, m *member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm := s.rooms[name]
	if rm == nil {
		rm = &room{name: name}
		s.rooms[name] = rm
	}
	for _, existing := range rm.members {
		if existing.peer == m.peer {
			return errDuplicatePeer
		}
	}
	rm.members = append(rm.members, m)
	if rm.owner == "" {
		rm.owner = m.peer
	}

	welcome := Frame{
		Kind:       KindWelcome,
		Room:       name,
		Peer:       m.peer,
		Owner:      rm.owner,
		Peers:      rm.peerList(),
		ServerTime: s.serverTimeLocked(),
	}
	if err := s.write(m, welcome); err != nil {
		rm.remove(m)
		if len(rm.members) == 0 {
			delete(s.rooms, name)
		}
		return err
	}
	if rm.last != nil {
		_ = s.write(m, Frame{Kind: KindState, Peer: rm.owner, State: rm.last})
	}
	joined := Frame{Kind: KindJoined, Peer: m.peer, Name: m.name}
	for _, other := range rm.members {
		if other != m {
			_ = s.write(other, joined)
		}
	}
	return nil
}

func (s *Server) leave(name string, m *member) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm := s.rooms[name]
	if rm == nil || !rm.remove(m) {
		return
	}
	if len(rm.members) == 0 {
		delete(s.rooms, name)
		return
	}
	if rm.owner == m.peer {
		rm.owner = rm.members[0].peer
		s.broadcastLocked(rm, Frame{Kind: KindOwner, Owner: rm.owner}, nil)
	}
	s.broadcastLocked(rm, Frame{Kind: KindLeft, Peer: m.peer}, nil)
}

func (s *Server) forwardState(name string, m *member, state *replication.SyncedState, logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm := s.rooms[name]
	ack := Frame{Kind: KindAck, ServerTime: s.serverTimeLocked()}
	if rm == nil || state == nil || rm.owner != m.peer {
		ack.Error = "not owner"
		logger.Debug("state from non-owner dropped")
		_ = s.write(m, ack)
		return
	}
	copied := *state
	rm.last = &copied
	s.broadcastLocked(rm, Frame{Kind: KindState, Peer: m.peer, State: &copied}, m)
	ack.OK = true
	_ = s.write(m, ack)
	logger.Debug("state forwarded",
		logging.SyncID(copied.SyncID),
		logging.ChunkIndex(copied.ChunkIndex),
		logging.ChunkCount(copied.ChunkCount),
	)
}

func (s *Server) transferOwnership(name string, peer host.PeerID, logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm := s.rooms[name]
	if rm == nil || rm.owner == peer {
		return
	}
	rm.owner = peer
	s.broadcastLocked(rm, Frame{Kind: KindOwner, Owner: peer}, nil)
	logger.Info("ownership transferred", logging.Owner(string(peer)))
}

func (s *Server) broadcastLocked(rm *room, f Frame, skip *member) {
	for _, m := range rm.members {
		if m == skip {
			continue
		}
		if err := s.write(m, f); err != nil {
			s.logger.Debug("broadcast write failed",
				logging.Peer(string(m.peer)),
				logging.Error(err),
			)
		}
	}
}

func (s *Server) write(m *member, f Frame) error {
	data, err := EncodeFrame(f)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return m.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (s *Server) serverTimeLocked() int64 {
	now := s.clock.Now().UnixMilli()
	if now <= s.lastTime {
		now = s.lastTime + 1
	}
	s.lastTime = now
	return now
}

func (rm *room) peerList() []host.Peer {
	out := make([]host.Peer, 0, len(rm.members))
	for _, m := range rm.members {
		out = append(out, host.Peer{ID: m.peer, Name: m.name})
	}
	return out
}

func (rm *room) remove(m *member) bool {
	for idx, existing := range rm.members {
		if existing == m {
			rm.members = append(rm.members[:idx], rm.members[idx+1:]...)
			return true
		}
	}
	return false
}
