package relay

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"subsync/internal/host"
	"subsync/internal/replication"
)

// Frame kinds exchanged over the relay socket.
const (
	KindHello         = "hello"
	KindWelcome       = "welcome"
	KindState         = "state"
	KindAck           = "ack"
	KindJoined        = "joined"
	KindLeft          = "left"
	KindOwner         = "owner"
	KindTakeOwnership = "take_ownership"
)

// Frame is the single envelope used in both directions. Fields not relevant
// to a kind are left empty.
type Frame struct {
	Kind       string                   `cbor:"1,keyasint" json:"kind"`
	Room       string                   `cbor:"2,keyasint,omitempty" json:"room,omitempty"`
	Peer       host.PeerID              `cbor:"3,keyasint,omitempty" json:"peer,omitempty"`
	Name       string                   `cbor:"4,keyasint,omitempty" json:"name,omitempty"`
	Owner      host.PeerID              `cbor:"5,keyasint,omitempty" json:"owner,omitempty"`
	Peers      []host.Peer              `cbor:"6,keyasint,omitempty" json:"peers,omitempty"`
	State      *replication.SyncedState `cbor:"7,keyasint,omitempty" json:"state,omitempty"`
	ServerTime int64                    `cbor:"8,keyasint,omitempty" json:"server_time,omitempty"`
	OK         bool                     `cbor:"9,keyasint,omitempty" json:"ok,omitempty"`
	Error      string                   `cbor:"10,keyasint,omitempty" json:"error,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{MaxArrayElements: 4096}.DecMode()
	if err != nil {
		panic(err)
	}
}

// EncodeFrame serializes a frame to CBOR.
func EncodeFrame(f Frame) ([]byte, error) {
	if f.Kind == "" {
		return nil, fmt.Errorf("encode frame: missing kind")
	}
	return encMode.Marshal(f)
}

// DecodeFrame parses a CBOR frame.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := decMode.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if f.Kind == "" {
		return Frame{}, fmt.Errorf("decode frame: missing kind")
	}
	return f, nil
}
