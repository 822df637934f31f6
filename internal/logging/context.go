package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRoom names the relay room a peer belongs to.
	FieldRoom = "room"
	// FieldPeerID identifies the local or remote peer.
	FieldPeerID = "peer_id"
	// FieldOwner identifies the current data owner.
	FieldOwner = "owner"
	// FieldSyncID is the payload version token of a replication session.
	FieldSyncID = "sync_id"
	// FieldChunkIndex is the zero-based position of a chunk within a session.
	FieldChunkIndex = "chunk_index"
	// FieldChunkCount is the total number of chunks in a session.
	FieldChunkCount = "chunk_count"
	// FieldCueCount is the number of cues in a parsed set.
	FieldCueCount = "cue_count"
	// FieldStatus carries user-visible status text.
	FieldStatus = "status"
	// FieldProgressPercent is parse or transfer progress in percent.
	FieldProgressPercent = "progress_percent"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
)

type contextKey int

const (
	roomKey contextKey = iota
	peerKey
)

// WithRoom stores the room name used for log subjects.
func WithRoom(ctx context.Context, room string) context.Context {
	room = strings.TrimSpace(room)
	if room == "" {
		return ctx
	}
	return context.WithValue(ctx, roomKey, room)
}

// WithPeer stores the local peer identifier used for log subjects.
func WithPeer(ctx context.Context, peer string) context.Context {
	peer = strings.TrimSpace(peer)
	if peer == "" {
		return ctx
	}
	return context.WithValue(ctx, peerKey, peer)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if room, ok := ctx.Value(roomKey).(string); ok {
		fields = append(fields, slog.String(FieldRoom, room))
	}
	if peer, ok := ctx.Value(peerKey).(string); ok {
		fields = append(fields, slog.String(FieldPeerID, peer))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
