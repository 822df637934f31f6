package logging

import (
	"log/slog"
)

type Attr = slog.Attr

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Peer and Owner accept host.PeerID or any other string type.
func Peer[T ~string](id T) Attr { return slog.String(FieldPeerID, string(id)) }

func Owner[T ~string](id T) Attr { return slog.String(FieldOwner, string(id)) }

func Room(name string) Attr { return slog.String(FieldRoom, name) }

func SyncID(id int64) Attr { return slog.Int64(FieldSyncID, id) }

func ChunkIndex(index int) Attr { return slog.Int(FieldChunkIndex, index) }

func ChunkCount(count int) Attr { return slog.Int(FieldChunkCount, count) }

func CueCount(count int) Attr { return slog.Int(FieldCueCount, count) }

func Progress(percent int) Attr { return slog.Int(FieldProgressPercent, percent) }

func Hint(text string) Attr { return slog.String(FieldErrorHint, text) }

func Impact(text string) Attr { return slog.String(FieldImpact, text) }

func Event(eventType string) Attr { return slog.String(FieldEventType, eventType) }

// Args converts attributes into the variadic form accepted by slog.Logger.
func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

// NewNop returns a logger that drops everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewComponentLogger tags logger with a component name. A nil logger yields
// a discarding one.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// WarnWithContext logs a warning classified by eventType. Warnings always
// carry a hint and an impact so the console shows what broke and what to do;
// attrs may supply their own.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	var hint, impact bool
	for _, a := range attrs {
		switch a.Key {
		case FieldErrorHint:
			hint = true
		case FieldImpact:
			impact = true
		}
	}
	attrs = append(attrs, Event(eventType))
	if !hint {
		attrs = append(attrs, Hint("see the status line for details"))
	}
	if !impact {
		attrs = append(attrs, Impact("subtitles unchanged"))
	}
	logger.Warn(msg, Args(attrs...)...)
}
