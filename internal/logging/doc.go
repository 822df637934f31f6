// Package logging assembles the structured slog loggers used by subsync.
//
// It owns the console and JSON handlers, level and output plumbing, and a
// small set of field keys (peer, room, sync id, chunk position) so the frame
// loop, relay and manager emit lines with the same shape. Context helpers tag
// log lines with the room and peer a component is acting for, and NewNop
// provides a silent logger for tests and optional wiring.
package logging
