// Package manager ties the subtitle engine together.
//
// A Manager owns the synchronized and local payloads, the parsed cue set and
// the playback tracker. Controls call its entry points, the host network
// delivers replication callbacks, and the frame loop drives parsing and cue
// lookup. Every method runs on the loop goroutine; the only work that leaves
// it is fetching a URL, whose result is posted back.
//
// Failures never stop the manager. Each one is logged and turned into status
// text, and the manager falls back to showing no subtitles.
package manager
