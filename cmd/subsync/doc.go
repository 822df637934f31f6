// Package main hosts the subsync CLI.
//
// The Cobra command tree exposes the subtitle engine from a terminal: parse
// checks a subtitle file, play runs a peer that renders cues as a simulated
// video plays, relay hosts rooms for peers on other machines, and settings
// manages the presentation export string. Configuration and logging are
// resolved once in the command context so subcommands only wire packages
// together.
package main
