// Package cues turns SRT and VTT subtitle text into an ordered set of timed
// cues.
//
// Parsing is incremental: Begin prepares a session, Step performs a bounded
// slice of work against a wall-clock budget, and Result exposes the finished
// set. The slicing never changes the outcome; the same input always produces
// the same cues however the work is divided. Parse drains a session in one
// call for tools that do not run on the frame loop.
package cues
