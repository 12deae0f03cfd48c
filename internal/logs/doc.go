// Package logs reads the scheduler's log file for `breathein show`.
//
// Tail returns the last N lines and the byte offset after them; Follow polls
// from an offset and hands each batch of new lines to a callback until the
// context ends. Both follow the breathein.log link, and Follow starts over
// when the file shrinks because a restart pointed the link at a new run log.
package logs
