// Package notifications publishes upload events to ntfy.
//
// A topic may be a full URL or a bare ntfy.sh topic name. Each failure and
// success event can be switched off in config; with no topic configured the
// service is a no-op so callers never need to check.
package notifications
