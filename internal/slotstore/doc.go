// Package slotstore persists which daily upload slots have already produced
// a video, backed by SQLite with embedded migrations.
//
// Keys have the form YYYY-MM-DD_HH:MM in the schedule's zone. Only a
// successful upload marks a key, so a failed slot may be retried by a manual
// trigger the same day. Prune drops history older than the configured
// retention.
package slotstore
