// Package api defines the wire-format types shared by the IPC socket, the
// HTTP status endpoint, and the CLI.
//
// # Key Types
//
// DaemonStatus: running state, pid, next slot, the configured slots, and the
// last upload attempt.
//
// Attempt: one upload attempt as the CLI and dashboards render it.
//
// Check: a requirements-check line with a severity.
//
// # Converters
//
// FromDaemonStatus: daemon.Status -> DaemonStatus.
//
// FromAttempt / FromEntry: a live workflow attempt or a persisted upload-log
// row -> Attempt, so the offline status path renders the same shape.
//
// FromPreflight: preflight results -> Checks with ok/warn/error severities.
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
package api
