// Package logging assembles the structured slog loggers used across
// breathein.
//
// It owns the console and JSON handlers, level and output plumbing, the
// standard field names (component, event_type, error_hint, impact, slot,
// attempt_id), and context-aware helpers so an upload attempt tags every line
// it emits. NewNop serves tests and wiring code that cannot fail.
package logging
