// Package schedule turns the configured HH:MM slots into absolute instants
// in a single fixed-offset zone: the next upload, today's missed slots, and
// the per-day keys used for deduplication.
package schedule
