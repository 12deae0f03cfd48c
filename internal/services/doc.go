// Package services defines shared utilities consumed by the upload workflow
// and its external integrations.
//
// It provides context helpers that stamp the slot, attempt id, and
// correlation id for logging, plus sentinel error markers and Wrap so
// failures from ffmpeg, the LLM endpoint, and YouTube classify the same way
// in logs, metrics, and notifications.
package services
