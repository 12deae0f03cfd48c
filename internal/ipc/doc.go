// Package ipc exposes the running scheduler over JSON-RPC on a Unix socket
// and ships the matching client used by the CLI.
//
// The server wraps a daemon.Daemon and answers Status, Stop, TriggerNow and
// TestNotification. DTOs reuse the api package so the HTTP status endpoint and
// the socket return the same shape.
package ipc
