package ipc

import "breathein/internal/api"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse is the daemon status DTO.
type StatusResponse = api.DaemonStatus

// StopRequest asks the scheduler to shut down.
type StopRequest struct{}

// StopResponse acknowledges a stop request.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// TriggerRequest asks for an immediate upload of the current slot.
type TriggerRequest struct{}

// TriggerResponse reports the slot that was triggered.
type TriggerResponse struct {
	Triggered bool   `json:"triggered"`
	Slot      string `json:"slot,omitempty"`
	Message   string `json:"message"`
}

// TestNotificationRequest sends a test notification.
type TestNotificationRequest struct{}

// TestNotificationResponse reports the notification outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
