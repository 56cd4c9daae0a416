package models

import "time"

// Event types stored in the event log.
const (
	EventStartup  = "STARTUP"
	EventAlert    = "ALERT"
	EventError    = "ERROR"
	EventSettings = "SETTINGS"
	EventReboot   = "REBOOT"
)

// SensorEvent is a single audit log entry.
type SensorEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // STARTUP | ALERT | ERROR | SETTINGS | REBOOT
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
