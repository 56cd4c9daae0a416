package models

import (
	"fmt"
	"time"
)

// AlertKind names the monitored metric and direction.
type AlertKind string

const (
	AlertTemperatureHigh AlertKind = "TEMPERATURE_HIGH"
	AlertTemperatureLow  AlertKind = "TEMPERATURE_LOW"
	AlertCO2High         AlertKind = "CO2_HIGH"
)

// AlertPhase is the derived position of one metric in its breach episode.
type AlertPhase string

const (
	PhaseNormal             AlertPhase = "NORMAL"
	PhaseBreachingUnalerted AlertPhase = "BREACHING_UNALERTED"
	PhaseBreachingAlerted   AlertPhase = "BREACHING_ALERTED"
)

// MetricAlertState counts consecutive breaching samples for one metric.
// Sent latches once an alert went out and clears on the next in-range sample.
type MetricAlertState struct {
	Count int  `json:"count"`
	Sent  bool `json:"sent"`
}

func (m MetricAlertState) Phase() AlertPhase {
	switch {
	case m.Count == 0:
		return PhaseNormal
	case m.Sent:
		return PhaseBreachingAlerted
	default:
		return PhaseBreachingUnalerted
	}
}

// AlertState holds the per-metric counters of the poll loop. The zero value
// is the state at loop start.
type AlertState struct {
	TempHigh MetricAlertState `json:"temp_high"`
	TempLow  MetricAlertState `json:"temp_low"`
	CO2High  MetricAlertState `json:"co2_high"`
}

// AlertEvent is emitted once per breach episode when the counter reaches the
// breach-count threshold.
type AlertEvent struct {
	Kind       AlertKind `json:"kind"`
	Threshold  float64   `json:"threshold"`
	Value      float64   `json:"value"`
	Location   string    `json:"location"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Message renders the chat text for the alert.
func (e AlertEvent) Message() string {
	switch e.Kind {
	case AlertTemperatureHigh:
		return fmt.Sprintf("ALERT: %s temperature above %s°F", e.Location, formatFloat(e.Threshold))
	case AlertTemperatureLow:
		return fmt.Sprintf("ALERT: %s temperature below %s°F", e.Location, formatFloat(e.Threshold))
	case AlertCO2High:
		return fmt.Sprintf("ALERT: %s CO2 above %s ppm", e.Location, formatFloat(e.Threshold))
	default:
		return fmt.Sprintf("ALERT: %s %s (value %s, threshold %s)", e.Location, e.Kind, formatFloat(e.Value), formatFloat(e.Threshold))
	}
}
