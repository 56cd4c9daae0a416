package service

import (
	"errors"
	"fmt"
	"math"

	"single_sensor/internal/models"
)

var ErrInvalidSample = errors.New("invalid sample")

// EvaluateAlerts advances the per-metric breach counters by one sample and
// returns the alerts that became due. It never touches I/O; the caller stamps
// the location and dispatches the events.
//
// Temperature is two-sided: the high and low paths are exclusive per sample,
// and only an in-range sample clears them. A swing from above the upper
// threshold straight to below the lower one leaves the high counter as it was.
// On error the input state is returned unchanged.
func EvaluateAlerts(sample models.Sample, th models.Thresholds, st models.AlertState) (models.AlertState, []models.AlertEvent, error) {
	if err := th.Validate(); err != nil {
		return st, nil, err
	}
	if err := validateSample(sample); err != nil {
		return st, nil, err
	}

	next := st
	var events []models.AlertEvent
	emit := func(kind models.AlertKind, threshold, value float64) {
		events = append(events, models.AlertEvent{
			Kind:       kind,
			Threshold:  threshold,
			Value:      value,
			OccurredAt: sample.ReadAt,
		})
	}

	switch t := sample.TemperatureF; {
	case t > th.TempUpperF:
		if breach(&next.TempHigh, th.BreachCount) {
			emit(models.AlertTemperatureHigh, th.TempUpperF, t)
		}
	case t < th.TempLowerF:
		if breach(&next.TempLow, th.BreachCount) {
			emit(models.AlertTemperatureLow, th.TempLowerF, t)
		}
	default:
		next.TempHigh = models.MetricAlertState{}
		next.TempLow = models.MetricAlertState{}
	}

	if c := sample.CO2PPM; c > th.CO2ThresholdPPM {
		if breach(&next.CO2High, th.BreachCount) {
			emit(models.AlertCO2High, th.CO2ThresholdPPM, c)
		}
	} else {
		next.CO2High = models.MetricAlertState{}
	}

	return next, events, nil
}

// breach counts one more breaching sample and reports whether the alert for
// this episode is due now.
func breach(m *models.MetricAlertState, n int) bool {
	m.Count++
	if m.Count >= n && !m.Sent {
		m.Sent = true
		return true
	}
	return false
}

func validateSample(s models.Sample) error {
	for name, v := range map[string]float64{
		"temperature": s.TemperatureF,
		"humidity":    s.Humidity,
		"co2":         s.CO2PPM,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidSample, name, v)
		}
	}
	return nil
}
