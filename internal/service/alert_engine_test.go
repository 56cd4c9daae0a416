package service

import (
	"errors"
	"math"
	"testing"
	"time"

	"single_sensor/internal/models"
)

var scenarioThresholds = models.Thresholds{
	TempUpperF:      88.0,
	TempLowerF:      40.0,
	CO2ThresholdPPM: 1000,
	BreachCount:     3,
}

// runSeries feeds samples through the engine and returns the final state and
// the 1-based sample index of every emitted event.
func runSeries(t *testing.T, samples []models.Sample) (models.AlertState, map[int][]models.AlertKind) {
	t.Helper()
	var st models.AlertState
	fired := map[int][]models.AlertKind{}
	for i, s := range samples {
		next, events, err := EvaluateAlerts(s, scenarioThresholds, st)
		if err != nil {
			t.Fatalf("sample %d: %v", i+1, err)
		}
		st = next
		for _, ev := range events {
			fired[i+1] = append(fired[i+1], ev.Kind)
		}
	}
	return st, fired
}

func temps(vals ...float64) []models.Sample {
	out := make([]models.Sample, len(vals))
	for i, v := range vals {
		out[i] = models.Sample{TemperatureF: v, Humidity: 40, CO2PPM: 600}
	}
	return out
}

func co2(vals ...float64) []models.Sample {
	out := make([]models.Sample, len(vals))
	for i, v := range vals {
		out[i] = models.Sample{TemperatureF: 70, Humidity: 40, CO2PPM: v}
	}
	return out
}

func TestEvaluateAlerts_Scenarios(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		samples   []models.Sample
		wantFired map[int][]models.AlertKind
		wantState models.AlertState
	}{
		{
			name:      "high temperature alerts on third sample",
			samples:   temps(89, 90, 91),
			wantFired: map[int][]models.AlertKind{3: {models.AlertTemperatureHigh}},
			wantState: models.AlertState{TempHigh: models.MetricAlertState{Count: 3, Sent: true}},
		},
		{
			name:      "recovery before threshold resets counter",
			samples:   temps(89, 90, 50),
			wantFired: map[int][]models.AlertKind{},
			wantState: models.AlertState{},
		},
		{
			name:      "one alert per episode",
			samples:   temps(89, 90, 91, 91, 91),
			wantFired: map[int][]models.AlertKind{3: {models.AlertTemperatureHigh}},
			wantState: models.AlertState{TempHigh: models.MetricAlertState{Count: 5, Sent: true}},
		},
		{
			name:      "low temperature alerts on third sample",
			samples:   temps(39, 38.5, 10),
			wantFired: map[int][]models.AlertKind{3: {models.AlertTemperatureLow}},
			wantState: models.AlertState{TempLow: models.MetricAlertState{Count: 3, Sent: true}},
		},
		{
			name:      "co2 alerts on third sample",
			samples:   co2(1001, 1002, 1003),
			wantFired: map[int][]models.AlertKind{3: {models.AlertCO2High}},
			wantState: models.AlertState{CO2High: models.MetricAlertState{Count: 3, Sent: true}},
		},
		{
			name:      "co2 recovery resets counter",
			samples:   co2(1001, 999, 1001),
			wantFired: map[int][]models.AlertKind{},
			wantState: models.AlertState{CO2High: models.MetricAlertState{Count: 1}},
		},
		{
			name:      "values equal to thresholds are in range",
			samples:   []models.Sample{{TemperatureF: 88, CO2PPM: 1000}, {TemperatureF: 40, CO2PPM: 1000}, {TemperatureF: 88, CO2PPM: 1000}},
			wantFired: map[int][]models.AlertKind{},
			wantState: models.AlertState{},
		},
		{
			name:    "no carry over after recovery",
			samples: temps(89, 90, 91, 70, 89, 90, 91),
			wantFired: map[int][]models.AlertKind{
				3: {models.AlertTemperatureHigh},
				7: {models.AlertTemperatureHigh},
			},
			wantState: models.AlertState{TempHigh: models.MetricAlertState{Count: 3, Sent: true}},
		},
		{
			name: "temperature and co2 alert in the same cycle",
			samples: []models.Sample{
				{TemperatureF: 95, CO2PPM: 1500},
				{TemperatureF: 95, CO2PPM: 1500},
				{TemperatureF: 95, CO2PPM: 1500},
			},
			wantFired: map[int][]models.AlertKind{3: {models.AlertTemperatureHigh, models.AlertCO2High}},
			wantState: models.AlertState{
				TempHigh: models.MetricAlertState{Count: 3, Sent: true},
				CO2High:  models.MetricAlertState{Count: 3, Sent: true},
			},
		},
		{
			name:      "high to low swing keeps the high latch",
			samples:   temps(89, 90, 91, 30),
			wantFired: map[int][]models.AlertKind{3: {models.AlertTemperatureHigh}},
			wantState: models.AlertState{
				TempHigh: models.MetricAlertState{Count: 3, Sent: true},
				TempLow:  models.MetricAlertState{Count: 1},
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			st, fired := runSeries(t, tc.samples)
			if st != tc.wantState {
				t.Errorf("state = %+v; want %+v", st, tc.wantState)
			}
			if len(fired) != len(tc.wantFired) {
				t.Fatalf("fired = %v; want %v", fired, tc.wantFired)
			}
			for idx, want := range tc.wantFired {
				got := fired[idx]
				if len(got) != len(want) {
					t.Fatalf("sample %d fired %v; want %v", idx, got, want)
				}
				for i := range want {
					if got[i] != want[i] {
						t.Fatalf("sample %d fired %v; want %v", idx, got, want)
					}
				}
			}
		})
	}
}

func TestEvaluateAlerts_NonBreachingSequenceStaysNormal(t *testing.T) {
	t.Parallel()

	var st models.AlertState
	for i := 0; i < 200; i++ {
		s := models.Sample{
			TemperatureF: 40 + float64(i%49),
			Humidity:     float64(i % 100),
			CO2PPM:       float64(i * 5),
		}
		next, events, err := EvaluateAlerts(s, scenarioThresholds, st)
		if err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
		if len(events) != 0 {
			t.Fatalf("sample %d emitted %v", i, events)
		}
		if next != (models.AlertState{}) {
			t.Fatalf("sample %d: state %+v; want zero", i, next)
		}
		st = next
	}
}

func TestEvaluateAlerts_EventFields(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	th := scenarioThresholds
	th.BreachCount = 1

	_, events, err := EvaluateAlerts(models.Sample{TemperatureF: 92.5, CO2PPM: 400, ReadAt: at}, th, models.AlertState{})
	if err != nil {
		t.Fatalf("EvaluateAlerts: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("want 1 event, got %v", events)
	}
	ev := events[0]
	if ev.Kind != models.AlertTemperatureHigh || ev.Threshold != 88 || ev.Value != 92.5 || !ev.OccurredAt.Equal(at) {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Location != "" {
		t.Fatalf("engine must not set location, got %q", ev.Location)
	}
}

func TestEvaluateAlerts_Errors(t *testing.T) {
	t.Parallel()

	start := models.AlertState{TempHigh: models.MetricAlertState{Count: 2}}

	cases := []struct {
		name    string
		sample  models.Sample
		th      models.Thresholds
		wantErr error
	}{
		{
			name:    "NaN temperature",
			sample:  models.Sample{TemperatureF: math.NaN()},
			th:      scenarioThresholds,
			wantErr: ErrInvalidSample,
		},
		{
			name:    "infinite co2",
			sample:  models.Sample{TemperatureF: 70, CO2PPM: math.Inf(1)},
			th:      scenarioThresholds,
			wantErr: ErrInvalidSample,
		},
		{
			name:    "zero breach count",
			sample:  models.Sample{TemperatureF: 70},
			th:      models.Thresholds{TempUpperF: 88, TempLowerF: 40, CO2ThresholdPPM: 1000},
			wantErr: models.ErrInvalidThresholds,
		},
		{
			name:    "inverted temperature range",
			sample:  models.Sample{TemperatureF: 70},
			th:      models.Thresholds{TempUpperF: 40, TempLowerF: 88, CO2ThresholdPPM: 1000, BreachCount: 3},
			wantErr: models.ErrInvalidThresholds,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			next, events, err := EvaluateAlerts(tc.sample, tc.th, start)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
			if next != start {
				t.Fatalf("state changed on error: %+v", next)
			}
			if events != nil {
				t.Fatalf("events on error: %v", events)
			}
		})
	}
}
