package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"single_sensor/internal/models"
)

// Sink labels for SinkFailuresTotal.
const (
	SinkReadingLog = "reading_log"
	SinkSnapshot   = "snapshot"
	SinkTelemetry  = "telemetry"
	SinkChat       = "chat"
	SinkEventLog   = "event_log"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "single_sensor_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "single_sensor_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Latest sample
	TemperatureF = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "single_sensor_temperature_fahrenheit",
			Help: "Last temperature read from the sensor",
		},
	)

	HumidityPercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "single_sensor_humidity_percent",
			Help: "Last relative humidity read from the sensor",
		},
	)

	CO2PPM = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "single_sensor_co2_ppm",
			Help: "Last CO2 concentration read from the sensor",
		},
	)

	// Poll loop
	PollCyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "single_sensor_poll_cycles_total",
			Help: "Total number of poll cycles started",
		},
	)

	PollCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "single_sensor_poll_cycle_duration_seconds",
			Help:    "Time taken by one poll cycle including all sinks",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	SensorReadFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "single_sensor_sensor_read_failures_total",
			Help: "Total number of failed sensor reads",
		},
	)

	SinkFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "single_sensor_sink_failures_total",
			Help: "Total number of failed sink writes",
		},
		[]string{"sink"},
	)

	// Alerting
	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "single_sensor_alerts_total",
			Help: "Total number of alerts raised",
		},
		[]string{"kind"},
	)

	BreachCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "single_sensor_breach_count",
			Help: "Consecutive out-of-range samples per alert kind",
		},
		[]string{"kind"},
	)

	// Panic recovery
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "single_sensor_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)

// ObserveSample publishes the latest reading on the sample gauges.
func ObserveSample(s models.Sample) {
	TemperatureF.Set(s.TemperatureF)
	HumidityPercent.Set(s.Humidity)
	CO2PPM.Set(s.CO2PPM)
}

// ObserveAlertState exports the consecutive breach counters.
func ObserveAlertState(st models.AlertState) {
	BreachCount.WithLabelValues(string(models.AlertTemperatureHigh)).Set(float64(st.TempHigh.Count))
	BreachCount.WithLabelValues(string(models.AlertTemperatureLow)).Set(float64(st.TempLow.Count))
	BreachCount.WithLabelValues(string(models.AlertCO2High)).Set(float64(st.CO2High.Count))
}
