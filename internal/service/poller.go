package service

import (
	"context"
	"fmt"
	"time"

	"single_sensor/internal/logger"
	"single_sensor/internal/metrics"
	"single_sensor/internal/models"
	"single_sensor/internal/repository"
)

// ReadingSource produces one sample per call.
type ReadingSource interface {
	Read(ctx context.Context) (models.Sample, error)
}

type ReadingLog interface {
	Append(location string, s models.Sample) error
}

// Telemetry publishes one value to a "group.feed" key.
type Telemetry interface {
	Publish(ctx context.Context, feedKey string, value float64) error
}

// Chat delivers alert messages.
type Chat interface {
	Notify(ctx context.Context, ev models.AlertEvent) error
}

// Sinks are the collaborators of one poll cycle. Telemetry and Chat are
// optional; nil disables them.
type Sinks struct {
	Source      ReadingSource
	ReadingLog  ReadingLog
	Telemetry   Telemetry
	Chat        Chat
	CallTimeout time.Duration
}

// PollerService reads the sensor, fans the sample out and raises alerts.
// The alert state is only touched by the goroutine running Run.
type PollerService struct {
	settings models.Settings
	sinks    Sinks
	readings repository.ReadingRepo
	events   repository.EventRepo
	log      *logger.Logger

	state models.AlertState
}

func NewPollerService(settings models.Settings, sinks Sinks, readings repository.ReadingRepo, events repository.EventRepo, log *logger.Logger) *PollerService {
	return &PollerService{
		settings: settings,
		sinks:    sinks,
		readings: readings,
		events:   events,
		log:      log,
	}
}

// Run polls once immediately and then every interval until ctx is done.
// A non-positive interval falls back to minutes_between_reads.
func (s *PollerService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.settings.ReadInterval()
	}

	s.record(ctx, models.SensorEvent{
		Type:        models.EventStartup,
		Description: fmt.Sprintf("monitoring %s every %s", s.settings.LocationName, interval),
		Metadata: map[string]any{
			"location":        s.settings.LocationName,
			"interval":        interval.String(),
			"threshold_count": s.settings.ThresholdCount,
		},
	})
	s.log.Infow("poller started", "location", s.settings.LocationName, "interval", interval)

	s.cycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Infow("poller stopped")
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *PollerService) cycle(ctx context.Context) {
	start := time.Now()
	metrics.PollCyclesTotal.Inc()
	defer func() {
		if r := recover(); r != nil {
			metrics.PanicsRecovered.WithLabelValues("poller").Inc()
			s.log.Errorw("poll cycle panicked", "panic", r)
		}
		metrics.PollCycleDuration.Observe(time.Since(start).Seconds())
	}()

	sample, err := s.read(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.SensorReadFailuresTotal.Inc()
		s.fail(ctx, "sensor", "sensor read failed", err)
		return
	}
	if sample.ReadAt.IsZero() {
		sample.ReadAt = time.Now()
	}
	metrics.ObserveSample(sample)

	location := s.settings.LocationName

	if err := s.sinks.ReadingLog.Append(location, sample); err != nil {
		s.sinkFailed(ctx, metrics.SinkReadingLog, err)
	}

	if err := s.saveSnapshot(ctx, location, sample); err != nil {
		s.sinkFailed(ctx, metrics.SinkSnapshot, err)
	}

	s.publish(ctx, sample)

	next, alerts, err := EvaluateAlerts(sample, s.settings.Thresholds(), s.state)
	if err != nil {
		s.fail(ctx, "alert_engine", "alert evaluation failed", err)
		return
	}
	s.state = next
	metrics.ObserveAlertState(next)

	for _, ev := range alerts {
		ev.Location = location
		s.raise(ctx, ev)
	}
}

func (s *PollerService) read(ctx context.Context) (models.Sample, error) {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	return s.sinks.Source.Read(callCtx)
}

func (s *PollerService) saveSnapshot(ctx context.Context, location string, sample models.Sample) error {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	return s.readings.Save(callCtx, models.LatestReading{Location: location, Sample: sample})
}

// publish sends the three feeds independently.
func (s *PollerService) publish(ctx context.Context, sample models.Sample) {
	if s.sinks.Telemetry == nil {
		return
	}
	feeds := []struct {
		feed  string
		value float64
	}{
		{s.settings.AdafruitTempFeed, sample.TemperatureF},
		{s.settings.AdafruitHumidityFeed, sample.Humidity},
		{s.settings.AdafruitCO2Feed, sample.CO2PPM},
	}
	for _, f := range feeds {
		callCtx, cancel := s.callContext(ctx)
		err := s.sinks.Telemetry.Publish(callCtx, s.settings.FeedKey(f.feed), f.value)
		cancel()
		if err != nil {
			s.sinkFailed(ctx, metrics.SinkTelemetry, err)
		}
	}
}

func (s *PollerService) raise(ctx context.Context, ev models.AlertEvent) {
	metrics.AlertsTotal.WithLabelValues(string(ev.Kind)).Inc()
	s.log.Warnw("alert raised", "kind", ev.Kind, "value", ev.Value, "threshold", ev.Threshold)

	if s.sinks.Chat != nil {
		callCtx, cancel := s.callContext(ctx)
		err := s.sinks.Chat.Notify(callCtx, ev)
		cancel()
		if err != nil {
			s.sinkFailed(ctx, metrics.SinkChat, err)
		}
	}

	s.record(ctx, models.SensorEvent{
		OccurredAt:  ev.OccurredAt,
		Type:        models.EventAlert,
		Description: ev.Message(),
		Metadata: map[string]any{
			"kind":      ev.Kind,
			"value":     ev.Value,
			"threshold": ev.Threshold,
		},
	})
}

func (s *PollerService) sinkFailed(ctx context.Context, sink string, err error) {
	metrics.SinkFailuresTotal.WithLabelValues(sink).Inc()
	s.fail(ctx, sink, sink+" write failed", err)
}

// fail writes err to the error log and records an ERROR event.
func (s *PollerService) fail(ctx context.Context, component, msg string, err error) {
	s.log.Errorw(msg, "component", component, "err", err)
	s.record(ctx, models.SensorEvent{
		Type:        models.EventError,
		Description: fmt.Sprintf("%s: %v", msg, err),
		Metadata:    map[string]any{"component": component},
	})
}

// record appends to the event log. Failures are logged and counted but never
// turned into further events.
func (s *PollerService) record(ctx context.Context, e models.SensorEvent) {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	if err := s.events.Append(callCtx, e); err != nil {
		metrics.SinkFailuresTotal.WithLabelValues(metrics.SinkEventLog).Inc()
		s.log.Errorw("event log write failed", "type", e.Type, "err", err)
	}
}

func (s *PollerService) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.sinks.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.sinks.CallTimeout)
}
