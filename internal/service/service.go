package service

import (
	"context"
	"time"

	"single_sensor/internal/logger"
	"single_sensor/internal/models"
	"single_sensor/internal/repository"
)

type Authorization interface {
	EnsureOperator(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Monitoring exposes the latest persisted reading.
type Monitoring interface {
	GetLatest(ctx context.Context) (models.LatestReading, error)
}

// EventLog exposes the audit history with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.SensorEvent, error)
}

// Settings reads and writes the operator settings file and triggers reboots.
// Saved values take effect on the next start of the poll loop.
type Settings interface {
	Fields() ([]SettingField, error)
	Raw() (map[string]string, error)
	Save(ctx context.Context, values map[string]string) error
	Reboot(ctx context.Context) error
}

// Poller runs the sensor loop until ctx is cancelled.
type Poller interface {
	Run(ctx context.Context, interval time.Duration)
}

type Service struct {
	Monitoring
	EventLog
	Settings
	Poller
	Authorization
}

// Deps carries everything NewService needs besides the repositories.
type Deps struct {
	Settings models.Settings
	Sinks    Sinks
	Rebooter Rebooter
	Auth     AuthConfig
	Log      *logger.Logger
}

func NewService(repos *repository.Repository, deps Deps) *Service {
	return &Service{
		Monitoring:    NewMonitoringService(repos.ReadingRepo),
		EventLog:      NewEventLogService(repos.EventRepo),
		Settings:      NewSettingsService(repos.Settings, repos.EventRepo, deps.Rebooter, deps.Log),
		Poller:        NewPollerService(deps.Settings, deps.Sinks, repos.ReadingRepo, repos.EventRepo, deps.Log),
		Authorization: NewAuthService(repos.Operators, deps.Auth),
	}
}
