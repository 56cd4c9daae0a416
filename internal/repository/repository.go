package repository

import (
	"context"
	"database/sql"
	"time"

	"single_sensor/internal/models"
)

type OperatorRepo interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.Operator, error)
}

type ReadingRepo interface {
	Save(ctx context.Context, r models.LatestReading) error
	Load(ctx context.Context) (models.LatestReading, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.SensorEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.SensorEvent, error)
}

// SettingsStore reads and writes the operator settings file.
type SettingsStore interface {
	Load() (models.Settings, error)
	Raw() (map[string]string, error)
	Save(values map[string]string) error
}

type Repository struct {
	ReadingRepo ReadingRepo
	EventRepo   EventRepo
	Operators   OperatorRepo
	Settings    SettingsStore
}

func NewRepository(db *sql.DB, settingsPath string) *Repository {
	return &Repository{
		ReadingRepo: NewReadingSQLite(db),
		EventRepo:   NewEventSQLite(db),
		Operators:   NewOperatorRepository(db),
		Settings:    NewSettingsFile(settingsPath),
	}
}
