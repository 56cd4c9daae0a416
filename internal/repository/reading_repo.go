package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"single_sensor/internal/models"
)

type ReadingSQLite struct {
	db *sql.DB
}

func NewReadingSQLite(db *sql.DB) *ReadingSQLite {
	return &ReadingSQLite{db: db}
}

const (
	latestReadingRowID = 1

	upsertReadingSQL = `
		INSERT INTO latest_reading (id, location, temperature_f, humidity, co2_ppm, read_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			location=excluded.location,
			temperature_f=excluded.temperature_f,
			humidity=excluded.humidity,
			co2_ppm=excluded.co2_ppm,
			read_at=excluded.read_at
	`

	selectReadingSQL = `
		SELECT id, location, temperature_f, humidity, co2_ppm, read_at
		FROM latest_reading WHERE id=?
	`
)

// Save overwrites the single latest_reading row.
func (r *ReadingSQLite) Save(ctx context.Context, reading models.LatestReading) error {
	readAt := reading.ReadAt
	if readAt.IsZero() {
		readAt = time.Now().UTC()
	} else {
		readAt = readAt.UTC()
	}

	_, err := r.db.ExecContext(ctx, upsertReadingSQL,
		latestReadingRowID,
		reading.Location,
		reading.TemperatureF,
		reading.Humidity,
		reading.CO2PPM,
		readAt,
	)
	if err != nil {
		return fmt.Errorf("save latest reading: %w", err)
	}
	return nil
}

// Load returns the latest reading, or the zero value before the first poll.
func (r *ReadingSQLite) Load(ctx context.Context) (models.LatestReading, error) {
	row := r.db.QueryRowContext(ctx, selectReadingSQL, latestReadingRowID)

	var lr models.LatestReading
	if err := row.Scan(
		&lr.ID,
		&lr.Location,
		&lr.TemperatureF,
		&lr.Humidity,
		&lr.CO2PPM,
		&lr.ReadAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.LatestReading{}, nil
		}
		return models.LatestReading{}, fmt.Errorf("load latest reading: %w", err)
	}
	lr.ReadAt = lr.ReadAt.UTC()
	return lr, nil
}
