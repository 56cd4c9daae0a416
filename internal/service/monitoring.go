package service

import (
	"context"
	"errors"
	"time"

	"single_sensor/internal/models"
	"single_sensor/internal/repository"
)

var ErrNoReading = errors.New("no reading recorded yet")

type MonitoringService struct {
	readingRepo repository.ReadingRepo
}

func NewMonitoringService(readingRepo repository.ReadingRepo) *MonitoringService {
	return &MonitoringService{readingRepo: readingRepo}
}

// GetLatest returns the most recent reading, or ErrNoReading before the first
// successful poll.
func (s *MonitoringService) GetLatest(ctx context.Context) (models.LatestReading, error) {
	r, err := s.readingRepo.Load(ctx)
	if err != nil {
		return models.LatestReading{}, err
	}
	if r.ID == 0 {
		return models.LatestReading{}, ErrNoReading
	}
	r.ReadAt = toUTC(r.ReadAt)
	return r, nil
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
