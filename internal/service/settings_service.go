package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"single_sensor/internal/logger"
	"single_sensor/internal/models"
	"single_sensor/internal/repository"
)

// Rebooter restarts the device.
type Rebooter interface {
	Reboot(ctx context.Context) error
}

type SettingsService struct {
	store    repository.SettingsStore
	events   repository.EventRepo
	rebooter Rebooter
	log      *logger.Logger
}

func NewSettingsService(store repository.SettingsStore, events repository.EventRepo, rebooter Rebooter, log *logger.Logger) *SettingsService {
	return &SettingsService{store: store, events: events, rebooter: rebooter, log: log}
}

// Fields lists every known key in display order followed by any extra keys
// found in the file, sorted. Known keys missing from the file have an empty
// value.
func (s *SettingsService) Fields() ([]SettingField, error) {
	raw, err := s.store.Raw()
	if err != nil {
		return nil, err
	}

	byLower := make(map[string]string, len(raw))
	for k, v := range raw {
		byLower[strings.ToLower(k)] = v
	}

	fields := make([]SettingField, 0, len(models.SettingKeys)+len(raw))
	known := make(map[string]struct{}, len(models.SettingKeys))
	for _, k := range models.SettingKeys {
		known[k] = struct{}{}
		fields = append(fields, SettingField{Key: k, Value: byLower[k]})
	}

	extras := make([]string, 0)
	for k := range raw {
		if _, ok := known[strings.ToLower(k)]; !ok {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	for _, k := range extras {
		fields = append(fields, SettingField{Key: k, Value: raw[k]})
	}
	return fields, nil
}

func (s *SettingsService) Raw() (map[string]string, error) {
	return s.store.Raw()
}

// Save writes values verbatim into the settings file. The running poll loop
// keeps the settings it started with.
func (s *SettingsService) Save(ctx context.Context, values map[string]string) error {
	if err := s.store.Save(values); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s.record(ctx, models.SensorEvent{
		OccurredAt:  time.Now().UTC(),
		Type:        models.EventSettings,
		Description: fmt.Sprintf("settings saved (%d keys)", len(keys)),
		Metadata:    map[string]any{"keys": keys},
	})
	s.log.Infow("settings saved", "keys", keys)
	return nil
}

func (s *SettingsService) Reboot(ctx context.Context) error {
	s.record(ctx, models.SensorEvent{
		OccurredAt:  time.Now().UTC(),
		Type:        models.EventReboot,
		Description: "reboot requested",
	})
	s.log.Warnw("reboot requested")

	if err := s.rebooter.Reboot(ctx); err != nil {
		return fmt.Errorf("reboot: %w", err)
	}
	return nil
}

// record appends to the event log; a failure there never fails the request.
func (s *SettingsService) record(ctx context.Context, e models.SensorEvent) {
	if err := s.events.Append(ctx, e); err != nil {
		s.log.Errorw("append_event", "type", e.Type, "err", err)
	}
}
