package sensor

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"single_sensor/internal/config"
	"single_sensor/internal/models"
)

// Source produces one sample per call.
type Source interface {
	Read(ctx context.Context) (models.Sample, error)
}

// Open builds the source selected in the service config. The returned close
// function halts the sensor and releases the bus.
func Open(cfg *config.Config) (Source, func() error, error) {
	switch cfg.Sensor.Driver {
	case config.SensorDriverSimulated:
		return NewSimulated(), func() error { return nil }, nil
	case config.SensorDriverSCD4x:
		return openSCD4x(cfg.Sensor.Bus, cfg.Sensor.Address)
	default:
		return nil, nil, fmt.Errorf("unknown sensor driver %q", cfg.Sensor.Driver)
	}
}

func openSCD4x(busName string, addr uint16) (Source, func() error, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("host init: %w", err)
	}
	bus, err := i2creg.Open(busName) // "" picks the first bus, usually /dev/i2c-1
	if err != nil {
		return nil, nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}
	dev, err := NewSCD4x(bus, addr)
	if err != nil {
		_ = bus.Close()
		return nil, nil, err
	}
	closeFn := func() error {
		haltErr := dev.Halt()
		if err := bus.Close(); err != nil {
			return fmt.Errorf("close i2c bus: %w", err)
		}
		return haltErr
	}
	return dev, closeFn, nil
}
