package sensor

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"

	"single_sensor/internal/models"
)

// DefaultSCD4xAddress is the fixed I2C address of the SCD40/SCD41.
const DefaultSCD4xAddress uint16 = 0x62

// SCD4x commands used in periodic measurement mode.
const (
	cmdStartPeriodic   uint16 = 0x21B1
	cmdReadMeasurement uint16 = 0xEC05
	cmdGetDataReady    uint16 = 0xE4B8
	cmdStopPeriodic    uint16 = 0x3F86
)

const (
	commandDelay  = time.Millisecond
	stopDelay     = 500 * time.Millisecond
	dataReadyPoll = 250 * time.Millisecond
	dataReadyMask = 0x07FF
)

var (
	ErrCRC           = errors.New("scd4x: crc mismatch")
	ErrNotReady      = errors.New("scd4x: no measurement available")
	errShortResponse = errors.New("scd4x: short response")
)

// SCD4x reads CO2, temperature and humidity from a Sensirion SCD4x in
// periodic measurement mode.
type SCD4x struct {
	dev   *i2c.Dev
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewSCD4x stops any running measurement and restarts periodic mode.
func NewSCD4x(bus i2c.Bus, addr uint16) (*SCD4x, error) {
	return newSCD4x(bus, addr, sleepCtx, time.Now)
}

func newSCD4x(bus i2c.Bus, addr uint16, sleep func(context.Context, time.Duration) error, now func() time.Time) (*SCD4x, error) {
	s := &SCD4x{
		dev:   &i2c.Dev{Bus: bus, Addr: addr},
		sleep: sleep,
		now:   now,
	}
	ctx := context.Background()
	if err := s.command(cmdStopPeriodic); err != nil {
		return nil, fmt.Errorf("scd4x stop periodic measurement: %w", err)
	}
	if err := s.sleep(ctx, stopDelay); err != nil {
		return nil, err
	}
	if err := s.command(cmdStartPeriodic); err != nil {
		return nil, fmt.Errorf("scd4x start periodic measurement: %w", err)
	}
	return s, nil
}

// Read waits for the next measurement and returns it in °F, %RH and ppm.
func (s *SCD4x) Read(ctx context.Context) (models.Sample, error) {
	for {
		ready, err := s.dataReady(ctx)
		if err != nil {
			return models.Sample{}, err
		}
		if ready {
			break
		}
		if err := s.sleep(ctx, dataReadyPoll); err != nil {
			return models.Sample{}, fmt.Errorf("%w: %v", ErrNotReady, err)
		}
	}

	words, err := s.readWords(ctx, cmdReadMeasurement, 3)
	if err != nil {
		return models.Sample{}, fmt.Errorf("scd4x read measurement: %w", err)
	}
	return models.Sample{
		CO2PPM:       float64(words[0]),
		TemperatureF: celsiusToFahrenheit(-45 + 175*float64(words[1])/65535),
		Humidity:     100 * float64(words[2]) / 65535,
		ReadAt:       s.now(),
	}, nil
}

// Halt stops periodic measurement.
func (s *SCD4x) Halt() error {
	if err := s.command(cmdStopPeriodic); err != nil {
		return fmt.Errorf("scd4x stop periodic measurement: %w", err)
	}
	return s.sleep(context.Background(), stopDelay)
}

func (s *SCD4x) dataReady(ctx context.Context) (bool, error) {
	words, err := s.readWords(ctx, cmdGetDataReady, 1)
	if err != nil {
		return false, fmt.Errorf("scd4x data ready: %w", err)
	}
	return words[0]&dataReadyMask != 0, nil
}

func (s *SCD4x) command(cmd uint16) error {
	var w [2]byte
	binary.BigEndian.PutUint16(w[:], cmd)
	return s.dev.Tx(w[:], nil)
}

// readWords sends cmd, waits the command delay and reads n CRC-checked words.
func (s *SCD4x) readWords(ctx context.Context, cmd uint16, n int) ([]uint16, error) {
	if err := s.command(cmd); err != nil {
		return nil, err
	}
	if err := s.sleep(ctx, commandDelay); err != nil {
		return nil, err
	}
	buf := make([]byte, 3*n)
	if err := s.dev.Tx(nil, buf); err != nil {
		return nil, err
	}
	return decodeWords(buf)
}

// decodeWords splits a response into big-endian words, each followed by a CRC byte.
func decodeWords(buf []byte) ([]uint16, error) {
	if len(buf)%3 != 0 {
		return nil, errShortResponse
	}
	words := make([]uint16, 0, len(buf)/3)
	for i := 0; i < len(buf); i += 3 {
		if got, want := buf[i+2], crc8(buf[i:i+2]); got != want {
			return nil, fmt.Errorf("%w: word %d got 0x%02X want 0x%02X", ErrCRC, i/3, got, want)
		}
		words = append(words, binary.BigEndian.Uint16(buf[i:i+2]))
	}
	return words, nil
}

// crc8 is the Sensirion checksum: polynomial 0x31, init 0xFF.
func crc8(data []byte) byte {
	crc := byte(0xFF)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

func celsiusToFahrenheit(c float64) float64 { return c*9/5 + 32 }

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ Source = (*SCD4x)(nil)
