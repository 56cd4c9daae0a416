package sensor

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"single_sensor/internal/models"
)

// Drift parameters of the simulated room.
const (
	ambientF        = 72.0
	ambientHumidity = 45.0
	ambientCO2      = 650.0

	tempStepF     = 0.8  // max change per read
	humidityStep  = 1.5  // %RH per read
	co2Step       = 40.0 // ppm per read
	pullToAmbient = 0.1  // fraction of the distance to ambient recovered per read
)

// Simulated is a random-walk source for development machines without an I2C bus.
type Simulated struct {
	mu   sync.Mutex
	rnd  *rand.Rand
	last models.Sample
	now  func() time.Time
}

func NewSimulated() *Simulated {
	return newSimulated(rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5cd4)), time.Now)
}

func newSimulated(rnd *rand.Rand, now func() time.Time) *Simulated {
	return &Simulated{
		rnd:  rnd,
		now:  now,
		last: models.Sample{TemperatureF: ambientF, Humidity: ambientHumidity, CO2PPM: ambientCO2},
	}
}

func (s *Simulated) Read(ctx context.Context) (models.Sample, error) {
	if err := ctx.Err(); err != nil {
		return models.Sample{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last.TemperatureF = s.drift(s.last.TemperatureF, ambientF, tempStepF)
	s.last.Humidity = clamp(s.drift(s.last.Humidity, ambientHumidity, humidityStep), 0, 100)
	s.last.CO2PPM = maxFloat(s.drift(s.last.CO2PPM, ambientCO2, co2Step), 400)
	s.last.ReadAt = s.now()
	return s.last, nil
}

// drift moves v by a random step and pulls it back toward ambient.
func (s *Simulated) drift(v, ambient, step float64) float64 {
	v += (s.rnd.Float64()*2 - 1) * step
	return v + (ambient-v)*pullToAmbient
}

func clamp(v, lo, hi float64) float64 {
	return minFloat(maxFloat(v, lo), hi)
}

func maxFloat(a, b float64) float64 {
	if a >= b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a <= b {
		return a
	}
	return b
}

var _ Source = (*Simulated)(nil)
