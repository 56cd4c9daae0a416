package sensor

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"
	"time"
)

func TestSimulated_StaysNearAmbient(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sim := newSimulated(rand.New(rand.NewPCG(1, 2)), func() time.Time { return now })

	for i := 0; i < 1000; i++ {
		s, err := sim.Read(context.Background())
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if math.Abs(s.TemperatureF-ambientF) > 10*tempStepF {
			t.Fatalf("read %d: temperature %v drifted too far", i, s.TemperatureF)
		}
		if s.Humidity < 0 || s.Humidity > 100 {
			t.Fatalf("read %d: humidity %v out of range", i, s.Humidity)
		}
		if s.CO2PPM < 400 {
			t.Fatalf("read %d: co2 %v below outdoor level", i, s.CO2PPM)
		}
		if !s.ReadAt.Equal(now) {
			t.Fatalf("read %d: ReadAt %v", i, s.ReadAt)
		}
	}
}

func TestSimulated_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSimulated().Read(ctx); err == nil {
		t.Fatal("expected context error")
	}
}
