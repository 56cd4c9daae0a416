package models

import "time"

// Sample is one reading taken from the sensor.
type Sample struct {
	TemperatureF float64   `json:"temperature_f"` // °F
	Humidity     float64   `json:"humidity"`      // %RH
	CO2PPM       float64   `json:"co2_ppm"`       // ppm
	ReadAt       time.Time `json:"read_at"`
}

// LatestReading is the persisted snapshot of the most recent sample.
type LatestReading struct {
	ID       int    `json:"id"`
	Location string `json:"location"`
	Sample
}
