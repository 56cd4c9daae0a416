package sinks

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"single_sensor/internal/models"
)

const readingTimeLayout = "2006-01-02 15:04:05"

// ReadingLog appends one human-readable line per sample.
type ReadingLog struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewReadingLog writes to path, rotating at maxSizeMB and keeping maxBackups old files.
func NewReadingLog(path string, maxSizeMB, maxBackups int) *ReadingLog {
	return newReadingLog(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	}, time.Now)
}

func newReadingLog(w io.Writer, now func() time.Time) *ReadingLog {
	return &ReadingLog{w: w, now: now}
}

// Append writes "<time> - <location> - Temperature: <t>°F, Humidity: <h>%, CO2: <c> ppm".
func (l *ReadingLog) Append(location string, s models.Sample) error {
	at := s.ReadAt
	if at.IsZero() {
		at = l.now()
	}
	line := fmt.Sprintf("%s - %s - Temperature: %s°F, Humidity: %s%%, CO2: %s ppm\n",
		at.Local().Format(readingTimeLayout), location,
		rawValue(s.TemperatureF), rawValue(s.Humidity), rawValue(s.CO2PPM))

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := io.WriteString(l.w, line); err != nil {
		return fmt.Errorf("append reading log: %w", err)
	}
	return nil
}

func rawValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Close releases the underlying file when it has one.
func (l *ReadingLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
