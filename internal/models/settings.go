package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Settings file keys, all inside the [General] section.
const (
	KeyLocationName        = "sensor_location_name"
	KeyMinutesBetweenReads = "minutes_between_reads"
	KeyTempUpper           = "sensor_threshold_temp"
	KeyTempLower           = "sensor_lower_threshold_temp"
	KeyCO2Threshold        = "sensor_co2_threshold"
	KeyThresholdCount      = "threshold_count"
	KeySlackAPIToken       = "slack_api_token"
	KeySlackChannel        = "slack_channel"
	KeyAdafruitUsername    = "adafruit_io_username"
	KeyAdafruitKey         = "adafruit_io_key"
	KeyAdafruitGroup       = "adafruit_io_group_name"
	KeyAdafruitTempFeed    = "adafruit_io_temp_feed"
	KeyAdafruitHumidFeed   = "adafruit_io_humidity_feed"
	KeyAdafruitCO2Feed     = "adafruit_io_co2_feed"

	// keyCO2ThresholdLegacy is the spelling shipped in older sample files.
	keyCO2ThresholdLegacy = "sensor_threshold_co2"
)

// SettingKeys lists every known key in display order.
var SettingKeys = []string{
	KeyLocationName,
	KeyMinutesBetweenReads,
	KeyTempUpper,
	KeyTempLower,
	KeyCO2Threshold,
	KeyThresholdCount,
	KeySlackAPIToken,
	KeySlackChannel,
	KeyAdafruitUsername,
	KeyAdafruitKey,
	KeyAdafruitGroup,
	KeyAdafruitTempFeed,
	KeyAdafruitHumidFeed,
	KeyAdafruitCO2Feed,
}

var (
	ErrMissingSetting    = errors.New("missing setting")
	ErrInvalidSetting    = errors.New("invalid setting")
	ErrInvalidThresholds = errors.New("invalid thresholds")
)

// Settings is the operator configuration of the monitor. It is read once when
// the poll loop starts and passed around by value.
type Settings struct {
	LocationName        string  `json:"sensor_location_name"`
	MinutesBetweenReads int     `json:"minutes_between_reads"`
	TempUpperF          float64 `json:"sensor_threshold_temp"`
	TempLowerF          float64 `json:"sensor_lower_threshold_temp"`
	CO2ThresholdPPM     float64 `json:"sensor_co2_threshold"`
	ThresholdCount      int     `json:"threshold_count"`

	SlackAPIToken string `json:"-"`
	SlackChannel  string `json:"slack_channel"`

	AdafruitUsername     string `json:"adafruit_io_username"`
	AdafruitKey          string `json:"-"`
	AdafruitGroup        string `json:"adafruit_io_group_name"`
	AdafruitTempFeed     string `json:"adafruit_io_temp_feed"`
	AdafruitHumidityFeed string `json:"adafruit_io_humidity_feed"`
	AdafruitCO2Feed      string `json:"adafruit_io_co2_feed"`
}

// Thresholds is the subset of Settings the alert engine needs.
type Thresholds struct {
	TempUpperF      float64
	TempLowerF      float64
	CO2ThresholdPPM float64
	BreachCount     int
}

// Validate rejects thresholds the engine cannot evaluate meaningfully.
func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{
		KeyTempUpper:    t.TempUpperF,
		KeyTempLower:    t.TempLowerF,
		KeyCO2Threshold: t.CO2ThresholdPPM,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidThresholds, name)
		}
	}
	if t.TempLowerF > t.TempUpperF {
		return fmt.Errorf("%w: lower temperature %.1f is above upper %.1f", ErrInvalidThresholds, t.TempLowerF, t.TempUpperF)
	}
	if t.BreachCount < 1 {
		return fmt.Errorf("%w: %s must be at least 1, got %d", ErrInvalidThresholds, KeyThresholdCount, t.BreachCount)
	}
	return nil
}

func (s Settings) Thresholds() Thresholds {
	return Thresholds{
		TempUpperF:      s.TempUpperF,
		TempLowerF:      s.TempLowerF,
		CO2ThresholdPPM: s.CO2ThresholdPPM,
		BreachCount:     s.ThresholdCount,
	}
}

// ReadInterval is the pause between two polls.
func (s Settings) ReadInterval() time.Duration {
	return time.Duration(s.MinutesBetweenReads) * time.Minute
}

// FeedKey returns the "group.feed" identifier of a telemetry feed.
func (s Settings) FeedKey(feed string) string {
	return s.AdafruitGroup + "." + feed
}

// Validate checks the parsed values that the poll loop depends on.
func (s Settings) Validate() error {
	if s.MinutesBetweenReads < 1 {
		return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidSetting, KeyMinutesBetweenReads, s.MinutesBetweenReads)
	}
	return s.Thresholds().Validate()
}

// Values renders the settings in their on-disk string form.
func (s Settings) Values() map[string]string {
	return map[string]string{
		KeyLocationName:        s.LocationName,
		KeyMinutesBetweenReads: strconv.Itoa(s.MinutesBetweenReads),
		KeyTempUpper:           formatFloat(s.TempUpperF),
		KeyTempLower:           formatFloat(s.TempLowerF),
		KeyCO2Threshold:        formatFloat(s.CO2ThresholdPPM),
		KeyThresholdCount:      strconv.Itoa(s.ThresholdCount),
		KeySlackAPIToken:       s.SlackAPIToken,
		KeySlackChannel:        s.SlackChannel,
		KeyAdafruitUsername:    s.AdafruitUsername,
		KeyAdafruitKey:         s.AdafruitKey,
		KeyAdafruitGroup:       s.AdafruitGroup,
		KeyAdafruitTempFeed:    s.AdafruitTempFeed,
		KeyAdafruitHumidFeed:   s.AdafruitHumidityFeed,
		KeyAdafruitCO2Feed:     s.AdafruitCO2Feed,
	}
}

// ParseSettings converts raw key/values into typed Settings. Keys are matched
// case-insensitively. Every known key is required.
func ParseSettings(raw map[string]string) (Settings, error) {
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		values[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	if _, ok := values[KeyCO2Threshold]; !ok {
		if v, ok := values[keyCO2ThresholdLegacy]; ok {
			values[KeyCO2Threshold] = v
		}
	}

	p := settingsParser{values: values}
	s := Settings{
		LocationName:         p.str(KeyLocationName),
		MinutesBetweenReads:  p.integer(KeyMinutesBetweenReads),
		TempUpperF:           p.number(KeyTempUpper),
		TempLowerF:           p.number(KeyTempLower),
		CO2ThresholdPPM:      p.number(KeyCO2Threshold),
		ThresholdCount:       p.integer(KeyThresholdCount),
		SlackAPIToken:        p.str(KeySlackAPIToken),
		SlackChannel:         p.str(KeySlackChannel),
		AdafruitUsername:     p.str(KeyAdafruitUsername),
		AdafruitKey:          p.str(KeyAdafruitKey),
		AdafruitGroup:        p.str(KeyAdafruitGroup),
		AdafruitTempFeed:     p.str(KeyAdafruitTempFeed),
		AdafruitHumidityFeed: p.str(KeyAdafruitHumidFeed),
		AdafruitCO2Feed:      p.str(KeyAdafruitCO2Feed),
	}
	if p.err != nil {
		return Settings{}, p.err
	}
	return s, nil
}

// settingsParser keeps the first error so ParseSettings reads straight through.
type settingsParser struct {
	values map[string]string
	err    error
}

func (p *settingsParser) lookup(key string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v, ok := p.values[key]
	if !ok {
		p.err = fmt.Errorf("%w: %s", ErrMissingSetting, key)
		return "", false
	}
	return v, true
}

func (p *settingsParser) str(key string) string {
	v, _ := p.lookup(key)
	return v
}

func (p *settingsParser) integer(key string) int {
	v, ok := p.lookup(key)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidSetting, key, v)
		return 0
	}
	return n
}

func (p *settingsParser) number(key string) float64 {
	v, ok := p.lookup(key)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.err = fmt.Errorf("%w: %s=%q is not a number", ErrInvalidSetting, key, v)
		return 0
	}
	return f
}

// formatFloat keeps a decimal point so values read back as floats.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
