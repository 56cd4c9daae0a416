package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the service configuration loaded from configs/config.yml.
// Operator-editable monitoring settings live in the separate settings file.
type Config struct {
	Port         string `mapstructure:"port"`
	LogLevel     string `mapstructure:"log_level"`
	SettingsPath string `mapstructure:"settings_path"`

	DB struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"db"`

	Logs struct {
		Readings   string `mapstructure:"readings"`
		Errors     string `mapstructure:"errors"`
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
	} `mapstructure:"logs"`

	Sensor struct {
		Driver  string `mapstructure:"driver"` // scd4x | simulated
		Bus     string `mapstructure:"bus"`
		Address uint16 `mapstructure:"address"`
	} `mapstructure:"sensor"`

	Poll struct {
		CallTimeout time.Duration `mapstructure:"call_timeout"`
	} `mapstructure:"poll"`

	Telemetry struct {
		Enabled  bool   `mapstructure:"enabled"`
		Broker   string `mapstructure:"broker"`
		ClientID string `mapstructure:"client_id"`
	} `mapstructure:"telemetry"`

	Chat struct {
		Enabled bool   `mapstructure:"enabled"`
		APIURL  string `mapstructure:"api_url"`
	} `mapstructure:"chat"`

	Reboot struct {
		Mode string `mapstructure:"mode"` // logind | disabled
	} `mapstructure:"reboot"`

	Auth struct {
		SigningKey string        `mapstructure:"signing_key"`
		TokenTTL   time.Duration `mapstructure:"token_ttl"`
		Operator   struct {
			Username string `mapstructure:"username"`
			Password string `mapstructure:"password"`
		} `mapstructure:"operator"`
	} `mapstructure:"auth"`
}

const (
	SensorDriverSCD4x     = "scd4x"
	SensorDriverSimulated = "simulated"

	RebootModeLogind   = "logind"
	RebootModeDisabled = "disabled"

	envPrefix = "SENSOR"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("settings_path", "SingleSensorSettings.conf")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("logs.readings", "sensor_readings.log")
	v.SetDefault("logs.errors", "error_log.log")
	v.SetDefault("logs.max_size_mb", 10)
	v.SetDefault("logs.max_backups", 5)
	v.SetDefault("sensor.driver", SensorDriverSCD4x)
	v.SetDefault("sensor.bus", "")
	v.SetDefault("sensor.address", 0x62)
	v.SetDefault("poll.call_timeout", "30s")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.broker", "ssl://io.adafruit.com:8883")
	v.SetDefault("telemetry.client_id", "single-sensor")
	v.SetDefault("chat.enabled", true)
	v.SetDefault("chat.api_url", "")
	v.SetDefault("reboot.mode", RebootModeLogind)
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", "1h")
	v.SetDefault("auth.operator.username", "")
	v.SetDefault("auth.operator.password", "")
}

// Load reads config.yml from dir. A missing file is not an error: defaults and
// SENSOR_* environment variables still apply.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config in %q: %w", dir, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Sensor.Driver {
	case SensorDriverSCD4x, SensorDriverSimulated:
	default:
		return fmt.Errorf("invalid sensor.driver %q (allowed: %s, %s)", c.Sensor.Driver, SensorDriverSCD4x, SensorDriverSimulated)
	}
	switch c.Reboot.Mode {
	case RebootModeLogind, RebootModeDisabled:
	default:
		return fmt.Errorf("invalid reboot.mode %q (allowed: %s, %s)", c.Reboot.Mode, RebootModeLogind, RebootModeDisabled)
	}
	if c.Poll.CallTimeout <= 0 {
		return fmt.Errorf("poll.call_timeout must be positive, got %v", c.Poll.CallTimeout)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %v", c.Auth.TokenTTL)
	}
	return nil
}
