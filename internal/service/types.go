package service

import "time"

// LogFilter narrows the event history by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "STARTUP", "ALERT", "ERROR", "SETTINGS", "REBOOT"
}

// SettingField is one settings entry in display order.
type SettingField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
