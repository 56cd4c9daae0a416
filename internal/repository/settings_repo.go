package repository

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/ini.v1"

	"single_sensor/internal/models"
)

// generalSection holds every operator setting.
const generalSection = "General"

// "#" and ";" are legal inside values such as a Slack channel name.
var iniOptions = ini.LoadOptions{IgnoreInlineComment: true}

// SettingsFile is the INI settings file shared by the poll loop and the
// settings endpoint. Section and key names match case-insensitively; the
// spelling already in the file is preserved on save.
type SettingsFile struct {
	path string
	mu   sync.Mutex
}

func NewSettingsFile(path string) *SettingsFile {
	return &SettingsFile{path: path}
}

var _ SettingsStore = (*SettingsFile)(nil)

func (f *SettingsFile) Path() string { return f.path }

// Load parses and validates the typed settings.
func (f *SettingsFile) Load() (models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := ini.LoadSources(iniOptions, f.path)
	if err != nil {
		return models.Settings{}, fmt.Errorf("read settings %q: %w", f.path, err)
	}
	s, err := models.ParseSettings(rawValues(file))
	if err != nil {
		return models.Settings{}, fmt.Errorf("settings %q: %w", f.path, err)
	}
	if err := s.Validate(); err != nil {
		return models.Settings{}, fmt.Errorf("settings %q: %w", f.path, err)
	}
	return s, nil
}

// Raw returns the [General] key/values with lowercased keys. A missing file
// or section yields an empty map.
func (f *SettingsFile) Raw() (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := f.open()
	if err != nil {
		return nil, err
	}
	return rawValues(file), nil
}

// Save writes values verbatim into [General]. Keys not in values are kept.
func (f *SettingsFile) Save(values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := f.open()
	if err != nil {
		return err
	}
	sec := findSection(file)
	if sec == nil {
		if sec, err = file.NewSection(generalSection); err != nil {
			return fmt.Errorf("create [%s] section: %w", generalSection, err)
		}
	}

	for _, name := range orderedKeys(values) {
		if key := findKey(sec, name); key != nil {
			key.SetValue(values[name])
			continue
		}
		if _, err := sec.NewKey(strings.ToLower(strings.TrimSpace(name)), values[name]); err != nil {
			return fmt.Errorf("add setting %q: %w", name, err)
		}
	}

	if err := file.SaveTo(f.path); err != nil {
		return fmt.Errorf("write settings %q: %w", f.path, err)
	}
	return nil
}

func (f *SettingsFile) open() (*ini.File, error) {
	if _, err := os.Stat(f.path); errors.Is(err, fs.ErrNotExist) {
		return ini.Empty(iniOptions), nil
	}
	file, err := ini.LoadSources(iniOptions, f.path)
	if err != nil {
		return nil, fmt.Errorf("read settings %q: %w", f.path, err)
	}
	return file, nil
}

func findSection(file *ini.File) *ini.Section {
	for _, sec := range file.Sections() {
		if strings.EqualFold(sec.Name(), generalSection) {
			return sec
		}
	}
	return nil
}

func findKey(sec *ini.Section, name string) *ini.Key {
	name = strings.TrimSpace(name)
	for _, key := range sec.Keys() {
		if strings.EqualFold(key.Name(), name) {
			return key
		}
	}
	return nil
}

func rawValues(file *ini.File) map[string]string {
	out := make(map[string]string)
	sec := findSection(file)
	if sec == nil {
		return out
	}
	for _, key := range sec.Keys() {
		out[strings.ToLower(key.Name())] = key.Value()
	}
	return out
}

// orderedKeys puts known settings first in display order, then the rest sorted.
func orderedKeys(values map[string]string) []string {
	rank := func(k string) int {
		if i := slices.Index(models.SettingKeys, strings.ToLower(strings.TrimSpace(k))); i >= 0 {
			return i
		}
		return len(models.SettingKeys)
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		if strings.TrimSpace(k) != "" {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, func(a, b string) int {
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra - rb
		}
		return strings.Compare(a, b)
	})
	return keys
}
