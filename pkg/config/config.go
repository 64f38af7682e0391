// Package config provides persistent connection presets
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"serial-monitor/pkg/serial"
)

// DefaultDirName is the preset directory created under the user's home
const DefaultDirName = ".serial-monitor"

// presetFile is the file holding all presets inside the preset directory
const presetFile = "presets.json"

// storageVersion is written into the preset file for forward compatibility
const storageVersion = "1.0"

// Manager defines the contract for preset operations
type Manager interface {
	Save(name string, cfg serial.Config) error
	Load(name string) (serial.Config, error)
	List() ([]Preset, error)
	Delete(name string) error
	Exists(name string) bool
}

// Preset is a named serial configuration with usage metadata
type Preset struct {
	Name       string        `json:"name"`
	Config     serial.Config `json:"config"`
	CreatedAt  time.Time     `json:"created_at"`
	LastUsedAt time.Time     `json:"last_used_at"`
}

// Validate checks if the preset is valid
func (p Preset) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("preset name cannot be empty")
	}
	if err := p.Config.Validate(); err != nil {
		return fmt.Errorf("invalid preset config: %w", err)
	}
	return nil
}

// storage is the on-disk format of the preset file
type storage struct {
	Presets map[string]Preset `json:"presets"`
	Version string            `json:"version"`
}

// FileManager implements Manager using a JSON file
type FileManager struct {
	dir string
}

// NewFileManager creates a preset manager rooted at dir. An empty dir
// selects DefaultDirName under the user's home directory.
func NewFileManager(dir string) *FileManager {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			dir = DefaultDirName
		} else {
			dir = filepath.Join(home, DefaultDirName)
		}
	}
	return &FileManager{dir: dir}
}

// Path returns the full path to the preset file
func (m *FileManager) Path() string {
	return filepath.Join(m.dir, presetFile)
}

// Save stores a preset under name, preserving the creation time of an
// existing preset with the same name
func (m *FileManager) Save(name string, cfg serial.Config) error {
	if name == "" {
		return fmt.Errorf("preset name cannot be empty")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	st, err := m.load()
	if err != nil {
		return err
	}

	now := time.Now()
	preset := Preset{
		Name:       name,
		Config:     cfg,
		CreatedAt:  now,
		LastUsedAt: now,
	}
	if existing, ok := st.Presets[name]; ok {
		preset.CreatedAt = existing.CreatedAt
	}
	st.Presets[name] = preset

	return m.save(st)
}

// Load returns the configuration stored under name and stamps its
// last-used time
func (m *FileManager) Load(name string) (serial.Config, error) {
	if name == "" {
		return serial.Config{}, fmt.Errorf("preset name cannot be empty")
	}

	st, err := m.load()
	if err != nil {
		return serial.Config{}, err
	}

	preset, ok := st.Presets[name]
	if !ok {
		return serial.Config{}, fmt.Errorf("preset '%s' not found", name)
	}

	preset.LastUsedAt = time.Now()
	st.Presets[name] = preset
	// Last-used stamping is best effort
	m.save(st)

	return preset.Config, nil
}

// List returns all presets sorted by name
func (m *FileManager) List() ([]Preset, error) {
	st, err := m.load()
	if err != nil {
		return nil, err
	}

	presets := make([]Preset, 0, len(st.Presets))
	for _, p := range st.Presets {
		presets = append(presets, p)
	}
	sort.Slice(presets, func(i, j int) bool {
		return presets[i].Name < presets[j].Name
	})
	return presets, nil
}

// Delete removes the preset stored under name
func (m *FileManager) Delete(name string) error {
	if name == "" {
		return fmt.Errorf("preset name cannot be empty")
	}

	st, err := m.load()
	if err != nil {
		return err
	}

	if _, ok := st.Presets[name]; !ok {
		return fmt.Errorf("preset '%s' not found", name)
	}
	delete(st.Presets, name)

	return m.save(st)
}

// Exists reports whether a preset with the given name is stored
func (m *FileManager) Exists(name string) bool {
	if name == "" {
		return false
	}
	st, err := m.load()
	if err != nil {
		return false
	}
	_, ok := st.Presets[name]
	return ok
}

// load reads the preset file, returning empty storage when it does not
// exist yet
func (m *FileManager) load() (storage, error) {
	data, err := os.ReadFile(m.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return storage{Presets: make(map[string]Preset), Version: storageVersion}, nil
		}
		return storage{}, fmt.Errorf("failed to read preset file: %w", err)
	}

	var st storage
	if err := json.Unmarshal(data, &st); err != nil {
		return storage{}, fmt.Errorf("failed to parse preset file: %w", err)
	}
	if st.Presets == nil {
		st.Presets = make(map[string]Preset)
	}
	return st, nil
}

// save writes the preset file atomically via a temporary file
func (m *FileManager) save(st storage) error {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("failed to create preset directory: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal presets: %w", err)
	}

	path := m.Path()
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary preset file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace preset file: %w", err)
	}
	return nil
}
