// Package config persists the application settings: the ordered list of
// imaging channels (field-of-view label plus detector) used to name
// per-frame images.
//
// The settings live in a JSON file that is an array of rows, one per
// channel, using the field names the operators' existing settings files
// already carry:
//
//	[
//	  {"Scale": "2", "Image Type": "BSE"},
//	  {"Scale": "2", "Image Type": "SE1"}
//	]
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/thi-mey/SEMapp/internal/fsutil"
	"github.com/thi-mey/SEMapp/pkg/types"
)

// Settings holds the application configuration
type Settings struct {
	Channels []types.Channel
}

// channelRow mirrors one entry of the settings file.
type channelRow struct {
	Scale     string `json:"Scale"`
	ImageType string `json:"Image Type"`
}

// Default returns a configuration with default values
func Default() *Settings {
	return &Settings{
		Channels: []types.Channel{
			{Scale: "2", Detector: "BSE"},
			{Scale: "2", Detector: "SE1"},
			{Scale: "2", Detector: "SE2"},
		},
	}
}

// LoadFromFile loads settings from a JSON file
func LoadFromFile(filename string) (*Settings, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var rows []channelRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}

	s := &Settings{Channels: make([]types.Channel, 0, len(rows))}
	for _, row := range rows {
		s.Channels = append(s.Channels, types.Channel{Scale: row.Scale, Detector: row.ImageType})
	}
	return s, nil
}

// SaveToFile saves settings to a JSON file
func (s *Settings) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	rows := make([]channelRow, 0, len(s.Channels))
	for _, ch := range s.Channels {
		rows = append(rows, channelRow{Scale: ch.Scale, ImageType: ch.Detector})
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

// Validate checks if the settings are valid
func (s *Settings) Validate() error {
	if len(s.Channels) == 0 {
		return fmt.Errorf("at least one channel must be configured")
	}
	for i, ch := range s.Channels {
		if ch.Scale == "" {
			return fmt.Errorf("channel %d: scale must not be empty", i+1)
		}
		if _, err := strconv.ParseFloat(ch.Scale, 64); err != nil {
			return fmt.Errorf("channel %d: scale %q is not numeric", i+1, ch.Scale)
		}
		if !fsutil.FilesystemSafe(ch.Detector) {
			return fmt.Errorf("channel %d: detector %q is not filesystem-safe", i+1, ch.Detector)
		}
	}
	return nil
}

// SettingsPath returns the default settings file path
func SettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./settings_data.json"
	}
	return filepath.Join(home, "SEM", "settings_data.json")
}

// LoadOrDefault loads the settings at filename, falling back to defaults
// when the file does not exist yet.
func LoadOrDefault(filename string) (*Settings, error) {
	if !fsutil.FileExists(filename) {
		return Default(), nil
	}
	return LoadFromFile(filename)
}
