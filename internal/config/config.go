package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// MinWindowSize is the smallest width or height the overlay is restored with.
const MinWindowSize = 200

// Mode is the overlay's interaction mode.
type Mode int

const (
	// ModeEdit makes the overlay interactive: draggable, resizable, clickable.
	ModeEdit Mode = iota
	// ModePassive makes the overlay click-through except for the control panel.
	ModePassive
)

// String returns "Edit" or "Passive".
func (m Mode) String() string {
	if m == ModePassive {
		return "Passive"
	}
	return "Edit"
}

// Toggle flips Edit and Passive.
func (m Mode) Toggle() Mode {
	if m == ModePassive {
		return ModeEdit
	}
	return ModePassive
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText accepts the mode name (any case) or its legacy number.
func (m *Mode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "edit", "0":
		*m = ModeEdit
	case "passive", "1":
		*m = ModePassive
	default:
		return fmt.Errorf("unknown interaction mode %q", text)
	}
	return nil
}

// UnmarshalJSON accepts both "Passive" and the older numeric encoding 1.
func (m *Mode) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return m.UnmarshalText([]byte(s))
	}
	return m.UnmarshalText(data)
}

// Coord is a window coordinate where NaN means "unset". It is written to JSON
// as null.
type Coord float64

// Unset is the "use current placement" sentinel.
func Unset() Coord { return Coord(math.NaN()) }

// IsSet reports whether c carries a real coordinate.
func (c Coord) IsSet() bool { return !math.IsNaN(float64(c)) }

// MarshalJSON writes NaN as null.
func (c Coord) MarshalJSON() ([]byte, error) {
	if !c.IsSet() || math.IsInf(float64(c), 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(c), 'f', -1, 64)), nil
}

// UnmarshalJSON reads null (or the string "NaN") as unset.
func (c *Coord) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `"NaN"` {
		*c = Unset()
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %s: %w", s, err)
	}
	*c = Coord(v)
	return nil
}

// Config is the persisted overlay record.
type Config struct {
	OpacityPercent float64           `json:"OpacityPercent" yaml:"opacityPercent"`
	Width          float64           `json:"Width" yaml:"width"`
	Height         float64           `json:"Height" yaml:"height"`
	Left           Coord             `json:"Left" yaml:"left"`
	Top            Coord             `json:"Top" yaml:"top"`
	Mode           Mode              `json:"Mode" yaml:"mode"`
	TintColor      string            `json:"TintColor" yaml:"tintColor"`
	Hotkeys        map[string]string `json:"Hotkeys,omitempty" yaml:"hotkeys,omitempty"`
}

// Default returns the compiled-in configuration.
func Default() Config {
	return Config{
		OpacityPercent: 35,
		Width:          640,
		Height:         480,
		Left:           100,
		Top:            100,
		Mode:           ModeEdit,
		TintColor:      "#000000",
	}
}

// normalize raises the window size to MinWindowSize.
func (c Config) normalize() Config {
	if math.IsNaN(c.Width) || c.Width < MinWindowSize {
		c.Width = MinWindowSize
	}
	if math.IsNaN(c.Height) || c.Height < MinWindowSize {
		c.Height = MinWindowSize
	}
	return c
}

// Source says where Load found its configuration.
type Source int

const (
	SourceDefaults Source = iota
	SourcePrimary
	SourceBackup
)

func (s Source) String() string {
	switch s {
	case SourcePrimary:
		return "primary"
	case SourceBackup:
		return "backup"
	default:
		return "defaults"
	}
}

// Service manages configuration persistence
type Service struct {
	filePath     string
	logger       *zap.Logger
	onSaveFailed func(error)
}

// DefaultPath returns <user config dir>/NotSoBright/config.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, "NotSoBright", "config.json"), nil
}

// New creates a config service for filePath. An empty path selects
// DefaultPath.
func New(filePath string, logger *zap.Logger) (*Service, error) {
	if filePath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		filePath = p
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{filePath: filePath, logger: logger}, nil
}

// OnSaveFailed registers a callback invoked with the error of every failed
// save.
func (s *Service) OnSaveFailed(fn func(error)) {
	s.onSaveFailed = fn
}

// Path returns the full path to the configuration file
func (s *Service) Path() string {
	return s.filePath
}

// BackupPath returns the path of the previous generation.
func (s *Service) BackupPath() string {
	return s.filePath + ".bak"
}

// Load returns the stored configuration, falling back to the backup and
// then to defaults. It never fails.
func (s *Service) Load() Config {
	cfg, _ := s.LoadWithSource()
	return cfg
}

// LoadWithSource is Load that also reports which generation was used.
func (s *Service) LoadWithSource() (Config, Source) {
	cfg, err := readFile(s.filePath)
	if err == nil {
		return cfg, SourcePrimary
	}
	if !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("config unreadable, trying backup",
			zap.String("path", s.filePath), zap.Error(err))
	}

	cfg, bakErr := readFile(s.BackupPath())
	if bakErr == nil {
		s.logger.Info("config restored from backup", zap.String("path", s.BackupPath()))
		return cfg, SourceBackup
	}
	if !errors.Is(bakErr, fs.ErrNotExist) {
		s.logger.Warn("backup config unreadable, using defaults",
			zap.String("path", s.BackupPath()), zap.Error(bakErr))
	}
	return Default(), SourceDefaults
}

func readFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return cfg.normalize(), nil
}

// Save backs up the current file to BackupPath and writes cfg as the new
// primary. Failures are logged, reported to the OnSaveFailed callback and
// returned.
func (s *Service) Save(cfg Config) error {
	err := s.save(cfg.normalize())
	if err != nil {
		s.logger.Error("failed to save config", zap.String("path", s.filePath), zap.Error(err))
		if s.onSaveFailed != nil {
			s.onSaveFailed(err)
		}
	}
	return err
}

func (s *Service) save(cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	prev, err := os.ReadFile(s.filePath)
	switch {
	case err == nil:
		if err := writeAtomic(s.BackupPath(), prev); err != nil {
			return fmt.Errorf("failed to write backup: %w", err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("failed to read current config: %w", err)
	}

	if err := writeAtomic(s.filePath, data); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Reset overwrites the stored configuration with defaults.
func (s *Service) Reset() error {
	return s.Save(Default())
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
