// Package app provides configuration and session management for the emulator.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"nescore/internal/debug"
	"nescore/internal/input"
)

// Config holds all application configuration
type Config struct {
	Window    WindowConfig    `json:"window"`
	Video     VideoConfig     `json:"video"`
	Input     InputConfig     `json:"input"`
	Emulation EmulationConfig `json:"emulation"`
	Debug     DebugConfig     `json:"debug"`
	Paths     PathsConfig     `json:"paths"`

	// Internal state
	configPath string
	loaded     bool
}

// WindowConfig contains viewer window configuration
type WindowConfig struct {
	Title string `json:"title"`
	Scale int    `json:"scale"` // pattern table pixel multiplier
}

// VideoConfig selects the front-end
type VideoConfig struct {
	Backend string `json:"backend"` // "ebitengine", "headless", "terminal"
	Palette int    `json:"palette"` // palette index (0-7) used to color CHR tiles
}

// InputConfig contains input configuration
type InputConfig struct {
	Player1Keys  KeyMapping `json:"player1_keys"`
	TerminalKeys KeyMapping `json:"terminal_keys"`
}

// KeyMapping represents keyboard key mappings for NES controller
type KeyMapping struct {
	Up     string `json:"up"`
	Down   string `json:"down"`
	Left   string `json:"left"`
	Right  string `json:"right"`
	A      string `json:"a"`
	B      string `json:"b"`
	Start  string `json:"start"`
	Select string `json:"select"`
}

// Buttons returns the mapping as key name -> button
func (k KeyMapping) Buttons() map[string]input.Button {
	m := make(map[string]input.Button, 8)
	for key, button := range map[string]input.Button{
		k.Up: input.ButtonUp, k.Down: input.ButtonDown,
		k.Left: input.ButtonLeft, k.Right: input.ButtonRight,
		k.A: input.ButtonA, k.B: input.ButtonB,
		k.Start: input.ButtonStart, k.Select: input.ButtonSelect,
	} {
		if key != "" {
			m[key] = button
		}
	}
	return m
}

// EmulationConfig contains emulation-specific settings
type EmulationConfig struct {
	StrictLoading  bool   `json:"strict_loading"`   // reject bad signatures and unknown mappers
	StartPC        string `json:"start_pc"`         // hex override of the reset vector, "" to use it
	MaxFrames      int    `json:"max_frames"`       // headless run length, 0 for unbounded
	TestROMTimeout int    `json:"test_rom_timeout"` // frames before a test ROM is declared hung
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	LogLevel      string   `json:"log_level"` // "DEBUG", "INFO", "WARN", "ERROR", "OFF"
	CPUTracing    bool     `json:"cpu_tracing"`
	TraceMaxLines uint64   `json:"trace_max_lines"`
	Breakpoints   []string `json:"breakpoints"` // hex addresses
}

// PathsConfig contains file and directory paths
type PathsConfig struct {
	ROMs      string `json:"roms"`
	Traces    string `json:"traces"`
	Dumps     string `json:"dumps"`
	Snapshots string `json:"snapshots"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Title: "nescore",
			Scale: 3,
		},
		Video: VideoConfig{
			Backend: "ebitengine",
			Palette: 0,
		},
		Input: InputConfig{
			Player1Keys: KeyMapping{
				Up:     "W",
				Down:   "S",
				Left:   "A",
				Right:  "D",
				A:      "J",
				B:      "K",
				Start:  "Enter",
				Select: "Space",
			},
			TerminalKeys: KeyMapping{
				Up:     "w",
				Down:   "s",
				Left:   "a",
				Right:  "d",
				A:      "j",
				B:      "k",
				Start:  "\r",
				Select: " ",
			},
		},
		Emulation: EmulationConfig{
			StrictLoading:  false,
			MaxFrames:      0,
			TestROMTimeout: 3600,
		},
		Debug: DebugConfig{
			LogLevel:      "INFO",
			TraceMaxLines: 0,
		},
		Paths: PathsConfig{
			ROMs:      "./roms",
			Traces:    "./traces",
			Dumps:     "./dumps",
			Snapshots: "./snapshots",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. A missing file is
// created with the current values.
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	c.configPath = path
	return nil
}

// Save saves the configuration to the current config file
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New("no config file path set")
	}
	return c.SaveToFile(c.configPath)
}

// Validate checks enumerated fields and clamps numeric ones into range
func (c *Config) Validate() error {
	if c.Window.Scale <= 0 {
		c.Window.Scale = 1
	}
	if c.Video.Palette < 0 || c.Video.Palette > 7 {
		c.Video.Palette = 0
	}
	if c.Emulation.MaxFrames < 0 {
		c.Emulation.MaxFrames = 0
	}
	if c.Emulation.TestROMTimeout <= 0 {
		c.Emulation.TestROMTimeout = 3600
	}

	switch c.Video.Backend {
	case "ebitengine", "headless", "terminal":
	default:
		return &ConfigError{Field: "video.backend", Value: c.Video.Backend, Err: errors.New("unknown backend")}
	}

	if _, err := debug.ParseLevel(c.Debug.LogLevel); err != nil {
		return &ConfigError{Field: "debug.log_level", Value: c.Debug.LogLevel, Err: err}
	}

	if _, _, err := c.StartAddress(); err != nil {
		return &ConfigError{Field: "emulation.start_pc", Value: c.Emulation.StartPC, Err: err}
	}

	if _, err := c.BreakpointAddresses(); err != nil {
		return &ConfigError{Field: "debug.breakpoints", Value: c.Debug.Breakpoints, Err: err}
	}

	return nil
}

// LogLevel returns the parsed debug level, INFO when unset or invalid
func (c *Config) LogLevel() debug.Level {
	level, err := debug.ParseLevel(c.Debug.LogLevel)
	if err != nil {
		return debug.LevelInfo
	}
	return level
}

// StartAddress parses the start PC override. ok is false when none is set.
func (c *Config) StartAddress() (pc uint16, ok bool, err error) {
	if c.Emulation.StartPC == "" {
		return 0, false, nil
	}
	pc, err = ParseAddress(c.Emulation.StartPC)
	if err != nil {
		return 0, false, err
	}
	return pc, true, nil
}

// BreakpointAddresses parses the configured breakpoints
func (c *Config) BreakpointAddresses() ([]uint16, error) {
	pcs := make([]uint16, 0, len(c.Debug.Breakpoints))
	for _, s := range c.Debug.Breakpoints {
		pc, err := ParseAddress(s)
		if err != nil {
			return nil, err
		}
		pcs = append(pcs, pc)
	}
	return pcs, nil
}

// ParseAddress parses a 16-bit hex address written as "C000", "$C000" or "0xC000"
func ParseAddress(s string) (uint16, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "$"), "0x")
	trimmed = strings.TrimPrefix(trimmed, "0X")
	v, err := strconv.ParseUint(trimmed, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint16(v), nil
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// GetConfigPath returns the path to the config file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	data, err := json.Marshal(c)
	if err != nil {
		return NewConfig()
	}

	clone := &Config{}
	if err := json.Unmarshal(data, clone); err != nil {
		return NewConfig()
	}

	clone.configPath = c.configPath
	clone.loaded = c.loaded
	return clone
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return "./config/nescore.json"
}

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
