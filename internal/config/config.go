// Package config loads the assistant configuration from JSON. All fields
// are pointers so a partial file only overrides what it names; the Get*
// accessors supply defaults for everything left nil.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apex-data/race.engineer/internal/units"
)

// Config is the root configuration. The schema is flat so the same JSON
// can be hand-edited or generated.
type Config struct {
	// Engine params
	HistorySize     *int    `json:"history_size,omitempty"`
	TireTrendWindow *int    `json:"tire_trend_window,omitempty"`
	FuelRateWindow  *int    `json:"fuel_rate_window,omitempty"`
	UpdateRateHz    *int    `json:"update_rate_hz,omitempty"`
	Units           *string `json:"units,omitempty"`

	// Telemetry source params
	Source     *string `json:"source,omitempty"` // "udp", "serial" or "sim"
	UDPListen  *string `json:"udp_listen,omitempty"`
	SerialPort *string `json:"serial_port,omitempty"`
	SerialBaud *int    `json:"serial_baud,omitempty"`

	// AI params
	OllamaURL         *string  `json:"ollama_url,omitempty"`
	OllamaModel       *string  `json:"ollama_model,omitempty"`
	OllamaTemperature *float64 `json:"ollama_temperature,omitempty"`
	OllamaMaxTokens   *int     `json:"ollama_max_tokens,omitempty"`
	OllamaTimeout     *string  `json:"ollama_timeout,omitempty"` // duration string like "30s"
	MaxPromptBytes    *int     `json:"max_prompt_bytes,omitempty"`

	// Voice params
	VoiceEnabled *bool    `json:"voice_enabled,omitempty"`
	WhisperURL   *string  `json:"whisper_url,omitempty"`
	TTSCommand   []string `json:"tts_command,omitempty"` // empty disables TTS

	// Persistence and API params
	DBPath *string `json:"db_path,omitempty"` // empty disables the session store
	Listen *string `json:"listen,omitempty"`  // empty disables the HTTP API
	Debug  *bool   `json:"debug,omitempty"`
}

// Defaults
const (
	DefaultUpdateRateHz = 10
	DefaultUDPListen    = ":9996"
	DefaultSource       = "sim"
	DefaultListen       = ":8073"
)

// Empty returns a Config with all fields nil.
func Empty() *Config {
	return &Config{}
}

// Load reads a JSON config file. Fields omitted from the file keep their
// defaults, so partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.HistorySize != nil && *c.HistorySize < 1 {
		return fmt.Errorf("history_size must be positive, got %d", *c.HistorySize)
	}
	if c.TireTrendWindow != nil && *c.TireTrendWindow < 2 {
		return fmt.Errorf("tire_trend_window must be at least 2, got %d", *c.TireTrendWindow)
	}
	if c.FuelRateWindow != nil && *c.FuelRateWindow < 2 {
		return fmt.Errorf("fuel_rate_window must be at least 2, got %d", *c.FuelRateWindow)
	}
	if c.UpdateRateHz != nil && (*c.UpdateRateHz < 1 || *c.UpdateRateHz > 100) {
		return fmt.Errorf("update_rate_hz must be between 1 and 100, got %d", *c.UpdateRateHz)
	}
	if c.Units != nil && !units.IsValid(*c.Units) {
		return fmt.Errorf("units must be one of %s, got %q", units.GetValidUnitsString(), *c.Units)
	}
	if c.Source != nil {
		switch *c.Source {
		case "udp", "serial", "sim":
		default:
			return fmt.Errorf("source must be udp, serial or sim, got %q", *c.Source)
		}
	}
	if c.Source != nil && *c.Source == "serial" && c.GetSerialPort() == "" {
		return fmt.Errorf("serial source requires serial_port")
	}
	if c.OllamaTimeout != nil && *c.OllamaTimeout != "" {
		if _, err := time.ParseDuration(*c.OllamaTimeout); err != nil {
			return fmt.Errorf("invalid ollama_timeout %q: %w", *c.OllamaTimeout, err)
		}
	}
	if c.OllamaTemperature != nil && (*c.OllamaTemperature < 0 || *c.OllamaTemperature > 2) {
		return fmt.Errorf("ollama_temperature must be between 0 and 2, got %f", *c.OllamaTemperature)
	}
	return nil
}

// GetHistorySize returns the engine history capacity.
func (c *Config) GetHistorySize() int {
	if c.HistorySize != nil {
		return *c.HistorySize
	}
	return 10
}

// GetTireTrendWindow returns the tire trend window size in samples.
func (c *Config) GetTireTrendWindow() int {
	if c.TireTrendWindow != nil {
		return *c.TireTrendWindow
	}
	return 3
}

// GetFuelRateWindow returns the fuel rate window size in samples.
func (c *Config) GetFuelRateWindow() int {
	if c.FuelRateWindow != nil {
		return *c.FuelRateWindow
	}
	return 5
}

// GetUpdateRateHz returns the telemetry poll rate.
func (c *Config) GetUpdateRateHz() int {
	if c.UpdateRateHz != nil {
		return *c.UpdateRateHz
	}
	return DefaultUpdateRateHz
}

// GetUnits returns the display speed units.
func (c *Config) GetUnits() string {
	if c.Units != nil {
		return *c.Units
	}
	return units.KMH
}

// GetSource returns the telemetry source kind.
func (c *Config) GetSource() string {
	if c.Source != nil {
		return *c.Source
	}
	return DefaultSource
}

// GetUDPListen returns the UDP bridge listen address.
func (c *Config) GetUDPListen() string {
	if c.UDPListen != nil {
		return *c.UDPListen
	}
	return DefaultUDPListen
}

// GetSerialPort returns the serial port path, empty if unset.
func (c *Config) GetSerialPort() string {
	if c.SerialPort != nil {
		return *c.SerialPort
	}
	return ""
}

// GetSerialBaud returns the serial baud rate.
func (c *Config) GetSerialBaud() int {
	if c.SerialBaud != nil {
		return *c.SerialBaud
	}
	return 115200
}

// GetOllamaURL returns the Ollama endpoint URL, empty meaning the client
// default.
func (c *Config) GetOllamaURL() string {
	if c.OllamaURL != nil {
		return *c.OllamaURL
	}
	return ""
}

// GetOllamaModel returns the model name, empty meaning the client default.
func (c *Config) GetOllamaModel() string {
	if c.OllamaModel != nil {
		return *c.OllamaModel
	}
	return ""
}

// GetOllamaTemperature returns the sampling temperature.
func (c *Config) GetOllamaTemperature() float64 {
	if c.OllamaTemperature != nil {
		return *c.OllamaTemperature
	}
	return 0.7
}

// GetOllamaMaxTokens returns the response token budget.
func (c *Config) GetOllamaMaxTokens() int {
	if c.OllamaMaxTokens != nil {
		return *c.OllamaMaxTokens
	}
	return 150
}

// GetOllamaTimeout returns the per-request timeout.
func (c *Config) GetOllamaTimeout() time.Duration {
	if c.OllamaTimeout != nil && *c.OllamaTimeout != "" {
		if d, err := time.ParseDuration(*c.OllamaTimeout); err == nil {
			return d
		}
	}
	return 30 * time.Second
}

// GetMaxPromptBytes returns the prompt size bound, zero meaning the
// builder default.
func (c *Config) GetMaxPromptBytes() int {
	if c.MaxPromptBytes != nil {
		return *c.MaxPromptBytes
	}
	return 0
}

// GetVoiceEnabled reports whether microphone capture is on.
func (c *Config) GetVoiceEnabled() bool {
	if c.VoiceEnabled != nil {
		return *c.VoiceEnabled
	}
	return false
}

// GetWhisperURL returns the transcription server URL, empty meaning the
// client default.
func (c *Config) GetWhisperURL() string {
	if c.WhisperURL != nil {
		return *c.WhisperURL
	}
	return ""
}

// GetTTSCommand returns the TTS command and arguments, empty when TTS is
// disabled.
func (c *Config) GetTTSCommand() []string {
	return c.TTSCommand
}

// GetDBPath returns the session store path, empty when persistence is
// disabled.
func (c *Config) GetDBPath() string {
	if c.DBPath != nil {
		return *c.DBPath
	}
	return ""
}

// GetListen returns the HTTP API listen address.
func (c *Config) GetListen() string {
	if c.Listen != nil {
		return *c.Listen
	}
	return DefaultListen
}

// GetDebug reports whether debug logging is on.
func (c *Config) GetDebug() bool {
	if c.Debug != nil {
		return *c.Debug
	}
	return false
}
