package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/voxkit/edgetts/internal/synth"
)

const DefaultPath = "config/edgetts.json"

type AppConfig struct {
	Logging LoggingConfig `json:"logging"`
	Speech  SpeechConfig  `json:"speech"`
}

type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type SpeechConfig struct {
	Voice             string `json:"voice"`
	Rate              string `json:"rate"`
	Volume            string `json:"volume"`
	Pitch             string `json:"pitch"`
	Boundary          string `json:"boundary"`
	Format            string `json:"format"`
	ConnectTimeoutSec int    `json:"connect_timeout_sec"`
	ReceiveTimeoutSec int    `json:"receive_timeout_sec"`
	Player            string `json:"player"`
}

func DefaultConfig() *AppConfig {
	return &AppConfig{
		Logging: LoggingConfig{},
		Speech: SpeechConfig{
			Voice:             "en-US-AriaNeural",
			Rate:              "+0%",
			Volume:            "+0%",
			Pitch:             "+0Hz",
			Boundary:          "word",
			Format:            synth.DefaultOutputFormat,
			ConnectTimeoutSec: 10,
			ReceiveTimeoutSec: 30,
			Player:            "ffplay",
		},
	}
}

func Load(path string) (*AppConfig, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultPath
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.ApplyEnv()
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}

func (c *AppConfig) ApplyEnv() {
	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		c.Logging.Level = level
	}
	if format := strings.TrimSpace(os.Getenv("LOG_FORMAT")); format != "" {
		c.Logging.Format = format
	}
	if voice := strings.TrimSpace(os.Getenv("EDGETTS_VOICE")); voice != "" {
		c.Speech.Voice = voice
	}
	if format := strings.TrimSpace(os.Getenv("EDGETTS_FORMAT")); format != "" {
		c.Speech.Format = format
	}
}

// SynthConfig converts the speech section into the library's voice settings.
func (c *AppConfig) SynthConfig() synth.Config {
	return synth.Config{
		Voice:    c.Speech.Voice,
		Rate:     c.Speech.Rate,
		Volume:   c.Speech.Volume,
		Pitch:    c.Speech.Pitch,
		Boundary: synth.Boundary(c.Speech.Boundary),
	}
}

func (c *AppConfig) Validate() error {
	if c.Speech.ConnectTimeoutSec <= 0 {
		return errors.New("speech.connect_timeout_sec must be positive")
	}
	if c.Speech.ReceiveTimeoutSec <= 0 {
		return errors.New("speech.receive_timeout_sec must be positive")
	}
	if strings.TrimSpace(c.Speech.Format) == "" {
		return errors.New("speech.format is required")
	}
	return c.SynthConfig().Validate()
}
