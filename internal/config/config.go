// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"

	"estimate-engine/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Matching contains price-matching settings
	Matching MatchingConfig `json:"matching"`

	// Rules is the path to the matching rules file (HCL). Empty uses the
	// compiled-in default tables.
	Rules string `json:"rules,omitempty"`

	// Output contains output configuration
	Output OutputConfig `json:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// MatchingConfig contains price-matching settings
type MatchingConfig struct {
	// Workers bounds the matcher worker pool. Zero means one worker per CPU.
	Workers int `json:"workers"`

	// MinConfidence is the confidence required to apply a matched price
	MinConfidence float64 `json:"min_confidence"`

	// ExactScore is the score at which a match is classified as exact
	ExactScore float64 `json:"exact_score"`

	// PartialScore is the score at which a match is classified as partial
	PartialScore float64 `json:"partial_score"`

	// FallbackScore is the score a category fallback must reach
	FallbackScore float64 `json:"fallback_score"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format (text, json)
	DefaultFormat string `json:"default_format"`

	// ShowConfidence shows per-item confidence scores
	ShowConfidence bool `json:"show_confidence"`

	// ShowFormulas shows calculation formulas in reports
	ShowFormulas bool `json:"show_formulas"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	rulesPath := filepath.Join(homeDir, ".estimate-engine", "rules.hcl")
	if _, err := os.Stat(rulesPath); err != nil {
		rulesPath = ""
	}

	return &Config{
		Version: "1.0",
		Matching: MatchingConfig{
			Workers:       runtime.NumCPU(),
			MinConfidence: 0.5,
			ExactScore:    1.0,
			PartialScore:  0.5,
			FallbackScore: 0.8,
		},
		Rules: rulesPath,
		Output: OutputConfig{
			DefaultFormat:  "text",
			ShowConfidence: true,
			ShowFormulas:   true,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
