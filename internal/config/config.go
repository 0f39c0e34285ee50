package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/odontoplan/internal/model"
)

// Config holds all runtime configuration for an odontoplan run.
type Config struct {
	DSN                string
	LogFormat          string // "text" or "json"
	LogLevel           string
	ConfigFile         string
	ListenAddr         string             `yaml:"listen"`
	PatientBands       model.PatientBands `yaml:"patient_bands"`
	DefaultVersionName string             `yaml:"default_version_name"` // prefix, ordinal is appended
}

// Defaults returns a Config with every optional field populated.
func Defaults() Config {
	return Config{
		LogFormat:          "text",
		LogLevel:           "info",
		ListenAddr:         ":8080",
		PatientBands:       model.DefaultPatientBands,
		DefaultVersionName: "Version",
	}
}

// yamlConfig is the on-disk YAML structure.
type yamlConfig struct {
	Listen             string              `yaml:"listen"`
	PatientBands       *model.PatientBands `yaml:"patient_bands"`
	DefaultVersionName string              `yaml:"default_version_name"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.
// Keys absent from the file leave the current values untouched.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if yc.Listen != "" {
		c.ListenAddr = yc.Listen
	}
	if yc.PatientBands != nil {
		c.PatientBands = *yc.PatientBands
	}
	if name := strings.TrimSpace(yc.DefaultVersionName); name != "" {
		c.DefaultVersionName = name
	}
	return c.validateBands()
}

// validateBands checks that the pediatric band ends before the adolescent one.
func (c *Config) validateBands() error {
	b := c.PatientBands
	if b.PediatricUnder <= 0 || b.AdolescentUnder <= 0 {
		return fmt.Errorf("patient_bands: ages must be positive, got pediatric_under=%d adolescent_under=%d",
			b.PediatricUnder, b.AdolescentUnder)
	}
	if b.PediatricUnder >= b.AdolescentUnder {
		return fmt.Errorf("patient_bands: pediatric_under (%d) must be below adolescent_under (%d)",
			b.PediatricUnder, b.AdolescentUnder)
	}
	return nil
}

// Validate checks fields every command needs.
func (c *Config) Validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("--log-format must be text or json, got %q", c.LogFormat)
	}
	if c.DefaultVersionName == "" {
		return fmt.Errorf("default_version_name must not be empty")
	}
	return c.validateBands()
}

// ValidateWithDSN also requires a database connection string.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DSN == "" {
		return fmt.Errorf("--dsn or SUPABASE_DB_URL is required")
	}
	return nil
}
