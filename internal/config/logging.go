package config

import "censuswage/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`      // debug, info, warn, error
	Format     string          `yaml:"format"`     // json, text
	File       string          `yaml:"file"`       // empty means stderr
	DebugMode  bool            `yaml:"debug_mode"` // forces debug level for every category
	Categories map[string]bool `yaml:"categories"` // Per-category toggles
}

// IsCategoryEnabled returns whether logging is enabled for a category.
// Categories not listed are enabled.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if c.Categories == nil {
		return true
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true
	}
	return enabled
}

// Options converts the section into logging.Initialize options.
func (c *LoggingConfig) Options() logging.Options {
	level := c.Level
	if c.DebugMode {
		level = "debug"
	}
	return logging.Options{
		Level:      level,
		Format:     c.Format,
		File:       c.File,
		Categories: c.Categories,
	}
}

func (c *LoggingConfig) Validate() error {
	_, err := logging.ParseLevel(c.Level)
	return err
}
