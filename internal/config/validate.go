package config

import (
	"fmt"
	"slices"
	"strings"
)

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

// Validate checks every setting and returns the first problem found
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return fmt.Errorf("invalid root: cannot be empty")
	}
	if strings.TrimSpace(c.Database) == "" {
		return fmt.Errorf("invalid database: cannot be empty")
	}
	if err := validateChoice("log_level", c.LogLevel, validLogLevels); err != nil {
		return err
	}
	if err := validateChoice("log_format", c.LogFormat, validLogFormats); err != nil {
		return err
	}
	if err := validateCompressionLevel(c.CompressionLevel); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid workers %d: cannot be negative", c.Workers)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("invalid batch_size %d: must be at least 1", c.BatchSize)
	}
	return nil
}

func validateChoice(name, value string, valid []string) error {
	if !slices.Contains(valid, value) {
		return fmt.Errorf("invalid %s '%s': must be one of %s", name, value, strings.Join(valid, ", "))
	}
	return nil
}

// validateCompressionLevel accepts the zlib levels: -2 (Huffman only),
// -1 (default), 0 (store) through 9 (best)
func validateCompressionLevel(level int) error {
	if level < -2 || level > 9 {
		return fmt.Errorf("invalid compression_level %d: must be between -2 and 9", level)
	}
	return nil
}
