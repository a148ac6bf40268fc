// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package cgtconfig provides configuration parsing and validation for cgt.
//
// Configuration is stored at <dir>/cgt.yaml where <dir> is the base
// directory given by the --dir flag.
package cgtconfig

import (
	"bytes"
	"fmt"
	"os"

	"github.com/velikodniy/cgt-tool/internal/cgt/cgtpath"
	"gopkg.in/yaml.v3"
)

// configTemplate is the default configuration file template with comments.
// yaml.v3 does not preserve comments, so we hardcode the template string.
const configTemplate = `# The configuration file version.
#
# Required. The only current valid version is v1.
version: v1
# The default ledger file, used when --input is not given.
#
# Optional.
ledger: ""
# Report output configuration.
report:
  # Decimal places for presentation values, from 0 to 10.
  #
  # Optional. Defaults to 2 (pence). The value is validated but not applied:
  # table output always shows pence, and CSV and JSON output are not rounded.
  decimal_places: 2
`

// defaultDecimalPlaces is the presentation rounding used when the config
// does not specify one.
const defaultDecimalPlaces = 2

// ExternalConfig is the YAML-serializable configuration file structure.
type ExternalConfig struct {
	// Version is the configuration file version (must be "v1").
	Version string `yaml:"version"`
	// Ledger is the optional default ledger file path.
	Ledger string `yaml:"ledger"`
	// Report holds report output configuration.
	Report ExternalReportConfig `yaml:"report"`
}

// ExternalReportConfig holds report output configuration.
type ExternalReportConfig struct {
	// DecimalPlaces is the configured presentation rounding, in [0, 10].
	// No command applies it to its output.
	DecimalPlaces *int `yaml:"decimal_places"`
}

// Config is the validated runtime configuration derived from the config file.
type Config struct {
	// LedgerPath is the default ledger file path, empty if not configured.
	LedgerPath string
	// ReportDecimalPlaces is the configured presentation rounding. No command
	// reads it: table output uses pence and CSV output is unrounded.
	ReportDecimalPlaces int
}

// NewConfig validates an ExternalConfig and returns a runtime Config.
func NewConfig(externalConfig ExternalConfig) (*Config, error) {
	if externalConfig.Version != "v1" {
		return nil, fmt.Errorf("unsupported config version %q, must be v1", externalConfig.Version)
	}
	decimalPlaces := defaultDecimalPlaces
	if externalConfig.Report.DecimalPlaces != nil {
		decimalPlaces = *externalConfig.Report.DecimalPlaces
		if decimalPlaces < 0 || decimalPlaces > 10 {
			return nil, fmt.Errorf("report.decimal_places %d out of range [0, 10]", decimalPlaces)
		}
	}
	return &Config{
		LedgerPath:          externalConfig.Ledger,
		ReportDecimalPlaces: decimalPlaces,
	}, nil
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		ReportDecimalPlaces: defaultDecimalPlaces,
	}
}

// ReadConfig reads and validates the configuration file from the given base
// directory. A missing file is not an error: the defaults are returned so
// the tool works without any configuration.
func ReadConfig(dirPath string) (*Config, error) {
	filePath := cgtpath.ConfigFilePath(dirPath)
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var externalConfig ExternalConfig
	if err := unmarshalYAMLStrict(data, &externalConfig); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
	}
	return NewConfig(externalConfig)
}

// InitConfig creates a new configuration file with a documented template.
// Creates the base directory if it does not exist.
// Returns the path to the created file, or an error if the file already exists.
func InitConfig(dirPath string) (string, error) {
	filePath := cgtpath.ConfigFilePath(dirPath)
	if _, err := os.Stat(filePath); err == nil {
		return "", fmt.Errorf("configuration file already exists: %s", filePath)
	}
	// Create the base directory if it does not exist.
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(filePath, []byte(configTemplate), 0o644); err != nil {
		return "", err
	}
	return filePath, nil
}

// ValidateConfig reads and validates the configuration file from the given
// base directory. Unlike ReadConfig, a missing file is an error.
func ValidateConfig(dirPath string) error {
	filePath := cgtpath.ConfigFilePath(dirPath)
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("configuration file not found at %s, run \"cgt config init\" to create one", filePath)
	}
	_, err := ReadConfig(dirPath)
	return err
}

// *** PRIVATE ***

// unmarshalYAMLStrict unmarshals the data as YAML with strict field checking.
// If the data length is 0, this is a no-op.
func unmarshalYAMLStrict(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	yamlDecoder := yaml.NewDecoder(bytes.NewReader(data))
	// Reject unknown fields.
	yamlDecoder.KnownFields(true)
	if err := yamlDecoder.Decode(v); err != nil {
		return fmt.Errorf("could not unmarshal as YAML: %w", err)
	}
	return nil
}
