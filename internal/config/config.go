package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/dupsweep/internal/logging"
	"github.com/fenilsonani/dupsweep/internal/platform"
	"github.com/fenilsonani/dupsweep/internal/scanner"
	"github.com/fenilsonani/dupsweep/internal/selection"
	"github.com/fenilsonani/dupsweep/pkg/utils"
)

// Config represents the application configuration
type Config struct {
	Roots             []string `yaml:"roots" toml:"roots"`
	ExcludeComponents []string `yaml:"exclude_components" toml:"exclude_components"`
	ProtectedPaths    []string `yaml:"protected_paths" toml:"protected_paths"`
	MinFileSize       string   `yaml:"min_file_size" toml:"min_file_size"` // e.g., "1KB"
	Extensions        []string `yaml:"extensions" toml:"extensions"`
	SkipHidden        bool     `yaml:"skip_hidden" toml:"skip_hidden"`
	Verify            bool     `yaml:"verify" toml:"verify"`
	Workers           int      `yaml:"workers" toml:"workers"` // 0 = one per CPU

	Sensitivity string `yaml:"sensitivity" toml:"sensitivity"`
	// Threshold overrides Sensitivity when > 0
	Threshold float64 `yaml:"threshold" toml:"threshold"`

	KeepStrategy    string `yaml:"keep_strategy" toml:"keep_strategy"`
	PreferredFolder string `yaml:"preferred_folder" toml:"preferred_folder"`
	BackupDir       string `yaml:"backup_dir" toml:"backup_dir"`

	LogLevel string `yaml:"log_level" toml:"log_level"`
	LogFile  string `yaml:"log_file" toml:"log_file"`
}

// GetDefault returns the default configuration
func GetDefault() *Config {
	return &Config{
		ExcludeComponents: append([]string(nil), scanner.DefaultExcludedComponents...),
		ProtectedPaths:    []string{},
		MinFileSize:       "0",
		SkipHidden:        true,
		Verify:            false,
		Sensitivity:       string(scanner.SensitivityMedium),
		KeepStrategy:      string(selection.Newest),
		LogLevel:          "info",
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load loads configuration from a file. Paths ending in .toml are decoded
// as TOML, everything else as YAML.
func Load(configPath string) (*Config, error) {
	// If config doesn't exist, return default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefault(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := GetDefault()
	if isTOML(configPath) {
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves configuration to a file, encoding by extension
func Save(config *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	if isTOML(configPath) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(config); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(config); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := utils.ParseSize(c.MinFileSize); err != nil {
		return fmt.Errorf("invalid min_file_size: %w", err)
	}

	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}

	if c.Threshold < 0 {
		return fmt.Errorf("threshold must be >= 0")
	}
	if c.Sensitivity != "" {
		if _, err := scanner.ParseSensitivity(c.Sensitivity); err != nil {
			return err
		}
	}

	if c.KeepStrategy != "" {
		if _, err := selection.ParseStrategy(c.KeepStrategy); err != nil {
			return err
		}
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.BackupDir != "" && !filepath.IsAbs(c.BackupDir) {
		return fmt.Errorf("backup_dir must be absolute: %s", c.BackupDir)
	}

	// Validate protected paths are absolute
	for _, path := range c.ProtectedPaths {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("protected path must be absolute: %s", path)
		}
	}

	return nil
}

// SimilarityThreshold returns the explicit threshold if set, otherwise the
// threshold of the configured sensitivity preset
func (c *Config) SimilarityThreshold() float64 {
	if c.Threshold > 0 {
		return c.Threshold
	}
	s, err := scanner.ParseSensitivity(c.Sensitivity)
	if err != nil {
		s = scanner.SensitivityMedium
	}
	return s.Threshold()
}

// ScanConfig builds the scanner configuration for roots, falling back to
// the configured roots when none are given. Protected paths extend the
// built-in list.
func (c *Config) ScanConfig(roots ...string) (scanner.Config, error) {
	if len(roots) == 0 {
		roots = c.Roots
	}

	minSize, err := utils.ParseSize(c.MinFileSize)
	if err != nil {
		return scanner.Config{}, fmt.Errorf("invalid min_file_size: %w", err)
	}

	var exts []string
	for _, e := range c.Extensions {
		exts = append(exts, scanner.ParseExtensions(e)...)
	}

	cfg := scanner.Config{
		ExcludedComponents: append([]string(nil), c.ExcludeComponents...),
		ProtectedPaths:     append([]string(nil), c.ProtectedPaths...),
		MinFileSize:        minSize,
		Extensions:         exts,
		SkipHidden:         c.SkipHidden,
		Verify:             c.Verify,
		Threshold:          c.SimilarityThreshold(),
		Workers:            c.Workers,
	}
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return scanner.Config{}, fmt.Errorf("invalid root %s: %w", r, err)
		}
		cfg.Roots = append(cfg.Roots, abs)
	}
	return cfg, nil
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	configDir, err := platform.GetUserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// EnsureConfigExists creates a default config file if it doesn't exist
func EnsureConfigExists() (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(GetDefault(), configPath); err != nil {
			return "", err
		}
	}

	return configPath, nil
}
