package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LoadedFiles []string       `yaml:"-"` // Track all files loaded for this config
	Include     []string       `yaml:"include"`
	Loggers     []LoggerConfig `yaml:"loggers"`
	Target      TargetConfig   `yaml:"target"`
	Session     SessionConfig  `yaml:"session"`
	Paths       PathsConfig    `yaml:"paths"`
}

type LoggerConfig struct {
	Stdout     bool   `yaml:"stdout,omitempty"`
	Stderr     bool   `yaml:"stderr,omitempty"`
	File       string `yaml:"file,omitempty"`
	Level      string `yaml:"level"`
	Source     bool   `yaml:"source"`
	HideTime   bool   `yaml:"hideTime,omitempty"`
	TimeFormat string `yaml:"timeFormat,omitempty"`
}

// TargetConfig is the host the CLI connects to when none is given on the
// command line.
type TargetConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	DialTimeout time.Duration `yaml:"dialTimeout"`
}

type PathsConfig struct {
	Data string `yaml:"data"`
}

func Load(filename string) (*Config, error) {
	// Start with the defaults; files only override what they set.
	cfg := Default()

	// Keep track of processed files to avoid infinite loops
	processed := make(map[string]bool)

	err := loadRecursive(filename, cfg, processed)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadRecursive(filename string, cfg *Config, processed map[string]bool) error {
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return err
	}

	if processed[absPath] {
		return nil // Already processed
	}
	processed[absPath] = true
	cfg.LoadedFiles = append(cfg.LoadedFiles, absPath)

	data, err := os.ReadFile(absPath)
	if err != nil {
		return err
	}

	// Expand environment variables in the YAML content
	expandedData := []byte(os.ExpandEnv(string(data)))

	// Unmarshal into a temporary struct to load includes first
	var tempCfg struct {
		Include []string `yaml:"include"`
	}
	if err := yaml.Unmarshal(expandedData, &tempCfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", absPath, err)
	}

	baseDir := filepath.Dir(absPath)
	for _, includePath := range tempCfg.Include {
		// Resolve relative paths relative to the current config file
		fullPath := includePath
		if !filepath.IsAbs(includePath) {
			fullPath = filepath.Join(baseDir, includePath)
		}

		if err := loadRecursive(fullPath, cfg, processed); err != nil {
			return fmt.Errorf("failed to load included config %s: %w", fullPath, err)
		}
	}

	// Now apply the current file's configuration over the accumulated config
	if err := yaml.Unmarshal(expandedData, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", absPath, err)
	}

	return nil
}
