package config

import (
	_ "embed"
	"fmt"
	"time"

	"telpy/internal/session"
)

// SessionConfig mirrors session.Config in YAML form. Durations are written
// as Go duration strings such as "500ms".
type SessionConfig struct {
	QuietInterval   time.Duration `yaml:"quietInterval"`
	LoginTimeout    time.Duration `yaml:"loginTimeout"`
	ResultWindow    time.Duration `yaml:"resultWindow"`
	LineTerminator  string        `yaml:"lineTerminator"`
	MaxPromptBuffer int           `yaml:"maxPromptBuffer"`
	UsernamePrompts []string      `yaml:"usernamePrompts"`
	PasswordPrompts []string      `yaml:"passwordPrompts"`
	SuccessPrompts  []string      `yaml:"successPrompts"`
	FailureMarkers  []string      `yaml:"failureMarkers"`
}

// DefaultYAML is the annotated config written by `telpy init`.
//
//go:embed default.yml
var DefaultYAML []byte

// Default returns the built-in configuration.
func Default() *Config {
	defaults := session.DefaultConfig()
	return &Config{
		LoadedFiles: []string{},
		Loggers: []LoggerConfig{
			{Stderr: true, Level: "info"},
		},
		Target: TargetConfig{
			Port:        23,
			DialTimeout: 5 * time.Second,
		},
		Session: SessionConfig{
			QuietInterval:   defaults.QuietInterval,
			LoginTimeout:    defaults.LoginTimeout,
			ResultWindow:    defaults.ResultWindow,
			LineTerminator:  defaults.LineTerminator,
			MaxPromptBuffer: defaults.MaxPromptBuffer,
			UsernamePrompts: defaults.Patterns.Username,
			PasswordPrompts: defaults.Patterns.Password,
			SuccessPrompts:  defaults.Patterns.Success,
			FailureMarkers:  defaults.Patterns.FailureMarkers,
		},
		Paths: PathsConfig{
			Data: "data",
		},
	}
}

// Validate rejects values that can only be mistakes.
func (c *Config) Validate() error {
	s := c.Session
	switch {
	case s.QuietInterval < 0:
		return fmt.Errorf("session.quietInterval must not be negative, got %s", s.QuietInterval)
	case s.LoginTimeout <= 0:
		return fmt.Errorf("session.loginTimeout must be positive, got %s", s.LoginTimeout)
	case s.ResultWindow <= 0:
		return fmt.Errorf("session.resultWindow must be positive, got %s", s.ResultWindow)
	case s.MaxPromptBuffer < 64:
		return fmt.Errorf("session.maxPromptBuffer must be at least 64, got %d", s.MaxPromptBuffer)
	case c.Target.Port < 0 || c.Target.Port > 65535:
		return fmt.Errorf("target.port out of range: %d", c.Target.Port)
	}
	return nil
}

// ToSession converts the YAML settings into a session.Config.
func (c *Config) ToSession() session.Config {
	s := c.Session
	return session.Config{
		QuietInterval:   s.QuietInterval,
		LoginTimeout:    s.LoginTimeout,
		ResultWindow:    s.ResultWindow,
		LineTerminator:  s.LineTerminator,
		MaxPromptBuffer: s.MaxPromptBuffer,
		Patterns: session.Patterns{
			Username:       s.UsernamePrompts,
			Password:       s.PasswordPrompts,
			Success:        s.SuccessPrompts,
			FailureMarkers: s.FailureMarkers,
		},
	}
}
