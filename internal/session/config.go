package session

import (
	"fmt"
	"regexp"
	"time"
)

const (
	DefaultQuietInterval   = 500 * time.Millisecond
	DefaultLoginTimeout    = 10 * time.Second
	DefaultResultWindow    = 5 * time.Second
	DefaultLineTerminator  = "\r\n"
	DefaultMaxPromptBuffer = 4096
)

// Patterns are the regular expressions and markers used to read the login
// exchange. Prompt patterns are matched against the whole accumulated text,
// so they should be anchored to its end.
type Patterns struct {
	Username       []string
	Password       []string
	Success        []string
	FailureMarkers []string // plain substrings, matched case-insensitively
}

// DefaultPatterns covers the usual getty, busybox and network device prompts.
func DefaultPatterns() Patterns {
	return Patterns{
		Username:       []string{`(?i)(login|username|user|name)\s*:\s*$`},
		Password:       []string{`(?i)(password|passwd|ssword)\s*:?\s*$`},
		Success:        []string{`[#$>%]\s*$`},
		FailureMarkers: []string{"incorrect", "failed", "denied", "invalid"},
	}
}

// Config holds the tunables of one Session.
type Config struct {
	// QuietInterval is how long text must flow with no negotiation before
	// negotiation counts as finished. Zero disables the timer and leaves the
	// username prompt as the only trigger.
	QuietInterval time.Duration
	// LoginTimeout bounds negotiation and each prompt wait.
	LoginTimeout time.Duration
	// ResultWindow is how long to wait, once non-blank text has arrived after
	// the password, for a failure marker before assuming success. It should
	// outlast the delay login(1) puts before "Login incorrect".
	ResultWindow    time.Duration
	LineTerminator  string
	MaxPromptBuffer int
	Patterns        Patterns
}

// DefaultConfig returns a Config with every field set to its default.
func DefaultConfig() Config {
	return Config{
		QuietInterval:   DefaultQuietInterval,
		LoginTimeout:    DefaultLoginTimeout,
		ResultWindow:    DefaultResultWindow,
		LineTerminator:  DefaultLineTerminator,
		MaxPromptBuffer: DefaultMaxPromptBuffer,
		Patterns:        DefaultPatterns(),
	}
}

// withDefaults fills zero fields. QuietInterval is left alone since zero is meaningful.
func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.LoginTimeout <= 0 {
		c.LoginTimeout = defaults.LoginTimeout
	}
	if c.ResultWindow <= 0 {
		c.ResultWindow = defaults.ResultWindow
	}
	if c.LineTerminator == "" {
		c.LineTerminator = defaults.LineTerminator
	}
	if c.MaxPromptBuffer <= 0 {
		c.MaxPromptBuffer = defaults.MaxPromptBuffer
	}
	if len(c.Patterns.Username) == 0 {
		c.Patterns.Username = defaults.Patterns.Username
	}
	if len(c.Patterns.Password) == 0 {
		c.Patterns.Password = defaults.Patterns.Password
	}
	if len(c.Patterns.Success) == 0 {
		c.Patterns.Success = defaults.Patterns.Success
	}
	if len(c.Patterns.FailureMarkers) == 0 {
		c.Patterns.FailureMarkers = defaults.Patterns.FailureMarkers
	}
	return c
}

// compiledPatterns is Patterns ready for matching.
type compiledPatterns struct {
	username []*regexp.Regexp
	password []*regexp.Regexp
	success  []*regexp.Regexp
	failure  []failureMarker
}

func (p Patterns) compile() (*compiledPatterns, error) {
	var err error
	c := &compiledPatterns{}
	if c.username, err = compileAll("username", p.Username); err != nil {
		return nil, err
	}
	if c.password, err = compileAll("password", p.Password); err != nil {
		return nil, err
	}
	if c.success, err = compileAll("success", p.Success); err != nil {
		return nil, err
	}
	for _, marker := range p.FailureMarkers {
		if marker == "" {
			return nil, fmt.Errorf("failure marker must not be empty")
		}
		c.failure = append(c.failure, newFailureMarker(marker))
	}
	return c, nil
}

func compileAll(kind string, patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", kind, p, err)
		}
		out = append(out, re)
	}
	return out, nil
}
