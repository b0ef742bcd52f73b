// Package config implements the .pwnlate.yaml project configuration file.
//
// The file is optional: every setting has a default, and command-line flags
// override whatever the file says. When no file exists the tool runs purely
// on defaults and flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/samp-tools/pwnlate/settings"
)

// FileName is the project configuration file name.
const FileName = ".pwnlate.yaml"

// Config holds one project's settings.
type Config struct {
	// Input is the Pawn script to translate.
	Input string `yaml:"input,omitempty"`
	// Output is the translated script path. Empty derives
	// "<name>.translated.pwn" next to the input.
	Output string `yaml:"output,omitempty"`
	// CacheFile is the translation cache path. Empty uses the user-level
	// cache under $XDG_CACHE_HOME/pwnlate/, keyed by the input name.
	CacheFile string `yaml:"cache_file,omitempty"`
	// FailureLog is the failed-translations log path.
	FailureLog string `yaml:"failure_log,omitempty"`
	// SourceLang and TargetLang are translation language codes.
	SourceLang string `yaml:"source_lang,omitempty"`
	TargetLang string `yaml:"target_lang,omitempty"`
	// MaxRetries is the number of backend attempts per literal.
	MaxRetries int `yaml:"max_retries,omitempty"`
	// RetryDelaySeconds is the base pause before a retry.
	RetryDelaySeconds int `yaml:"retry_delay_seconds,omitempty"`
	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
	// SessionLimit caps new backend translations per run (0 = unlimited).
	SessionLimit int `yaml:"session_limit,omitempty"`
	// NoBackup disables the <input>.bak copy.
	NoBackup bool `yaml:"no_backup,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SourceLang:        "ru",
		TargetLang:        "en",
		FailureLog:        "failed_translations.txt",
		MaxRetries:        5,
		RetryDelaySeconds: 3,
		TimeoutSeconds:    10,
	}
}

// Load reads .pwnlate.yaml from dir and merges it over the defaults.
// A missing file yields the defaults; a malformed file is an error.
func Load(dir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.Merge(&file)

	return cfg, nil
}

// Merge overlays the non-zero fields of other onto c. Flag handling uses
// the same mechanism: defaults, then file, then flags, each layer winning
// where it actually says something.
func (c *Config) Merge(other *Config) {
	if other.Input != "" {
		c.Input = other.Input
	}
	if other.Output != "" {
		c.Output = other.Output
	}
	if other.CacheFile != "" {
		c.CacheFile = other.CacheFile
	}
	if other.FailureLog != "" {
		c.FailureLog = other.FailureLog
	}
	if other.SourceLang != "" {
		c.SourceLang = other.SourceLang
	}
	if other.TargetLang != "" {
		c.TargetLang = other.TargetLang
	}
	if other.MaxRetries > 0 {
		c.MaxRetries = other.MaxRetries
	}
	if other.RetryDelaySeconds > 0 {
		c.RetryDelaySeconds = other.RetryDelaySeconds
	}
	if other.TimeoutSeconds > 0 {
		c.TimeoutSeconds = other.TimeoutSeconds
	}
	if other.SessionLimit > 0 {
		c.SessionLimit = other.SessionLimit
	}
	if other.NoBackup {
		c.NoBackup = true
	}
}

// Validate checks the settings that have no sensible fallback.
func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("no input file: pass one as an argument or set 'input' in %s", FileName)
	}
	if c.SourceLang == "" || c.TargetLang == "" {
		return fmt.Errorf("source and target languages must not be empty")
	}
	if c.SourceLang == c.TargetLang {
		return fmt.Errorf("source and target languages are both %q", c.SourceLang)
	}
	return nil
}

// OutputPath returns the configured or derived output path.
func (c *Config) OutputPath() string {
	if c.Output != "" {
		return c.Output
	}
	ext := filepath.Ext(c.Input)
	base := strings.TrimSuffix(c.Input, ext)
	if ext == "" {
		ext = ".pwn"
	}
	return base + ".translated" + ext
}

// CachePath returns the configured cache file, falling back to the
// user-level cache keyed by the input name.
func (c *Config) CachePath() (string, error) {
	if c.CacheFile != "" {
		return c.CacheFile, nil
	}
	return settings.CacheFilePath(c.Input)
}

// RetryDelay returns the base retry pause as a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// Timeout returns the per-request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
