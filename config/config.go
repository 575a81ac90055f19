// Package config loads and validates layman's config.toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/grovetools/layman/errors"
	"github.com/grovetools/layman/pkg/paths"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

// FileName is the config file name inside the config directory.
const FileName = "config.toml"

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// DefaultPath returns the config path: $LAYMAN_CONFIG when set, otherwise
// config.toml in the XDG config directory.
func DefaultPath() string {
	if p := os.Getenv("LAYMAN_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(paths.ConfigDir(), FileName)
}

// Load reads and parses a layman configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	cfg, err := LoadFromBytes(data)
	if err != nil {
		if le, ok := err.(*errors.LaymanError); ok {
			le.WithDetail("path", path)
		}
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// LoadOrDefault loads path, falling back to defaults when the file does
// not exist. Any other failure is returned.
func LoadOrDefault(path string, logger *logrus.Entry) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, errors.ErrCodeConfigNotFound) {
		if logger != nil {
			logger.WithField("path", path).Info("No config file found, using defaults")
		}
		return Default(), nil
	}
	return cfg, err
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{raw: map[string]any{}}
	cfg.SetDefaults()
	return cfg
}

// LoadFromBytes parses configuration from TOML text.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := []byte(expandEnvVars(string(data)))

	var raw map[string]any
	if err := toml.Unmarshal(expanded, &raw); err != nil {
		return nil, errors.ConfigInvalid(describeDecodeError(err))
	}
	if raw == nil {
		raw = map[string]any{}
	}

	if err := ValidateRaw(raw); err != nil {
		return nil, err
	}

	var cfg Config
	if err := toml.Unmarshal(expanded, &cfg); err != nil {
		return nil, errors.ConfigInvalid(describeDecodeError(err))
	}
	cfg.raw = raw

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SetDefaults fills unset settings.
func (c *Config) SetDefaults() {
	if c.Layman.DefaultLayout == "" {
		c.Layman.DefaultLayout = DefaultLayoutName
	}
	if c.Layman.SocketPath == "" {
		c.Layman.SocketPath = paths.SocketPath()
	}
	if c.Layman.ReplyTimeoutMs == nil {
		c.Layman.ReplyTimeoutMs = intPtr(DefaultReplyTimeoutMs)
	}
	if c.Layman.FocusHistorySize == nil {
		c.Layman.FocusHistorySize = intPtr(DefaultFocusHistorySize)
	}
	if c.Layman.TreeCacheMs == nil {
		c.Layman.TreeCacheMs = intPtr(DefaultTreeCacheMs)
	}
	if c.Layman.EventDebounceMs == nil {
		c.Layman.EventDebounceMs = intPtr(0)
	}
	if c.Logging.File.Path == "" {
		c.Logging.File.Path = paths.LogFilePath()
	}
	if c.Layman.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
}

// Raw returns the decoded TOML tree.
func (c *Config) Raw() map[string]any {
	return c.raw
}

// describeDecodeError renders go-toml decode errors with their position.
func describeDecodeError(err error) string {
	if de, ok := err.(*toml.DecodeError); ok {
		row, col := de.Position()
		return fmt.Sprintf("%s (line %d, column %d)", de.Error(), row, col)
	}
	return err.Error()
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} references.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

func intPtr(v int) *int { return &v }
