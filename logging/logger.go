// Package logging provides per-component logrus loggers for layman.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex

	current   Config
	fileSinks = make(map[string]*fileSink)
)

// Configure applies cfg to every logger, existing and future. The daemon
// calls it after loading config.toml and again on reload.
func Configure(cfg Config) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	current = cfg
	for component, entry := range loggers {
		apply(entry.Logger, component, cfg)
	}
}

// NewLogger returns the logger for a component. Loggers are cached so
// repeated calls are cheap.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	logger := logrus.New()
	apply(logger, component, current)

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}

// LevelFor resolves the effective level of a component. LAYMAN_LOG_LEVEL
// wins over the per-component entry, which wins over logging.level.
func LevelFor(component string, cfg Config) logrus.Level {
	levelStr := "info"
	if env := os.Getenv("LAYMAN_LOG_LEVEL"); env != "" {
		levelStr = env
	} else if l, ok := cfg.Components[component]; ok && l != "" {
		levelStr = l
	} else if cfg.Level != "" {
		levelStr = cfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func apply(logger *logrus.Logger, component string, cfg Config) {
	logger.SetLevel(LevelFor(component, cfg))

	logger.SetReportCaller(os.Getenv("LAYMAN_LOG_CALLER") == "true" || cfg.ReportCaller)

	switch cfg.Format.Preset {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "simple":
		logger.SetFormatter(&TextFormatter{Config: FormatConfig{
			DisableTimestamp: true,
			DisableComponent: true,
		}})
	default:
		logger.SetFormatter(&TextFormatter{Config: cfg.Format})
	}

	var writers []io.Writer

	if cfg.File.Path != "" && cfg.FileEnabled() {
		writers = append(writers, sinkFor(expandPath(cfg.File.Path)))
	}

	if shouldLogToStderr(logger.GetLevel(), cfg) {
		writers = append(writers, GetGlobalOutput())
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}
}

// shouldLogToStderr implements structured_to_stderr. In "auto" mode
// structured logs reach stderr when debugging or when stderr is not a
// terminal, e.g. under a service manager.
func shouldLogToStderr(level logrus.Level, cfg Config) bool {
	switch cfg.Format.StructuredToStderr {
	case "always":
		return true
	case "never":
		return false
	}
	isDebug := os.Getenv("LAYMAN_DEBUG") == "1" || level >= logrus.DebugLevel
	isInteractive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return isDebug || !isInteractive
}

// sinkFor shares one file handle per path across components.
func sinkFor(path string) *fileSink {
	if s, ok := fileSinks[path]; ok {
		return s
	}
	s := newFileSink(path)
	fileSinks[path] = s
	return s
}

// CloseFiles closes every open log file. Later writes reopen them.
func CloseFiles() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, s := range fileSinks {
		s.Close()
	}
}

// expandPath expands tilde in file paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
