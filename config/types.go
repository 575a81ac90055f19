package config

import (
	"time"

	"github.com/grovetools/layman/logging"
)

// Config is the decoded config.toml.
type Config struct {
	// Layman holds the global defaults, including every layout knob.
	Layman Settings `toml:"layman,omitempty" jsonschema:"description=Global defaults"`
	// Workspace holds per-workspace overrides keyed by workspace name.
	Workspace map[string]WorkspaceConfig `toml:"workspace,omitempty" jsonschema:"description=Per-workspace overrides"`
	// Layout holds named layout variants built on a registered layout.
	Layout map[string]LayoutVariant `toml:"layout,omitempty" jsonschema:"description=Named layout variants"`
	// Logging configures the daemon log.
	Logging logging.Config `toml:"logging,omitempty"`

	// Path is the file the config was read from; empty for defaults.
	Path string `toml:"-"`

	raw map[string]any
}

// Settings is the [layman] table.
type Settings struct {
	DefaultLayout     string   `toml:"defaultLayout,omitempty" jsonschema:"description=Layout applied to new workspaces"`
	ExcludeWorkspaces []string `toml:"excludeWorkspaces,omitempty" jsonschema:"description=Workspace names or glob patterns layman ignores"`
	SocketPath        string   `toml:"socketPath,omitempty" jsonschema:"description=Control socket path"`
	Debug             bool     `toml:"debug,omitempty"`

	ReplyTimeoutMs   *int  `toml:"replyTimeoutMs,omitempty" jsonschema:"minimum=1"`
	EventDebounceMs  *int  `toml:"eventDebounceMs,omitempty" jsonschema:"minimum=0"`
	TreeCacheMs      *int  `toml:"treeCacheMs,omitempty" jsonschema:"minimum=0"`
	FocusHistorySize *int  `toml:"focusHistorySize,omitempty" jsonschema:"minimum=1"`
	BatchCommands    bool  `toml:"batchCommands,omitempty"`
	WatchConfig      *bool `toml:"watchConfig,omitempty"`

	LayoutKnobs
}

// LayoutKnobs are the options a layout reads through Options.Decode.
// They may appear in [layman], [workspace.<name>] and [layout.<name>].
type LayoutKnobs struct {
	MasterWidth       *float64 `toml:"masterWidth,omitempty" jsonschema:"exclusiveMinimum=0,exclusiveMaximum=100"`
	StackSide         string   `toml:"stackSide,omitempty"`
	StackLayout       string   `toml:"stackLayout,omitempty"`
	VisibleStackLimit *int     `toml:"visibleStackLimit,omitempty" jsonschema:"minimum=0"`
	MasterCount       *int     `toml:"masterCount,omitempty" jsonschema:"minimum=1"`
}

// WorkspaceConfig is a [workspace.<name>] table.
type WorkspaceConfig struct {
	DefaultLayout string `toml:"defaultLayout,omitempty"`
	LayoutKnobs
}

// LayoutVariant is a [layout.<name>] table: a registered layout with
// its knobs preset.
type LayoutVariant struct {
	Base string `toml:"base,omitempty" jsonschema:"description=Registered layout this variant builds on"`
	LayoutKnobs
}

const (
	DefaultLayoutName       = "none"
	DefaultReplyTimeoutMs   = 10000
	DefaultFocusHistorySize = 20
	DefaultTreeCacheMs      = 1000
)

// ReplyTimeout is how long the control endpoint waits for the dispatch loop.
func (s Settings) ReplyTimeout() time.Duration {
	return millis(s.ReplyTimeoutMs, DefaultReplyTimeoutMs)
}

// EventDebounce is the window used to coalesce duplicate compositor events.
func (s Settings) EventDebounce() time.Duration {
	return millis(s.EventDebounceMs, 0)
}

// TreeCacheAge is how long a fetched tree snapshot may be reused.
func (s Settings) TreeCacheAge() time.Duration {
	return millis(s.TreeCacheMs, DefaultTreeCacheMs)
}

func (s Settings) HistorySize() int {
	if s.FocusHistorySize == nil {
		return DefaultFocusHistorySize
	}
	return *s.FocusHistorySize
}

// WatchEnabled reports whether config.toml is watched for changes.
func (s Settings) WatchEnabled() bool {
	return s.WatchConfig == nil || *s.WatchConfig
}

func millis(v *int, def int) time.Duration {
	if v == nil {
		return time.Duration(def) * time.Millisecond
	}
	return time.Duration(*v) * time.Millisecond
}
