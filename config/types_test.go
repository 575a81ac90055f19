package config

import (
	"testing"
	"time"

	"github.com/grovetools/layman/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsDurations(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		reply    time.Duration
		debounce time.Duration
		cache    time.Duration
		history  int
		watch    bool
	}{
		{
			name:     "zero value uses defaults",
			settings: Settings{},
			reply:    10 * time.Second,
			debounce: 0,
			cache:    time.Second,
			history:  DefaultFocusHistorySize,
			watch:    true,
		},
		{
			name: "explicit values",
			settings: Settings{
				ReplyTimeoutMs:   intPtr(250),
				EventDebounceMs:  intPtr(40),
				TreeCacheMs:      intPtr(0),
				FocusHistorySize: intPtr(3),
				WatchConfig:      boolPtr(false),
			},
			reply:    250 * time.Millisecond,
			debounce: 40 * time.Millisecond,
			cache:    0,
			history:  3,
			watch:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.reply, tt.settings.ReplyTimeout())
			assert.Equal(t, tt.debounce, tt.settings.EventDebounce())
			assert.Equal(t, tt.cache, tt.settings.TreeCacheAge())
			assert.Equal(t, tt.history, tt.settings.HistorySize())
			assert.Equal(t, tt.watch, tt.settings.WatchEnabled())
		})
	}
}

func TestLoadEveryTable(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
[layman]
defaultLayout = "MasterStack"
masterCount = 2
watchConfig = false

[workspace."1"]
defaultLayout = "Wide"
visibleStackLimit = 4

[layout.Wide]
base = "MasterStack"
masterWidth = 75.5
stackSide = "left"

[logging]
level = "warn"
report_caller = true

[logging.format]
preset = "json"
`))
	require.NoError(t, err)

	require.NotNil(t, cfg.Layman.MasterCount)
	assert.Equal(t, 2, *cfg.Layman.MasterCount)
	assert.False(t, cfg.Layman.WatchEnabled())

	ws := cfg.Workspace["1"]
	assert.Equal(t, "Wide", ws.DefaultLayout)
	require.NotNil(t, ws.VisibleStackLimit)
	assert.Equal(t, 4, *ws.VisibleStackLimit)

	wide := cfg.Layout["Wide"]
	assert.Equal(t, "MasterStack", wide.Base)
	require.NotNil(t, wide.MasterWidth)
	assert.Equal(t, 75.5, *wide.MasterWidth)
	assert.Equal(t, "left", wide.StackSide)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Logging.ReportCaller)
	assert.Equal(t, "json", cfg.Logging.Format.Preset)

	assert.Contains(t, cfg.Raw(), "workspace")
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"unknown table", "[layouts.Wide]\nbase = \"MasterStack\"\n"},
		{"typo in layman", "[layman]\nmasterWidht = 60\n"},
		{"typo in workspace", "[workspace.\"1\"]\nstackSid = \"left\"\n"},
		{"typo in logging", "[logging]\nlevl = \"info\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.text))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeConfigValidation), err.Error())
		})
	}
}

func boolPtr(v bool) *bool { return &v }
