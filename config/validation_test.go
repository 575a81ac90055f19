package config

import (
	"testing"

	"github.com/grovetools/layman/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidation(t *testing.T) {
	testCases := []struct {
		name     string
		toml     string
		wantCode errors.ErrorCode
		contains string
	}{
		{
			name: "valid knobs in any case",
			toml: "[layman]\nstackSide = \"Right\"\nstackLayout = \"STACKING\"\n",
		},
		{
			name:     "unknown key",
			toml:     "[layman]\nmasterWdith = 60\n",
			wantCode: errors.ErrCodeConfigValidation,
			contains: "masterWdith",
		},
		{
			name:     "unknown table",
			toml:     "[layouts.Wide]\nbase = \"MasterStack\"\n",
			wantCode: errors.ErrCodeConfigValidation,
		},
		{
			name:     "master width too large",
			toml:     "[layman]\nmasterWidth = 100\n",
			wantCode: errors.ErrCodeConfigValidation,
			contains: "masterWidth",
		},
		{
			name:     "master width zero",
			toml:     "[workspace.1]\nmasterWidth = 0\n",
			wantCode: errors.ErrCodeConfigValidation,
		},
		{
			name:     "master width wrong type",
			toml:     "[layman]\nmasterWidth = \"wide\"\n",
			wantCode: errors.ErrCodeConfigValidation,
		},
		{
			name:     "negative stack limit",
			toml:     "[layman]\nvisibleStackLimit = -1\n",
			wantCode: errors.ErrCodeConfigValidation,
		},
		{
			name:     "fractional master count",
			toml:     "[layman]\nmasterCount = 1.5\n",
			wantCode: errors.ErrCodeConfigValidation,
		},
		{
			name:     "bad stack side",
			toml:     "[workspace.3]\nstackSide = \"up\"\n",
			wantCode: errors.ErrCodeConfigInvalid,
			contains: "workspace.3.stackSide",
		},
		{
			name:     "bad stack layout",
			toml:     "[layman]\nstackLayout = \"grid\"\n",
			wantCode: errors.ErrCodeConfigInvalid,
			contains: "splitv, splith, stacking, tabbed",
		},
		{
			name:     "variant without base",
			toml:     "[layout.Wide]\nmasterWidth = 70\n",
			wantCode: errors.ErrCodeConfigValidation,
			contains: "base cannot be empty",
		},
		{
			name:     "variant of a variant",
			toml:     "[layout.A]\nbase = \"MasterStack\"\n[layout.B]\nbase = \"A\"\n",
			wantCode: errors.ErrCodeConfigValidation,
			contains: "itself a variant",
		},
		{
			name:     "bad log level",
			toml:     "[logging]\nlevel = \"loud\"\n",
			wantCode: errors.ErrCodeConfigValidation,
		},
		{
			name:     "bad component log level",
			toml:     "[logging.components]\nengine = \"loud\"\n",
			wantCode: errors.ErrCodeConfigInvalid,
			contains: "logging.components.engine",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tc.toml))
			if tc.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.wantCode, errors.GetCode(err))
			assert.True(t, errors.IsConfiguration(err))
			if tc.contains != "" {
				assert.Contains(t, err.Error(), tc.contains)
			}
		})
	}
}
