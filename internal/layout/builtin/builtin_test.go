package builtin

import (
	"context"
	"testing"

	"github.com/grovetools/layman/internal/layout"
	"github.com/grovetools/layman/pkg/compositor/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"MasterStack", "none"}, r.Available())

	m, err := r.Create(context.Background(), "MasterStack", layout.Params{
		Client:        mocks.NewMockClient(mocks.Root()),
		WorkspaceName: "1",
	})
	require.NoError(t, err)
	assert.True(t, m.Capabilities().OverridesMoveBinds)
}
