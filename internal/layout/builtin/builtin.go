// Package builtin assembles the registry of layouts shipped with layman.
package builtin

import (
	"github.com/grovetools/layman/internal/layout"
	"github.com/grovetools/layman/internal/layout/masterstack"
)

// NewRegistry returns a registry holding every built-in layout.
func NewRegistry() *layout.Registry {
	r := layout.NewRegistry()
	r.Register(masterstack.Name, masterstack.New)
	return r
}
