package config

import (
	"fmt"
	"math"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/moby/patternmatcher"
)

const (
	tableLayman    = "layman"
	tableWorkspace = "workspace"
	tableLayout    = "layout"

	KeyDefaultLayout = "defaultLayout"
)

// Options answers option lookups for layouts and the orchestrator.
// It is immutable; a reload builds a new one.
type Options struct {
	cfg      *Config
	excluder *patternmatcher.PatternMatcher
}

// NewOptions wraps a loaded config. cfg must have passed Validate.
func NewOptions(cfg *Config) *Options {
	if cfg == nil {
		cfg = Default()
	}
	o := &Options{cfg: cfg}
	if pm, err := patternmatcher.New(cfg.Layman.ExcludeWorkspaces); err == nil {
		o.excluder = pm
	}
	return o
}

// Config returns the underlying config.
func (o *Options) Config() *Config {
	return o.cfg
}

// Settings returns the [layman] table with defaults applied.
func (o *Options) Settings() Settings {
	return o.cfg.Layman
}

// Default returns a key from [layman], or nil.
func (o *Options) Default(key string) any {
	return lookup(o.cfg.raw, tableLayman, key)
}

// GetForWorkspace returns key from [workspace.<name>], falling back to
// [layman]. It returns nil when neither table sets it.
func (o *Options) GetForWorkspace(workspace, key string) any {
	if v := lookup(o.cfg.raw, tableWorkspace, workspace, key); v != nil {
		return v
	}
	return o.Default(key)
}

// DefaultLayout is the layout a workspace starts with.
func (o *Options) DefaultLayout(workspace string) string {
	if s, ok := o.GetForWorkspace(workspace, KeyDefaultLayout).(string); ok && s != "" {
		return s
	}
	return DefaultLayoutName
}

// IsExcluded reports whether layman should ignore a workspace. Entries of
// excludeWorkspaces match exactly or as glob patterns.
func (o *Options) IsExcluded(workspace string) bool {
	for _, p := range o.cfg.Layman.ExcludeWorkspaces {
		if p == workspace {
			return true
		}
	}
	if o.excluder == nil {
		return false
	}
	matched, err := o.excluder.MatchesOrParentMatches(workspace)
	return err == nil && matched
}

// Variant returns the [layout.<name>] table, if any.
func (o *Options) Variant(name string) (LayoutVariant, bool) {
	v, ok := o.cfg.Layout[name]
	return v, ok
}

// Variants returns the names of configured layout variants.
func (o *Options) Variants() []string {
	return sortedKeys(o.cfg.Layout)
}

// Merged returns the options visible to a layout on a workspace, lowest
// priority first: [layman], [layout.<variant>], [workspace.<ws>].
func (o *Options) Merged(workspace, variant string) map[string]any {
	merged := map[string]any{}
	overlay := func(table map[string]any) {
		for k, v := range table {
			if _, isTable := v.(map[string]any); isTable {
				continue
			}
			merged[k] = v
		}
	}
	overlay(asMap(lookup(o.cfg.raw, tableLayman)))
	if variant != "" {
		overlay(asMap(lookup(o.cfg.raw, tableLayout, variant)))
	}
	overlay(asMap(lookup(o.cfg.raw, tableWorkspace, workspace)))
	return merged
}

// Decode decodes the merged options for (workspace, variant) into target,
// a pointer to a struct tagged with `mapstructure`. Keys target does not
// declare are ignored.
func (o *Options) Decode(workspace, variant string, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: strictIntegers,
		Result:     target,
		TagName:    "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("failed to create options decoder: %w", err)
	}
	return decoder.Decode(o.Merged(workspace, variant))
}

// strictIntegers refuses to truncate a fractional number into an integer
// field; mapstructure would otherwise do so silently.
func strictIntegers(from reflect.Type, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}
	if from.Kind() != reflect.Float32 && from.Kind() != reflect.Float64 {
		return data, nil
	}
	f := reflect.ValueOf(data).Float()
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("expected an integer, got %v", f)
	}
	return data, nil
}

func lookup(m map[string]any, path ...string) any {
	var cur any = m
	for _, key := range path {
		table, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = table[key]
		if !ok {
			return nil
		}
	}
	return cur
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
