package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grovetools/layman/errors"
	"github.com/moby/patternmatcher"
	"github.com/sirupsen/logrus"
)

var (
	validStackSides   = []string{"left", "right"}
	validStackLayouts = []string{"splitv", "splith", "stacking", "tabbed"}
)

// Validate checks what the schema cannot: enum values compared case
// insensitively, glob syntax, log levels and variant bases.
func (c *Config) Validate() error {
	if err := validateKnobs("layman", c.Layman.LayoutKnobs); err != nil {
		return err
	}

	if _, err := patternmatcher.New(c.Layman.ExcludeWorkspaces); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid excludeWorkspaces pattern").
			WithDetail("patterns", c.Layman.ExcludeWorkspaces)
	}

	for _, name := range sortedKeys(c.Workspace) {
		if err := validateKnobs("workspace."+name, c.Workspace[name].LayoutKnobs); err != nil {
			return err
		}
	}

	for _, name := range sortedKeys(c.Layout) {
		variant := c.Layout[name]
		if variant.Base == "" {
			return errors.New(errors.ErrCodeConfigValidation,
				fmt.Sprintf("layout.%s: base cannot be empty", name)).
				WithDetail("variant", name)
		}
		if _, nested := c.Layout[variant.Base]; nested {
			return errors.New(errors.ErrCodeConfigValidation,
				fmt.Sprintf("layout.%s: base '%s' is itself a variant", name, variant.Base)).
				WithDetail("variant", name)
		}
		if err := validateKnobs("layout."+name, variant.LayoutKnobs); err != nil {
			return err
		}
	}

	if err := validateLevel("logging.level", c.Logging.Level); err != nil {
		return err
	}
	for component, level := range c.Logging.Components {
		if err := validateLevel("logging.components."+component, level); err != nil {
			return err
		}
	}

	return nil
}

func validateKnobs(table string, k LayoutKnobs) error {
	if k.StackSide != "" && !oneOf(k.StackSide, validStackSides) {
		return errors.InvalidOption(table+".stackSide", k.StackSide,
			"valid options: "+strings.Join(validStackSides, ", "))
	}
	if k.StackLayout != "" && !oneOf(k.StackLayout, validStackLayouts) {
		return errors.InvalidOption(table+".stackLayout", k.StackLayout,
			"valid options: "+strings.Join(validStackLayouts, ", "))
	}
	return nil
}

func validateLevel(key, level string) error {
	if level == "" {
		return nil
	}
	if _, err := logrus.ParseLevel(level); err != nil {
		return errors.InvalidOption(key, level, "must be a log level such as debug, info, warn or error")
	}
	return nil
}

func oneOf(v string, options []string) bool {
	for _, o := range options {
		if strings.EqualFold(v, o) {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
