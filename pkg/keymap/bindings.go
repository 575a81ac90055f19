// Package keymap describes the key bindings that drive layman from an i3
// or sway config. Bindings run "nop layman <command>"; the daemon sees
// them as binding events.
package keymap

import (
	"fmt"
	"io"
	"strings"
)

// Marker prefixes every layman binding command.
const Marker = "nop layman"

// DefaultMod is the modifier variable used when none is given.
const DefaultMod = "$mod"

// Binding maps a key chord to a layman command.
type Binding struct {
	// Keys is the chord without the modifier, e.g. "Shift+j".
	Keys    string
	Command string
	Help    string
}

// Group is a titled set of bindings rendered together.
type Group struct {
	Title    string
	Bindings []Binding
}

// DefaultGroups returns the suggested bindings for the built-in layouts.
func DefaultGroups() []Group {
	return []Group{
		{
			Title: "Layouts",
			Bindings: []Binding{
				{Keys: "m", Command: "layout set MasterStack", Help: "use the master/stack layout"},
				{Keys: "Shift+m", Command: "layout set none", Help: "stop managing the workspace"},
				{Keys: "f", Command: "layout maximize", Help: "toggle fake fullscreen"},
			},
		},
		{
			Title: "Windows",
			Bindings: []Binding{
				{Keys: "j", Command: "window focus down", Help: "focus the next window"},
				{Keys: "k", Command: "window focus up", Help: "focus the previous window"},
				{Keys: "Tab", Command: "window focus previous", Help: "focus the last focused window"},
				{Keys: "Shift+j", Command: "window move down", Help: "move the window down the stack"},
				{Keys: "Shift+k", Command: "window move up", Help: "move the window up the stack"},
				{Keys: "Return", Command: "window swap master", Help: "swap the window with the master"},
				{Keys: "r", Command: "window rotate cw", Help: "rotate windows clockwise"},
				{Keys: "Shift+r", Command: "window rotate ccw", Help: "rotate windows counterclockwise"},
			},
		},
		{
			Title: "Stack",
			Bindings: []Binding{
				{Keys: "s", Command: "stack toggle", Help: "cycle the stack layout"},
				{Keys: "Shift+s", Command: "stack side toggle", Help: "move the stack to the other side"},
				{Keys: "equal", Command: "master add", Help: "add a master window"},
				{Keys: "minus", Command: "master remove", Help: "remove a master window"},
			},
		},
	}
}

// Chord joins mod and keys the way bindsym expects them.
func (b Binding) Chord(mod string) string {
	if mod == "" {
		return b.Keys
	}
	return mod + "+" + b.Keys
}

// Line renders b as a bindsym line.
func (b Binding) Line(mod string) string {
	return fmt.Sprintf("bindsym %s %s %s", b.Chord(mod), Marker, b.Command)
}

// Render writes groups as an i3/sway config snippet.
func Render(w io.Writer, groups []Group, mod string) error {
	var sb strings.Builder
	sb.WriteString("# layman key bindings\n")
	for _, g := range groups {
		fmt.Fprintf(&sb, "\n# %s\n", g.Title)
		for _, b := range g.Bindings {
			if b.Help != "" {
				fmt.Fprintf(&sb, "# %s\n", b.Help)
			}
			sb.WriteString(b.Line(mod))
			sb.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
