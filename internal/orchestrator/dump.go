package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/grovetools/layman/pkg/compositor"
	"gopkg.in/yaml.v3"
)

type workspaceDump struct {
	LayoutName             string         `yaml:"layoutName"`
	WindowIDs              []int64        `yaml:"windowIds"`
	FloatingWindowIDs      []int64        `yaml:"floatingWindowIds"`
	IsExcluded             bool           `yaml:"isExcluded"`
	FakeFullscreen         bool           `yaml:"fakeFullscreen"`
	FakeFullscreenWindowID *int64         `yaml:"fakeFullscreenWindowId"`
	FocusHistory           []int64        `yaml:"focusHistory"`
	Manager                map[string]any `yaml:"manager,omitempty"`
	ManagerError           string         `yaml:"manager_error,omitempty"`
}

type stateDump struct {
	Config     map[string]any           `yaml:"config"`
	Workspaces map[string]workspaceDump `yaml:"workspaces"`
	Compositor *compositor.Stats        `yaml:"compositor,omitempty"`
}

// Dump renders the configuration and every workspace state as YAML. The
// dump is also written to the debug log.
func (o *Orchestrator) Dump() (string, error) {
	d := stateDump{
		Config:     o.opts.Config().Raw(),
		Workspaces: make(map[string]workspaceDump, len(o.states)),
	}
	if d.Config == nil {
		d.Config = map[string]any{}
	}
	if r, ok := o.client.(compositor.StatsReporter); ok {
		stats := r.Stats()
		d.Compositor = &stats
	}
	for name, st := range o.states {
		wd := workspaceDump{
			LayoutName:        st.LayoutName,
			WindowIDs:         st.Windows(),
			FloatingWindowIDs: st.Floating(),
			IsExcluded:        st.Excluded,
			FakeFullscreen:    st.FakeFullscreen,
			FocusHistory:      st.History.Entries(),
		}
		if st.FakeFullscreen {
			id := st.FakeFullscreenWindowID
			wd.FakeFullscreenWindowID = &id
		}
		if st.Manager != nil {
			wd.Manager, wd.ManagerError = dumpManager(st)
		}
		d.Workspaces[name] = wd
	}

	out, err := yaml.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}
	o.logger.Debugf("Dumping internal state:\n%s", out)
	return string(out), nil
}

func dumpManager(st *WorkspaceState) (state map[string]any, failure string) {
	defer func() {
		if r := recover(); r != nil {
			state, failure = nil, fmt.Sprint(r)
		}
	}()
	return st.Manager.DumpState(), ""
}

// WorkspaceStatus is one line of the status command.
type WorkspaceStatus struct {
	Workspace      string `json:"workspace"`
	Layout         string `json:"layout"`
	Windows        int    `json:"windows"`
	Floating       int    `json:"floating"`
	Excluded       bool   `json:"excluded"`
	FakeFullscreen bool   `json:"fakeFullscreen"`
}

// Statuses summarizes every workspace, sorted by name.
func (o *Orchestrator) Statuses() []WorkspaceStatus {
	out := make([]WorkspaceStatus, 0, len(o.states))
	for _, name := range o.names() {
		st := o.states[name]
		out = append(out, WorkspaceStatus{
			Workspace:      name,
			Layout:         st.LayoutName,
			Windows:        len(st.WindowIDs),
			Floating:       len(st.FloatingIDs),
			Excluded:       st.Excluded,
			FakeFullscreen: st.FakeFullscreen,
		})
	}
	return out
}

// Status renders Statuses as text lines or as a JSON array.
func (o *Orchestrator) Status(asJSON bool) (string, error) {
	statuses := o.Statuses()
	if asJSON {
		data, err := json.Marshal(statuses)
		if err != nil {
			return "", fmt.Errorf("failed to marshal status: %w", err)
		}
		return string(data), nil
	}
	if len(statuses) == 0 {
		return "No workspaces", nil
	}
	lines := make([]string, 0, len(statuses))
	for _, s := range statuses {
		line := fmt.Sprintf("%s: %s (%d windows)", s.Workspace, s.Layout, s.Windows)
		if s.Excluded {
			line += " [excluded]"
		}
		if s.FakeFullscreen {
			line += " [fullscreen]"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}
