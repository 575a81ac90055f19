// Package store persists layout presets and workspace sessions as YAML
// files, one file per name.
package store

import "time"

// Preset is a named layout that can be applied to any workspace.
type Preset struct {
	Name       string         `yaml:"name"`
	LayoutName string         `yaml:"layoutName"`
	Options    map[string]any `yaml:"options,omitempty"`
	SavedAt    time.Time      `yaml:"savedAt"`
}

// WindowSlot records one window of a saved workspace.
type WindowSlot struct {
	ID    int64  `yaml:"id"`
	AppID string `yaml:"appId,omitempty"`
	Class string `yaml:"class,omitempty"`
	Index int    `yaml:"index"`
}

// WorkspaceSession is the saved state of one workspace.
type WorkspaceSession struct {
	Workspace  string       `yaml:"workspace"`
	LayoutName string       `yaml:"layoutName"`
	WindowIDs  []int64      `yaml:"windowIds,omitempty"`
	Windows    []WindowSlot `yaml:"windows,omitempty"`
}

// Session is a snapshot of every workspace's layout.
type Session struct {
	Name       string             `yaml:"name"`
	SavedAt    time.Time          `yaml:"savedAt"`
	Workspaces []WorkspaceSession `yaml:"workspaces"`
}

// Find returns the saved state of a workspace.
func (s *Session) Find(workspace string) (WorkspaceSession, bool) {
	for _, ws := range s.Workspaces {
		if ws.Workspace == workspace {
			return ws, true
		}
	}
	return WorkspaceSession{}, false
}
