package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/grovetools/layman/cli"
	"github.com/grovetools/layman/config"
	"github.com/grovetools/layman/pkg/paths"
	"github.com/spf13/cobra"
)

// PathsOutput lists the files and directories layman uses.
type PathsOutput struct {
	ConfigFile  string `json:"config_file"`
	ConfigDir   string `json:"config_dir"`
	DataDir     string `json:"data_dir"`
	StateDir    string `json:"state_dir"`
	RuntimeDir  string `json:"runtime_dir"`
	Socket      string `json:"socket"`
	PidFile     string `json:"pid_file"`
	LogFile     string `json:"log_file"`
	PresetsDir  string `json:"presets_dir"`
	SessionsDir string `json:"sessions_dir"`
}

func NewPathsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Print the paths used by layman as JSON",
		Long: `Print the paths used by layman as JSON.

LAYMAN_HOME relocates every directory under one root. Otherwise the XDG
base directories apply:
- config_dir: config.toml
- data_dir: presets and sessions
- state_dir: the pid file and the daemon log
- runtime_dir: the control socket`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := PathsOutput{
				ConfigFile:  cli.GetOptions(cmd).ConfigPath(),
				ConfigDir:   paths.ConfigDir(),
				DataDir:     paths.DataDir(),
				StateDir:    paths.StateDir(),
				RuntimeDir:  paths.RuntimeDir(),
				Socket:      cli.SocketPath(cmd),
				PidFile:     paths.PidFilePath(),
				LogFile:     config.Default().Logging.File.Path,
				PresetsDir:  paths.PresetsDir(),
				SessionsDir: paths.SessionsDir(),
			}
			if cfg, err := cli.LoadConfig(cmd); err == nil {
				output.LogFile = cfg.Logging.File.Path
			}

			jsonData, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal paths to JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
			return nil
		},
	}

	return cmd
}
