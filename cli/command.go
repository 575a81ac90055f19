// Package cli holds the cobra plumbing shared by layman's commands.
package cli

import (
	"github.com/grovetools/layman/config"
	"github.com/grovetools/layman/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommandOptions holds the persistent flags of every layman command.
type CommandOptions struct {
	ConfigFile string
	Socket     string
	Verbose    bool
	JSONOutput bool
}

// NewStandardCommand creates a command with the standard layman flags.
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to config.toml (default: $LAYMAN_CONFIG or the XDG config dir)")
	cmd.PersistentFlags().StringP("socket", "s", "", "Control socket path (default: socketPath from config)")

	SetStyledHelp(cmd)

	return cmd
}

// GetLogger returns the cli component logger, at debug level with --verbose.
func GetLogger(cmd *cobra.Command) *logrus.Entry {
	entry := logging.NewLogger("cli")
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		entry.Logger.SetLevel(logrus.DebugLevel)
	}
	return entry
}

// GetOptions extracts the standard flags from a command.
func GetOptions(cmd *cobra.Command) CommandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	socket, _ := cmd.Flags().GetString("socket")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return CommandOptions{
		ConfigFile: configFile,
		Socket:     socket,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
	}
}

// ConfigPath resolves the config file: the --config flag, else the default.
func (o CommandOptions) ConfigPath() string {
	if o.ConfigFile != "" {
		return o.ConfigFile
	}
	return config.DefaultPath()
}

// LoadConfig loads the config named by the flags. A missing file yields
// defaults unless --config was given explicitly.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	opts := GetOptions(cmd)
	if opts.ConfigFile != "" {
		return config.Load(opts.ConfigFile)
	}
	return config.LoadOrDefault(opts.ConfigPath(), GetLogger(cmd))
}

// SocketPath resolves the control socket: --socket, else the config's
// socketPath. Config errors fall back to the default path.
func SocketPath(cmd *cobra.Command) string {
	if s := GetOptions(cmd).Socket; s != "" {
		return s
	}
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return config.Default().Layman.SocketPath
	}
	return cfg.Layman.SocketPath
}
