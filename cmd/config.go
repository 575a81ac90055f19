package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/grovetools/layman/cli"
	"github.com/grovetools/layman/config"
	"github.com/grovetools/layman/internal/layout/builtin"
	"github.com/grovetools/layman/internal/orchestrator"
	"github.com/grovetools/layman/logging"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

// starterConfig is written by 'config init'.
const starterConfig = `# layman configuration. Edits are picked up while the daemon runs.

[layman]
# Layout for workspaces without their own entry: none, splitv, splith,
# tabbed, stacking, MasterStack or a [layout.<name>] variant.
defaultLayout = "MasterStack"
# Workspace names or glob patterns layman leaves alone.
excludeWorkspaces = []

masterWidth = 50
stackSide = "right"
stackLayout = "splitv"
visibleStackLimit = 3
masterCount = 1

# [workspace.3]
# defaultLayout = "splith"

# [layout.Wide]
# base = "MasterStack"
# masterWidth = 70

[logging]
level = "info"
`

// NewConfigCmd returns the config command with its subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate config.toml",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigValidateCmd())
	cmd.AddCommand(newConfigSchemaCmd())
	cmd.AddCommand(newConfigInitCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration, defaults applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if cli.GetOptions(cmd).JSONOutput {
				data, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			data, err := toml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			if cfg.Path != "" {
				fmt.Fprintf(out, "# Source: %s\n", cfg.Path)
			} else {
				fmt.Fprintln(out, "# Source: defaults")
			}
			fmt.Fprint(out, string(data))
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check config.toml, including its layout names",
		Long: `Parse config.toml, check it against the schema and the knob rules, and
make sure every defaultLayout and variant base names a known layout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			path := opts.ConfigPath()

			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if _, err := orchestrator.New(nil, builtin.NewRegistry(), config.NewOptions(cfg), cli.GetLogger(cmd)); err != nil {
				return err
			}

			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			pretty.Success("Configuration is valid")
			pretty.Path("File", path)
			return nil
		},
	}
}

func newConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of config.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cli.GetOptions(cmd).ConfigPath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}
			if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout()).Success("Wrote " + path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
