package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/grovetools/layman/cli"
	"github.com/grovetools/layman/pkg/keymap"
	"github.com/spf13/cobra"
)

// NewBindingsCmd prints suggested key bindings for the i3/sway config.
func NewBindingsCmd() *cobra.Command {
	var mod string
	cmd := &cobra.Command{
		Use:   "bindings",
		Short: "Print suggested i3/sway key bindings",
		Long: `Print bindsym lines that drive layman through 'nop layman' commands.
Paste them into the i3 or sway config.

Examples:
  layman bindings >> ~/.config/sway/config.d/layman
  layman bindings --mod Mod1
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			groups := keymap.DefaultGroups()
			if cli.GetOptions(cmd).JSONOutput {
				data, err := json.MarshalIndent(groups, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal bindings: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			return keymap.Render(cmd.OutOrStdout(), groups, mod)
		},
	}
	cmd.Flags().StringVar(&mod, "mod", keymap.DefaultMod, "Modifier prepended to every chord")
	return cmd
}
