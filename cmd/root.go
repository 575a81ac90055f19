// Package cmd implements the layman command line.
package cmd

import (
	stderrors "errors"

	"github.com/grovetools/layman/cli"
	"github.com/spf13/cobra"
)

// ErrSilent makes the process exit non-zero after a command already
// reported the failure itself.
var ErrSilent = stderrors.New("silent failure")

// NewRootCmd builds the layman command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := cli.NewStandardCommand(
		"layman",
		"Tiling layout manager daemon for i3 and sway",
	)
	rootCmd.Long = `layman listens to i3/sway window events and arranges each workspace
according to its configured layout. Commands reach the daemon through
'layman send' or a 'nop layman <command>' key binding.

Examples:
  # Run the daemon in the foreground
  layman daemon start

  # Switch the focused workspace to the master/stack layout
  layman send layout set MasterStack

  # Show what the daemon manages
  layman send status
`
	cli.SetVersionTemplate(rootCmd)

	rootCmd.AddCommand(NewDaemonCmd())
	rootCmd.AddCommand(NewSendCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewLogsCmd())
	rootCmd.AddCommand(NewPathsCmd())
	rootCmd.AddCommand(NewBindingsCmd())
	rootCmd.AddCommand(cli.NewVersionCommand("layman"))

	return rootCmd
}
