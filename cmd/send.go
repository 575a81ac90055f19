package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/grovetools/layman/cli"
	"github.com/grovetools/layman/pkg/daemon"
	"github.com/spf13/cobra"
)

// NewSendCmd returns the command that forwards one command line to the
// running daemon and prints its reply.
func NewSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <command>...",
		Short: "Send a command to the running daemon",
		Long: `Send a command line to the daemon and print its reply. Several commands
may be joined with ';'. Words after the first argument are passed through
unchanged, flags included.

Examples:
  layman send layout set MasterStack
  layman send 'stack toggle; master add'
  layman send window focus previous
  layman send status --json
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := daemon.New(cli.SocketPath(cmd))
			if err != nil {
				return err
			}
			defer client.Close()

			line := strings.Join(args, " ")
			cli.GetLogger(cmd).WithField("command", line).Debug("Sending command")

			reply, err := client.Send(context.Background(), line)
			if err != nil {
				return err
			}
			return printReply(cmd, reply)
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// printReply writes a daemon reply. Replies starting with "Error:" go to
// stderr and fail the command.
func printReply(cmd *cobra.Command, reply string) error {
	if strings.HasPrefix(reply, "Error:") {
		fmt.Fprintln(cmd.ErrOrStderr(), reply)
		return ErrSilent
	}
	if reply != "" {
		fmt.Fprintln(cmd.OutOrStdout(), reply)
	}
	return nil
}
