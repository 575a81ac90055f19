package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grovetools/layman/cli"
	"github.com/grovetools/layman/internal/daemon"
	"github.com/grovetools/layman/internal/daemon/pidfile"
	"github.com/grovetools/layman/logging"
	"github.com/grovetools/layman/pkg/paths"
	"github.com/grovetools/layman/pkg/process"
	"github.com/grovetools/layman/pkg/profiling"
	"github.com/spf13/cobra"
)

const stopTimeout = 5 * time.Second

// NewDaemonCmd returns the daemon command with its subcommands.
func NewDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run and control the layman daemon",
	}

	cmd.AddCommand(newDaemonStartCmd())
	cmd.AddCommand(newDaemonStopCmd())
	cmd.AddCommand(newDaemonStatusCmd())

	return cmd
}

func newDaemonStartCmd() *cobra.Command {
	profiler := profiling.NewCobraProfiler()
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the foreground",
		Long: `Start the layman daemon in the foreground. It connects to i3 or sway
(SWAYSOCK wins when set), opens the control socket and runs until it
receives SIGINT or SIGTERM.

Examples:
  # Start from the i3 config
  exec_always --no-startup-id layman daemon start

  # Record where time goes while reproducing a slow layout
  layman daemon start --timing --cpu-profile /tmp/layman.prof
`,
		Args:    cobra.NoArgs,
		PreRunE: profiler.PreRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer profiler.Finish(cmd)
			opts := cli.GetOptions(cmd)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err := daemon.Run(ctx, daemon.Options{
				ConfigPath: opts.ConfigPath(),
				Explicit:   opts.ConfigFile != "",
				Socket:     opts.Socket,
			})
			if err != nil {
				logging.NewLogger("layman").WithError(err).Error("Daemon exited")
			}
			return err
		},
	}
	profiler.AddFlags(cmd)
	return cmd
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pidPath := paths.PidFilePath()

			running, pid, err := pidfile.IsRunning(pidPath)
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}
			if !running {
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon is not running")
				return nil
			}

			stopped, err := process.Terminate(pid, stopTimeout)
			if err != nil {
				return fmt.Errorf("failed to stop daemon (pid %d): %w", pid, err)
			}
			if !stopped {
				return fmt.Errorf("daemon (pid %d) did not exit within %s", pid, stopTimeout)
			}
			logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout()).Success(fmt.Sprintf("Stopped daemon (pid %d)", pid))
			return nil
		},
	}
}

// daemonStatus is the --json form of 'daemon status'.
type daemonStatus struct {
	Running bool   `json:"running"`
	PID     int    `json:"pid,omitempty"`
	Socket  string `json:"socket"`
	PidFile string `json:"pidfile"`
}

func newDaemonStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check daemon status",
		Long:  "Report whether the daemon is running. Exits 1 when it is stopped.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pidPath := paths.PidFilePath()
			running, pid, err := pidfile.IsRunning(pidPath)
			if err != nil {
				return fmt.Errorf("error: %w", err)
			}

			status := daemonStatus{
				Running: running,
				PID:     pid,
				Socket:  cli.SocketPath(cmd),
				PidFile: pidPath,
			}
			out := cmd.OutOrStdout()

			if cli.GetOptions(cmd).JSONOutput {
				data, err := json.MarshalIndent(status, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			} else if running {
				fmt.Fprintf(out, "Running (PID: %d)\nSocket: %s\n", pid, status.Socket)
			} else {
				fmt.Fprintln(out, "Stopped")
			}

			if !running {
				return ErrSilent
			}
			return nil
		},
	}
}
