package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/layman/cli"
	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"
)

var (
	logErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	logWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	logInfoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	logMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	logAccent     = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// logFilter selects which lines of the daemon log are printed.
type logFilter struct {
	component string
	level     string
}

// NewLogsCmd creates the `logs` command.
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log",
		Long: `Print the daemon log file named by logging.file.path. JSON lines, written
when logging.format.preset is "json", are pretty-printed and can be
filtered by component and level.

Examples:
  # Follow the log
  layman logs -f

  # Last 100 lines from the master/stack layout
  layman logs -n 100 --component masterstack
`,
		Args: cobra.NoArgs,
		RunE: runLogsE,
	}

	cmd.Flags().BoolP("follow", "f", false, "Follow log output")
	cmd.Flags().IntP("lines", "n", 50, "Number of lines to show from the end of the log (-1 for all)")
	cmd.Flags().String("component", "", "Only show lines from this component")
	cmd.Flags().String("level", "", "Only show lines at this level")

	return cmd
}

func runLogsE(cmd *cobra.Command, args []string) error {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return err
	}
	path := cfg.Logging.File.Path
	logger := cli.GetLogger(cmd).WithField("log_file", path)

	follow, _ := cmd.Flags().GetBool("follow")
	lines, _ := cmd.Flags().GetInt("lines")
	component, _ := cmd.Flags().GetString("component")
	level, _ := cmd.Flags().GetString("level")
	filter := logFilter{component: component, level: strings.ToLower(level)}
	asJSON := cli.GetOptions(cmd).JSONOutput
	out := cmd.OutOrStdout()

	emit := func(line string) {
		if rendered, ok := renderLogLine(line, filter, asJSON); ok {
			fmt.Fprintln(out, rendered)
		}
	}

	if _, err := os.Stat(path); err != nil && !follow {
		return fmt.Errorf("no log file at %s", path)
	}

	if err := printLastLines(path, lines, emit); err != nil && !os.IsNotExist(err) {
		return err
	}
	if !follow {
		return nil
	}

	logger.Debug("Following log file")
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
		Logger:    stdlog.New(io.Discard, "", 0),
	})
	if err != nil {
		return fmt.Errorf("cannot follow %s: %w", path, err)
	}
	defer t.Cleanup()

	for line := range t.Lines {
		if line.Err != nil {
			logger.Debugf("Error reading line: %v", line.Err)
			continue
		}
		emit(line.Text)
	}
	return t.Err()
}

// printLastLines calls emit for the last n lines of path, or all of them
// when n is negative.
func printLastLines(path string, n int, emit func(string)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var ring []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		ring = append(ring, scanner.Text())
		if n >= 0 && len(ring) > n {
			ring = ring[1:]
		}
	}
	for _, line := range ring {
		if line != "" {
			emit(line)
		}
	}
	return scanner.Err()
}

// renderLogLine formats one log line. Lines that are not JSON are returned
// as they are, matched against the text formatter's markers. ok is false
// when the line is filtered out.
func renderLogLine(line string, filter logFilter, asJSON bool) (rendered string, ok bool) {
	var logMap map[string]any
	if err := json.Unmarshal([]byte(line), &logMap); err != nil {
		if filter.level != "" && !strings.Contains(line, "["+textLevel(filter.level)+"]") {
			return "", false
		}
		if filter.component != "" && !strings.Contains(line, filter.component) {
			return "", false
		}
		return line, true
	}

	level, _ := logMap["level"].(string)
	component, _ := logMap["component"].(string)
	if filter.component != "" && component != filter.component {
		return "", false
	}
	if filter.level != "" && textLevel(strings.ToLower(level)) != textLevel(filter.level) {
		return "", false
	}

	if asJSON {
		return line, true
	}

	ts, _ := logMap["time"].(string)
	msg, _ := logMap["msg"].(string)

	timeStr := ts
	if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		timeStr = parsed.Format("15:04:05")
	}

	var levelStyle lipgloss.Style
	switch strings.ToLower(level) {
	case "error", "fatal", "panic":
		levelStyle = logErrorStyle
	case "warning", "warn":
		levelStyle = logWarnStyle
	case "info":
		levelStyle = logInfoStyle
	default:
		levelStyle = logMutedStyle
	}

	var keys []string
	for k := range logMap {
		switch k {
		case "time", "level", "msg", "component":
		default:
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	fields := make([]string, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, fmt.Sprintf("%s=%v", logMutedStyle.Render(k), logMap[k]))
	}

	rendered = fmt.Sprintf("%s %s [%s] %s", timeStr,
		levelStyle.Render(strings.ToUpper(level)),
		logAccent.Render(component),
		msg)
	if len(fields) > 0 {
		rendered += " " + strings.Join(fields, " ")
	}
	return rendered, true
}

// textLevel is the level marker the text formatter writes.
func textLevel(level string) string {
	if level == "warning" {
		level = "warn"
	}
	return strings.ToUpper(level)
}
