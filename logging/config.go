package logging

// Config defines the [logging] table of config.toml.
type Config struct {
	// Level is the minimum log level to output (e.g., "debug", "info", "warn", "error").
	// Can be overridden by the LAYMAN_LOG_LEVEL environment variable.
	Level string `toml:"level,omitempty" yaml:"level,omitempty" jsonschema:"enum=trace,enum=debug,enum=info,enum=warn,enum=warning,enum=error"`

	// ReportCaller, if true, includes the file, line, and function name in the log output.
	// Can be enabled with the LAYMAN_LOG_CALLER=true environment variable.
	ReportCaller bool `toml:"report_caller,omitempty" yaml:"report_caller,omitempty"`

	// Components overrides the level per component, e.g. masterstack = "debug".
	Components map[string]string `toml:"components,omitempty" yaml:"components,omitempty"`

	// File configures logging to a file.
	File FileSinkConfig `toml:"file,omitempty" yaml:"file,omitempty"`

	// Format configures the appearance of the log output.
	Format FormatConfig `toml:"format,omitempty" yaml:"format,omitempty"`
}

// FileSinkConfig configures the file logging sink.
type FileSinkConfig struct {
	// Enabled defaults to true for the daemon; set false to log to stderr only.
	Enabled *bool `toml:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Path is the full path to the log file.
	Path string `toml:"path,omitempty" yaml:"path,omitempty"`
}

// FormatConfig controls the log output format.
type FormatConfig struct {
	// Preset can be "default" (rich text), "simple" (minimal text), or "json".
	Preset string `toml:"preset,omitempty" yaml:"preset,omitempty" jsonschema:"enum=default,enum=simple,enum=json"`
	// DisableTimestamp disables the timestamp from the "default" and "simple" formats.
	DisableTimestamp bool `toml:"disable_timestamp,omitempty" yaml:"disable_timestamp,omitempty"`
	// DisableComponent disables the component name from the "default" and "simple" formats.
	DisableComponent bool `toml:"disable_component,omitempty" yaml:"disable_component,omitempty"`
	// StructuredToStderr controls when structured logs are sent to stderr.
	// Can be "auto" (default), "always", or "never".
	StructuredToStderr string `toml:"structured_to_stderr,omitempty" yaml:"structured_to_stderr,omitempty" jsonschema:"enum=auto,enum=always,enum=never"`
}

// FileEnabled reports whether the file sink is on. It defaults to on.
func (c Config) FileEnabled() bool {
	return c.File.Enabled == nil || *c.File.Enabled
}
