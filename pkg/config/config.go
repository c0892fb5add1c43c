// Package config builds the procreport configuration from flags, environment
// variables and an optional configuration file.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/srodi/procreport/pkg/types"
	"github.com/srodi/procreport/pkg/util/log"
)

const (
	configFile   = "config-file"
	threshold    = "threshold"
	procRoot     = "proc-root"
	snapshot     = "snapshot"
	serve        = "serve"
	apiTransport = "api.transport"
	outputFormat = "output.format"

	envPrefix = "procreport"
)

// Output formats for the console copy of the report.
const (
	FormatPlain = "plain"
	FormatTable = "table"
)

// APIConfig controls the HTTP endpoint that serves the report.
type APIConfig struct {
	// Transport is the TCP address the endpoint listens on. Empty disables it.
	Transport string `json:"transport" yaml:"transport"`
}

// OutputConfig controls the console copy of the report.
type OutputConfig struct {
	// Format is plain or table. Empty selects table on terminals and plain otherwise.
	Format string `json:"format" yaml:"format"`
}

// Config stores the configuration options of procreport.
type Config struct {
	// Threshold is the PID a process must exceed to be reported.
	Threshold int `json:"threshold" yaml:"threshold"`
	// ProcRoot is where procfs is mounted.
	ProcRoot string `json:"proc-root" yaml:"proc-root"`
	// Snapshot is a YAML snapshot replayed instead of reading procfs.
	Snapshot string `json:"snapshot" yaml:"snapshot"`
	// Serve keeps the report endpoint running until the process is signalled.
	Serve bool `json:"serve" yaml:"serve"`
	// API stores the report endpoint preferences.
	API APIConfig `json:"api" yaml:"api"`
	// Output stores the console output preferences.
	Output OutputConfig `json:"output" yaml:"output"`
	// Log contains log-specific configuration options.
	Log log.Config `json:"logging" yaml:"logging"`

	flags *pflag.FlagSet
	viper *viper.Viper
}

// New builds a configuration store that reads flags, PROCREPORT_ prefixed
// environment variables and an optional configuration file.
func New() *Config {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	c := &Config{
		flags: new(pflag.FlagSet),
		viper: v,
	}
	c.addFlags()
	return c
}

func (c *Config) addFlags() {
	c.flags.String(configFile, "", "Indicates the location of the configuration file (yaml|json)")
	c.flags.Int(threshold, types.DefaultThreshold, "Only processes with a PID above this value are reported")
	c.flags.String(procRoot, "/proc", "Specifies where procfs is mounted")
	c.flags.String(snapshot, "", "Replays a YAML process snapshot instead of reading procfs")
	c.flags.Bool(serve, false, "Keeps serving the report until interrupted")
	c.flags.String(apiTransport, "localhost:9650", "Specifies the address the report endpoint listens on. Empty disables the endpoint")
	c.flags.String(outputFormat, "", "Specifies the console output format (plain|table). Defaults to table on terminals")
	c.Log.AddFlags(c.flags)
}

// MustViperize adds the flag set to the Cobra command and binds the flags within Viper.
func (c *Config) MustViperize(cmd *cobra.Command) {
	cmd.PersistentFlags().AddFlagSet(c.flags)
	if err := c.viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		panic(err)
	}
}

// GetConfigFile gets the path of the configuration file.
func (c *Config) GetConfigFile() string {
	return c.viper.GetString(configFile)
}

// TryLoadFile attempts to load the configuration file from the specified path.
func (c *Config) TryLoadFile(file string) error {
	c.viper.SetConfigFile(file)
	return c.viper.ReadInConfig()
}

// Init sets up the configuration state from Viper and validates it.
func (c *Config) Init() error {
	c.Threshold = c.viper.GetInt(threshold)
	c.ProcRoot = c.viper.GetString(procRoot)
	c.Snapshot = c.viper.GetString(snapshot)
	c.Serve = c.viper.GetBool(serve)
	c.API.Transport = c.viper.GetString(apiTransport)
	c.Output.Format = c.viper.GetString(outputFormat)
	c.Log.InitFromViper(c.viper)
	return c.Validate()
}

// Validate ensures the options hold the expected values.
func (c *Config) Validate() error {
	if c.Threshold < 0 {
		return fmt.Errorf("%s: must not be negative, got %d", threshold, c.Threshold)
	}
	switch c.Output.Format {
	case "", FormatPlain, FormatTable:
	default:
		return fmt.Errorf("%s: unknown format %q", outputFormat, c.Output.Format)
	}
	if c.Serve && c.API.Transport == "" {
		return fmt.Errorf("%s: serving requires %s", serve, apiTransport)
	}
	return nil
}

// Print writes the effective configuration as YAML.
func (c *Config) Print(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}
