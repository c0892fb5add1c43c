package log

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	logLevel      = "logging.level"
	logMaxAge     = "logging.max-age"
	logMaxBackups = "logging.max-backups"
	logMaxSize    = "logging.max-size"
	logFormatter  = "logging.formatter"
	logPath       = "logging.path"
	logConsole    = "logging.console"
	logSyslog     = "logging.syslog"
)

// Config contains the settings that control the behaviour of the logging system.
type Config struct {
	// Level specifies the minimum allowed log level.
	Level string `json:"level" yaml:"level"`
	// MaxAge is the maximum number of days to retain old log files.
	MaxAge int `json:"max-age" yaml:"max-age"`
	// MaxBackups is the maximum number of old log files to retain.
	MaxBackups int `json:"max-backups" yaml:"max-backups"`
	// MaxSize is the maximum size in megabytes of the log file before it gets rotated.
	MaxSize int `json:"max-size" yaml:"max-size"`
	// Formatter represents the log formatter (json | text).
	Formatter string `json:"formatter" yaml:"formatter"`
	// Path is the directory where procreport.log is written. Empty disables the log file.
	Path string `json:"path" yaml:"path"`
	// Console indicates whether log lines are written to stderr.
	Console bool `json:"console" yaml:"console"`
	// Syslog indicates whether log lines are forwarded to the system logger.
	Syslog bool `json:"syslog" yaml:"syslog"`
}

// InitFromViper initializes logging configuration from Viper.
func (c *Config) InitFromViper(v *viper.Viper) {
	c.Level = v.GetString(logLevel)
	c.MaxAge = v.GetInt(logMaxAge)
	c.MaxBackups = v.GetInt(logMaxBackups)
	c.MaxSize = v.GetInt(logMaxSize)
	c.Formatter = v.GetString(logFormatter)
	c.Path = v.GetString(logPath)
	c.Console = v.GetBool(logConsole)
	c.Syslog = v.GetBool(logSyslog)
}

// AddFlags registers persistent logging flags.
func (c *Config) AddFlags(flags *pflag.FlagSet) {
	flags.String(logLevel, "info", "Specifies the minimum allowed log level")
	flags.Int(logMaxAge, 0, "Sets the maximum number of days to retain old log files. By default no old log files are removed")
	flags.Int(logMaxBackups, 5, "Specifies the maximum number of old log files to retain")
	flags.Int(logMaxSize, 50, "Specifies the maximum size in megabytes of the log file before it gets rotated")
	flags.String(logFormatter, "text", "Represents the log formatter (json|text)")
	flags.String(logPath, "", "Specifies the directory for the procreport.log file. Empty disables file logging")
	flags.Bool(logConsole, true, "Indicates whether log lines are written to stderr")
	flags.Bool(logSyslog, false, "Indicates whether log lines are forwarded to the system logger")
}
