package log

import (
	"errors"
	"expvar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	fs "github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"

	"github.com/srodi/procreport/pkg/util/log/rotate"
)

// FileName is the name of the log file created in the configured path.
const FileName = "procreport.log"

var loggerErrors = expvar.NewMap("logger.errors")

var (
	mu        sync.Mutex
	fileHooks []*rotate.File
)

// InitFromConfig configures the standard logrus logger from config options.
func InitFromConfig(c Config) error {
	return Configure(logrus.StandardLogger(), c)
}

// Configure applies the config options to the given logger.
func Configure(logger *logrus.Logger, c Config) error {
	var formatter logrus.Formatter
	switch c.Formatter {
	case "json":
		formatter = &logrus.JSONFormatter{}
	case "text", "":
		formatter = &logrus.TextFormatter{FullTimestamp: true}
	default:
		return fmt.Errorf("unknown log formatter %q", c.Formatter)
	}
	logger.SetFormatter(formatter)

	level := logrus.InfoLevel
	if c.Level != "" {
		var err error
		if level, err = logrus.ParseLevel(c.Level); err != nil {
			return err
		}
	}
	logger.SetLevel(level)

	if c.Console {
		logger.SetOutput(os.Stderr)
	} else {
		logger.SetOutput(io.Discard)
	}

	if c.Syslog {
		hook, err := newSyslogHook()
		if err != nil {
			loggerErrors.Add(err.Error(), 1)
			return fmt.Errorf("unable to connect to syslog: %v", err)
		}
		logger.AddHook(hook)
	}

	if c.Path == "" {
		return nil
	}
	if err := os.MkdirAll(c.Path, 0o755); err != nil {
		return fmt.Errorf("unable to create the %s logs directory: %v", c.Path, err)
	}
	file := filepath.Join(c.Path, FileName)

	rhook, err := rotate.NewHook(rotate.Config{
		MaxAge:     c.MaxAge,
		MaxBackups: c.MaxBackups,
		MaxSize:    c.MaxSize,
		Level:      level,
		Formatter:  formatter,
		Filename:   file,
	})
	if err != nil {
		loggerErrors.Add(err.Error(), 1)
		// fall back on a plain file hook without rotation
		var pathMap fs.PathMap = make(map[logrus.Level]string)
		for _, lvl := range logrus.AllLevels {
			pathMap[lvl] = file
		}
		logger.AddHook(fs.NewHook(pathMap, formatter))
		logger.Warnf("unable to initialize rotate file hook: %v", err)
		return nil
	}
	logger.AddHook(rhook)

	mu.Lock()
	fileHooks = append(fileHooks, rhook)
	mu.Unlock()

	return nil
}

// Close flushes and closes the log files opened by Configure.
func Close() error {
	mu.Lock()
	hooks := fileHooks
	fileHooks = nil
	mu.Unlock()

	var errs []error
	for _, hook := range hooks {
		if err := hook.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
