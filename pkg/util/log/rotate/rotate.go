// Package rotate provides a logrus hook that writes entries to a size-rotated file.
package rotate

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config is the configuration for the rotate file hook.
type Config struct {
	Filename   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Level      logrus.Level
	Formatter  logrus.Formatter
}

// File represents the rotate file hook.
type File struct {
	config Config
	mu     sync.Mutex
	w      *lumberjack.Logger
}

// NewHook builds a new rotate file hook.
func NewHook(config Config) (*File, error) {
	if config.Filename == "" {
		return nil, errors.New("rotate hook requires a file name")
	}
	if config.Formatter == nil {
		config.Formatter = &logrus.TextFormatter{}
	}
	return &File{
		config: config,
		w: &lumberjack.Logger{
			Filename:   config.Filename,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
		},
	}, nil
}

// Levels determines log levels for which the logs are written.
func (hook *File) Levels() []logrus.Level {
	return logrus.AllLevels[:hook.config.Level+1]
}

// Fire is called by logrus when it is about to write the log entry.
func (hook *File) Fire(entry *logrus.Entry) error {
	b, err := hook.config.Formatter.Format(entry)
	if err != nil {
		return err
	}
	hook.mu.Lock()
	defer hook.mu.Unlock()
	_, err = hook.w.Write(b)
	return err
}

// Close closes the current log file.
func (hook *File) Close() error {
	hook.mu.Lock()
	defer hook.mu.Unlock()
	return hook.w.Close()
}
