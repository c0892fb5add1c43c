package sink

import (
	"github.com/sirupsen/logrus"

	"github.com/srodi/procreport/pkg/report"
)

// LogSink pushes a rendered report into a logger, one entry per line.
type LogSink struct {
	logger logrus.FieldLogger
}

// NewLogSink returns a sink writing to logger. A nil logger writes through
// the standard logrus logger.
func NewLogSink(logger logrus.FieldLogger) *LogSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogSink{logger: logger}
}

// Write appends every non-empty report line to the log.
func (s *LogSink) Write(store *report.Store) {
	for _, line := range report.Lines(store) {
		if line == "" {
			continue
		}
		s.logger.Info(line)
	}
}
