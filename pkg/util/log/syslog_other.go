//go:build windows || plan9

package log

import (
	"errors"

	"github.com/sirupsen/logrus"
)

func newSyslogHook() (logrus.Hook, error) {
	return nil, errors.New("syslog is not available on this platform")
}
