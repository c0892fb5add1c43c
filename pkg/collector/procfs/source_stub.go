//go:build !linux
// +build !linux

package procfs

import (
	"errors"

	"github.com/srodi/procreport/pkg/types"
)

// DefaultRoot is where procfs is mounted on Linux.
const DefaultRoot = "/proc"

var errUnsupported = errors.New("procfs source requires linux")

// Source is a placeholder on non-Linux platforms.
type Source struct{}

// NewSource returns an error because procfs only exists on Linux.
func NewSource(root string) (*Source, error) {
	return nil, errUnsupported
}

// Processes always fails on unsupported platforms.
func (s *Source) Processes() ([]types.Process, error) {
	return nil, errUnsupported
}
