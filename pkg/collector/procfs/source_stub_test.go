//go:build !linux

package procfs

import (
	"errors"
	"testing"
)

func TestProcfsStubSourceBehavior(t *testing.T) {
	if _, err := NewSource(""); !errors.Is(err, errUnsupported) {
		t.Fatalf("expected errUnsupported, got %v", err)
	}

	var s Source
	if procs, err := s.Processes(); err != errUnsupported || procs != nil {
		t.Fatalf("processes should fail with errUnsupported, got procs=%v err=%v", procs, err)
	}
}
