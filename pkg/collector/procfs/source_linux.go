//go:build linux
// +build linux

package procfs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/srodi/procreport/pkg/types"
)

// DefaultRoot is where procfs is mounted.
const DefaultRoot = "/proc"

// geteuid allows tests to pretend to run with or without privileges.
var geteuid = unix.Geteuid

var privilegeWarning sync.Once

// Source lists the processes found under a procfs mount.
type Source struct {
	root string
}

// NewSource returns a process source reading from root. An empty root
// defaults to /proc.
func NewSource(root string) (*Source, error) {
	if root == "" {
		root = DefaultRoot
	}
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("procfs not available at %s: %w", root, err)
	}
	return &Source{root: root}, nil
}

// Processes returns every process under the proc root ordered by PID. Kernel
// threads are listed without an address space.
func (s *Source) Processes() ([]types.Process, error) {
	if geteuid() != 0 {
		privilegeWarning.Do(func() {
			log.Warn("not running as root: pagemap hides page frame numbers, every page will read as not resident")
		})
	}

	dirs, err := filepath.Glob(filepath.Join(s.root, "[0-9]*"))
	if err != nil {
		return nil, err
	}

	pids := make([]int, 0, len(dirs))
	for _, dir := range dirs {
		pid, err := strconv.Atoi(filepath.Base(dir))
		if err != nil || pid <= 0 {
			continue
		}
		pids = append(pids, pid)
	}
	sort.Ints(pids)

	procs := make([]types.Process, 0, len(pids))
	for _, pid := range pids {
		proc := types.Process{PID: pid, Comm: commForPID(s.root, pid)}
		if !isKernelThread(s.root, pid) {
			proc.Space = newAddressSpace(s.root, pid)
		}
		procs = append(procs, proc)
	}
	return procs, nil
}
