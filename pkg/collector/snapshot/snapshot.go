// Package snapshot replays a recorded process and page table layout from a
// YAML document so reports can be produced without a live procfs.
package snapshot

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/srodi/procreport/pkg/pagetable"
	"github.com/srodi/procreport/pkg/types"
)

// Document is the YAML layout of a snapshot.
type Document struct {
	Processes []Process `yaml:"processes"`
}

// Process describes one recorded process. Kernel processes have no address space.
type Process struct {
	PID     int      `yaml:"pid"`
	Comm    string   `yaml:"comm"`
	Kernel  bool     `yaml:"kernel,omitempty"`
	Regions []Region `yaml:"regions,omitempty"`
}

// Region describes one memory region. Pages lists the physical address backing
// each page from Start onwards; zero marks a page that is not resident.
type Region struct {
	Start uint64   `yaml:"start"`
	End   uint64   `yaml:"end"`
	Perms string   `yaml:"perms,omitempty"`
	Path  string   `yaml:"path,omitempty"`
	Pages []uint64 `yaml:"pages,omitempty"`
}

// Source serves the processes of a snapshot document.
type Source struct {
	doc Document
}

// Load reads and validates a snapshot file.
func Load(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open snapshot")
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads and validates a snapshot document.
func Decode(r io.Reader) (*Source, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "unable to decode snapshot")
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &Source{doc: doc}, nil
}

func (d Document) validate() error {
	for _, p := range d.Processes {
		for _, r := range p.Regions {
			if r.Start%pagetable.PageSize != 0 {
				return fmt.Errorf("pid %d: region start %#x is not page aligned", p.PID, r.Start)
			}
			if r.End < r.Start {
				return fmt.Errorf("pid %d: region %#x-%#x ends before it starts", p.PID, r.Start, r.End)
			}
			pages := (r.End - r.Start + pagetable.PageSize - 1) / pagetable.PageSize
			if uint64(len(r.Pages)) > pages {
				return fmt.Errorf("pid %d: region %#x-%#x lists %d pages but spans %d", p.PID, r.Start, r.End, len(r.Pages), pages)
			}
			for _, phys := range r.Pages {
				if phys%pagetable.PageSize != 0 {
					return fmt.Errorf("pid %d: physical address %#x is not page aligned", p.PID, phys)
				}
				if phys&^pagetable.PhysAddrMask != 0 {
					return fmt.Errorf("pid %d: physical address %#x exceeds the addressable range", p.PID, phys)
				}
			}
		}
	}
	return nil
}

// Processes builds fresh in-memory page tables for every recorded process.
func (s *Source) Processes() ([]types.Process, error) {
	procs := make([]types.Process, 0, len(s.doc.Processes))
	for _, p := range s.doc.Processes {
		proc := types.Process{PID: p.PID, Comm: p.Comm}
		if !p.Kernel {
			proc.Space = newSpace(p.Regions)
		}
		procs = append(procs, proc)
	}
	return procs, nil
}

type space struct {
	*pagetable.Memory
	regions []types.Region
}

func newSpace(regions []Region) *space {
	s := &space{Memory: pagetable.NewMemory()}
	for _, r := range regions {
		s.regions = append(s.regions, types.Region{Start: r.Start, End: r.End, Perms: r.Perms, Path: r.Path})
		for i, phys := range r.Pages {
			if phys == 0 {
				continue
			}
			s.Map(r.Start+uint64(i)*pagetable.PageSize, phys, pagetable.FlagUser)
		}
	}
	return s
}

// Regions implements types.AddressSpace.
func (s *space) Regions() ([]types.Region, error) {
	return s.regions, nil
}

// Close implements types.AddressSpace.
func (s *space) Close() error {
	return nil
}
