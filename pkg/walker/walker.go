package walker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/srodi/procreport/pkg/pagetable"
	"github.com/srodi/procreport/pkg/report"
	"github.com/srodi/procreport/pkg/types"
)

// Source enumerates the processes running on the system.
type Source interface {
	Processes() ([]types.Process, error)
}

// Config controls which processes are walked and how addresses are stepped.
type Config struct {
	// Threshold is the PID a process must exceed to be reported.
	Threshold int
	// PageSize is the step between walked virtual addresses.
	PageSize uint64
}

// Walker performs traversals over the processes of a Source.
type Walker struct {
	source    Source
	threshold int
	pageSize  uint64
}

// traversal carries the mutable state of a single walk.
type traversal struct {
	classifier *Classifier
	store      *report.Store
	log        *log.Entry
}

// New builds a walker. The threshold is used as given, so zero selects every
// process. A zero page size falls back to the base page size.
func New(source Source, cfg Config) *Walker {
	if cfg.PageSize == 0 {
		cfg.PageSize = pagetable.PageSize
	}
	return &Walker{source: source, threshold: cfg.Threshold, pageSize: cfg.PageSize}
}

// Eligible reports whether a process with the given PID gets a record.
func (w *Walker) Eligible(pid int) bool {
	return pid > w.threshold
}

// Walk performs one full traversal and returns the resulting store. A
// cancelled walk returns the context error and no store.
func (w *Walker) Walk(ctx context.Context) (*report.Store, error) {
	start := time.Now()
	t := &traversal{
		classifier: NewClassifier(w.pageSize),
		store:      report.NewStore(),
		log:        log.WithField("traversal", uuid.New().String()),
	}

	procs, err := w.source.Processes()
	if err != nil {
		return nil, errors.Wrap(err, "unable to enumerate processes")
	}

	for i, proc := range procs {
		if err := ctx.Err(); err != nil {
			closeSpaces(procs[i:])
			return nil, err
		}
		if !w.Eligible(proc.PID) {
			closeSpace(proc)
			continue
		}
		rec, err := w.walkProcess(ctx, t, proc)
		if err != nil {
			closeSpaces(procs[i+1:])
			return nil, err
		}
		t.store.Append(rec)
	}

	t.log.WithFields(log.Fields{
		"processes": len(procs),
		"records":   t.store.Len(),
		"contig":    t.store.TotalContig(),
		"noncontig": t.store.TotalNonContig(),
		"elapsed":   time.Since(start),
	}).Info("traversal complete")

	return t.store, nil
}

// walkProcess classifies every resident page of proc. Processes without an
// address space, or whose regions cannot be read, yield a zero record.
func (w *Walker) walkProcess(ctx context.Context, t *traversal, proc types.Process) (report.ProcessRecord, error) {
	rec := report.ProcessRecord{PID: proc.PID, Comm: proc.Comm}
	if proc.Space == nil {
		return rec, nil
	}
	defer closeSpace(proc)

	regions, err := proc.Space.Regions()
	if err != nil {
		t.log.WithError(err).WithField("pid", proc.PID).Debug("unable to read memory regions")
		return rec, nil
	}

	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			return rec, err
		}
		for va := region.Start; va < region.End; va += w.pageSize {
			if phys, ok := pagetable.Translate(proc.Space, va); ok {
				if t.classifier.Classify(phys) == Contiguous {
					rec.ContigPages++
				} else {
					rec.NonContigPages++
				}
			}
			if va+w.pageSize < va {
				break
			}
		}
	}

	t.log.WithFields(log.Fields{
		"pid":       proc.PID,
		"comm":      proc.Comm,
		"regions":   len(regions),
		"contig":    rec.ContigPages,
		"noncontig": rec.NonContigPages,
	}).Debug("process walked")

	return rec, nil
}

func closeSpace(proc types.Process) {
	if proc.Space == nil {
		return
	}
	if err := proc.Space.Close(); err != nil {
		log.WithError(err).WithField("pid", proc.PID).Debug("unable to release address space")
	}
}

func closeSpaces(procs []types.Process) {
	for _, proc := range procs {
		closeSpace(proc)
	}
}
