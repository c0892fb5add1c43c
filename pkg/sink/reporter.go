// Package sink publishes the result of a traversal through a pull-based HTTP
// endpoint and a push-based log sink.
package sink

import (
	"context"
	"errors"
	"expvar"
	"net"
	"net/http"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/srodi/procreport/pkg/report"
)

const shutdownTimeout = 5 * time.Second

// Walker produces the store of one traversal.
type Walker interface {
	Walk(ctx context.Context) (*report.Store, error)
}

// Reporter owns the lifecycle of one report: Initialize walks the processes
// and publishes the result, Shutdown withdraws it.
type Reporter struct {
	walker    Walker
	logSink   *LogSink
	transport string

	mu       sync.RWMutex
	store    *report.Store
	listener net.Listener
	srv      *http.Server
}

// Option customizes a Reporter.
type Option func(*Reporter)

// WithTransport serves the report over HTTP on the given TCP address.
func WithTransport(addr string) Option {
	return func(r *Reporter) {
		r.transport = addr
	}
}

// WithLogSink pushes the report into the given log sink on initialization.
func WithLogSink(s *LogSink) Option {
	return func(r *Reporter) {
		r.logSink = s
	}
}

// NewReporter builds a reporter around walker.
func NewReporter(walker Walker, opts ...Option) *Reporter {
	r := &Reporter{walker: walker}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Initialize performs the traversal, starts the report endpoint and writes the
// report to the log sink. On failure nothing is published.
func (r *Reporter) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.store != nil {
		return errors.New("reporter already initialized")
	}

	store, err := r.walker.Walk(ctx)
	if err != nil {
		return pkgerrors.Wrap(err, "unable to build process report")
	}

	var listener net.Listener
	if r.transport != "" {
		listener, err = net.Listen("tcp", r.transport)
		if err != nil {
			return pkgerrors.Wrapf(err, "unable to listen on %s", r.transport)
		}
	}

	r.store = store
	if r.logSink != nil {
		r.logSink.Write(store)
	}
	if listener != nil {
		r.serve(listener)
	}
	return nil
}

func (r *Reporter) serve(listener net.Listener) {
	mux := http.NewServeMux()
	mux.Handle(ReportPath, reportHandler(r.Store))
	mux.Handle("/debug/vars", expvar.Handler())

	r.listener = listener
	r.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func(srv *http.Server) {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("unable to serve the process report: %v", err)
		}
	}(r.srv)
	log.Infof("process report available at http://%s%s", listener.Addr(), ReportPath)
}

// Store returns the published store, or nil before Initialize and after Shutdown.
func (r *Reporter) Store() *report.Store {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store
}

// Addr returns the address the report endpoint listens on, or nil.
func (r *Reporter) Addr() net.Addr {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// Shutdown stops the report endpoint and releases the store.
func (r *Reporter) Shutdown() error {
	r.mu.Lock()
	srv := r.srv
	r.srv = nil
	r.listener = nil
	r.store = nil
	r.mu.Unlock()

	var err error
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = srv.Shutdown(ctx)
	}
	log.Info("procreport: performing cleanup of report sinks")
	return err
}
