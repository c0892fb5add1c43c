package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/srodi/procreport/pkg/collector/procfs"
	"github.com/srodi/procreport/pkg/collector/snapshot"
	"github.com/srodi/procreport/pkg/config"
	"github.com/srodi/procreport/pkg/pagetable"
	"github.com/srodi/procreport/pkg/report"
	"github.com/srodi/procreport/pkg/sink"
	"github.com/srodi/procreport/pkg/ui"
	logutil "github.com/srodi/procreport/pkg/util/log"
	"github.com/srodi/procreport/pkg/walker"
)

var cfg = config.New()

var rootCmd = &cobra.Command{
	Use:   "procreport",
	Short: "Report how physically contiguous the memory of running processes is",
	Long: `
	procreport walks the memory regions of every process above a PID threshold,
	resolves each resident page to its physical frame and counts how many pages
	directly follow the frame resolved before them. The report is printed,
	written to the log and optionally served over HTTP at /proc_report.
	`,
	SilenceUsage: true,
	RunE:         run,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		defer closeLogs()
		return cfg.Print(os.Stdout)
	},
}

func init() {
	cfg.MustViperize(rootCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() error {
	if file := cfg.GetConfigFile(); file != "" {
		if err := cfg.TryLoadFile(file); err != nil {
			return fmt.Errorf("unable to load config file %s: %v", file, err)
		}
	}
	if err := cfg.Init(); err != nil {
		return err
	}
	return logutil.InitFromConfig(cfg.Log)
}

func closeLogs() {
	if err := logutil.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "unable to close log files: %v\n", err)
	}
}

// newSource picks the snapshot replay when one is configured and the live
// procfs otherwise. The returned page size is the step the walker uses.
func newSource(c *config.Config) (walker.Source, uint64, error) {
	if c.Snapshot != "" {
		src, err := snapshot.Load(c.Snapshot)
		if err != nil {
			return nil, 0, err
		}
		return src, pagetable.PageSize, nil
	}
	src, err := procfs.NewSource(c.ProcRoot)
	if err != nil {
		return nil, 0, err
	}
	return src, uint64(os.Getpagesize()), nil
}

func newWalker(c *config.Config, source walker.Source, pageSize uint64) *walker.Walker {
	return walker.New(source, walker.Config{Threshold: c.Threshold, PageSize: pageSize})
}

// reporterOptions always pushes the report to the log and registers the pull
// sink whenever a transport is configured. Serving only keeps it alive.
func reporterOptions(c *config.Config) []sink.Option {
	opts := []sink.Option{sink.WithLogSink(sink.NewLogSink(log.WithField("sink", "report")))}
	if c.API.Transport != "" {
		opts = append(opts, sink.WithTransport(c.API.Transport))
	}
	return opts
}

func run(cmd *cobra.Command, args []string) error {
	if err := initConfig(); err != nil {
		return err
	}
	defer closeLogs()

	source, pageSize, err := newSource(cfg)
	if err != nil {
		return err
	}
	reporter := sink.NewReporter(newWalker(cfg, source, pageSize), reporterOptions(cfg)...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := reporter.Initialize(ctx); err != nil {
		return err
	}
	defer func() {
		if err := reporter.Shutdown(); err != nil {
			log.Warnf("shutdown failed: %v", err)
		}
	}()

	printReport(os.Stdout, reporter.Store(), outputFormat(cfg.Output.Format), pageSize)

	if cfg.Serve {
		<-ctx.Done()
	}
	return nil
}

func outputFormat(format string) string {
	if format != "" {
		return format
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return config.FormatTable
	}
	return config.FormatPlain
}

func printReport(w io.Writer, store *report.Store, format string, pageSize uint64) {
	if format == config.FormatTable {
		fmt.Fprint(w, ui.Banner())
		report.RenderTable(w, store, pageSize)
		return
	}
	_, _ = report.WriteTo(w, store)
}
