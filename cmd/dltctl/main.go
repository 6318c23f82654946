package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/huangweiliang/dlt-viewer-simplified/internal/batch"
	"github.com/huangweiliang/dlt-viewer-simplified/internal/cache"
	"github.com/huangweiliang/dlt-viewer-simplified/internal/common"
	"github.com/huangweiliang/dlt-viewer-simplified/internal/config"
	"github.com/huangweiliang/dlt-viewer-simplified/internal/dlt"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// errDifferent makes the process exit 1 without an error message, the way
// diff(1) reports differing inputs.
var errDifferent = errors.New("inputs differ")

type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	verbose    bool

	cfg       config.Config
	opts      dlt.Options
	logCloser io.Closer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errDifferent) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:   "dltctl",
		Short: "Decode DLT (Diagnostic Log and Trace) files",
		Long: `dltctl decodes binary DLT log files into readable records.

Damaged regions are skipped by resynchronizing on the next storage header,
and files of a batch are ordered by the first number in their names.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logCloser != nil {
				return a.logCloser.Close()
			}
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to YAML configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug details such as skipped arguments")

	root.AddCommand(
		a.newDecodeCmd(),
		a.newSortCmd(),
		a.newReportCmd(),
		a.newManifestCmd(),
		a.newDiffCmd(),
		a.newVersionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	a.cfg = cfg
	common.SetVerbose(a.verbose)
	logCfg := cfg.Logging()
	logCfg.Console = a.stderr
	closer, err := common.SetupLogging(logCfg)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	a.logCloser = closer
	opts, err := cfg.DecodeOptions()
	if err != nil {
		return fmt.Errorf("decode options: %w", err)
	}
	a.opts = opts
	return nil
}

// openCache returns nil when caching is disabled or the store cannot be
// opened; decoding then proceeds without it.
func (a *app) openCache(disabled bool) *cache.Store {
	if disabled || !a.cfg.Cache.Enabled {
		return nil
	}
	store, err := cache.Open(a.cfg.Cache.Directory)
	if err != nil {
		common.Logf("cache disabled: %v", err)
		return nil
	}
	return store
}

type batchFlags struct {
	progress bool
	noCache  bool
}

func (a *app) runBatch(ctx context.Context, paths []string, bf batchFlags) (batch.Result, error) {
	opts := batch.Options{Decode: a.opts}
	if store := a.openCache(bf.noCache); store != nil {
		defer store.Close()
		opts.Cache = store
	}
	if common.Verbose() {
		opts.Progress = func(done, total int) {
			common.Debugf("decoded %d/%d files", done, total)
		}
	}
	if bf.progress {
		metrics := common.NewMetrics()
		opts.Metrics = metrics
		stopProgress := common.StartProgressPrinter(a.stderr, metrics, 0)
		defer stopProgress()
	}
	return batch.ParseBatch(ctx, paths, opts)
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(a.stdout, "dltctl %s (built %s)\n", version, buildDate)
			return err
		},
	}
}
