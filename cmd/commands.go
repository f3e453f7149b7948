package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/olyrank/internal/adapters/http/api"
	"github.com/okian/olyrank/internal/adapters/http/swagger"
	"github.com/okian/olyrank/internal/adapters/loader"
	"github.com/okian/olyrank/internal/adapters/sink"
	app "github.com/okian/olyrank/internal/app"
	"github.com/okian/olyrank/internal/config"
	"github.com/okian/olyrank/pkg/logger"
	"github.com/okian/olyrank/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// overrides are command line values layered over the loaded config.
type overrides struct {
	resultsDir string
	outputDir  string
	badgerPath string
	divisions  string
	seasons    int
	addr       string
	skipRun    bool
}

func newRootCmd() *cobra.Command {
	var o overrides
	root := &cobra.Command{
		Use:           "olyrank",
		Short:         "Elo ratings for Science Olympiad teams across seasons",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&o.resultsDir, "results-dir", "", "directory of <name>_<division>.yaml result files")
	pf.StringVar(&o.outputDir, "output-dir", "", "directory receiving states<division>/ files")
	pf.StringVar(&o.badgerPath, "badger-path", "", "badger snapshot directory")
	pf.StringVar(&o.divisions, "divisions", "", "comma separated divisions, e.g. B,C")
	pf.IntVar(&o.seasons, "seasons", 0, "number of most recent seasons to rate; 0 keeps all")

	compute := &cobra.Command{
		Use:   "compute",
		Short: "Rate every division and write the outputs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompute(cmd, &o)
		},
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Rate every division and serve leaderboards over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, &o)
		},
	}
	serve.Flags().StringVar(&o.addr, "addr", "", "HTTP listen address")
	serve.Flags().BoolVar(&o.skipRun, "restore-only", false, "serve the badger snapshot without recomputing")

	root.AddCommand(compute, serve)
	return root
}

// loadConfig applies changed flags over config.Load and the log level.
func loadConfig(cmd *cobra.Command, o *overrides) (*config.Config, error) {
	ctx := cmd.Context()
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("results-dir") {
		cfg.ResultsDir = o.resultsDir
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = o.outputDir
	}
	if flags.Changed("badger-path") {
		cfg.BadgerPath = o.badgerPath
	}
	if flags.Changed("divisions") {
		cfg.Divisions = o.divisions
	}
	if flags.Changed("seasons") {
		cfg.SeasonsToInclude = o.seasons
	}
	if flags.Changed("addr") {
		cfg.Addr = o.addr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	metrics.Configure(metricsOptions(cfg)...)
	return cfg, nil
}

func metricsOptions(cfg *config.Config) []metrics.Option {
	return []metrics.Option{
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithMetricPrefix(cfg.MetricsPrefix),
		metrics.WithConstLabels(cfg.MetricsLabels),
		metrics.WithLatencyBuckets(cfg.MetricsLatencyBuckets),
	}
}

// newService wires the loader and sinks configured in cfg.
func newService(cfg *config.Config) (*app.Service, error) {
	log := logger.Get()
	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithSeasonsToInclude(cfg.SeasonsToInclude),
		app.WithResultsBaseURL(cfg.ResultsBaseURL),
		app.WithRatingParams(cfg.RatingParams()),
		app.WithReclassParams(cfg.ReclassParams()),
		app.WithLoader(loader.New(cfg.ResultsDir, loader.WithLogger(log.Named("loader")))),
	}
	if strings.TrimSpace(cfg.OutputDir) != "" {
		opts = append(opts, app.WithSinks(sink.NewFileSink(cfg.OutputDir, sink.WithFileLogger(log.Named("sink.files")))))
	}
	if strings.TrimSpace(cfg.BadgerPath) != "" {
		db, err := sink.OpenBadger(cfg.BadgerPath, sink.WithBadgerLogger(log.Named("sink.badger")))
		if err != nil {
			return nil, err
		}
		opts = append(opts, app.WithSinks(db), app.WithRestorer(db))
	}
	return app.New(opts...), nil
}

func runCompute(cmd *cobra.Command, o *overrides) error {
	cfg, err := loadConfig(cmd, o)
	if err != nil {
		return err
	}
	svc, err := newService(cfg)
	if err != nil {
		return err
	}
	defer svc.Stop()
	return svc.Compute(cmd.Context(), cfg.DivisionList())
}

func runServe(cmd *cobra.Command, o *overrides) error {
	ctx := cmd.Context()
	log := logger.Get()

	cfg, err := loadConfig(cmd, o)
	if err != nil {
		return err
	}
	svc, err := newService(cfg)
	if err != nil {
		return err
	}
	defer svc.Stop()

	divisions := cfg.DivisionList()
	if err := svc.Restore(ctx, divisions); err != nil {
		return err
	}
	if !o.skipRun {
		// A failed division keeps serving its restored snapshot.
		if err := svc.Compute(ctx, divisions); err != nil {
			log.Error(ctx, "initial compute failed", logger.Error(err))
		}
	}

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg.MaxLeaderboardLimit),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newMux registers the API docs and business routes.
func newMux(ctx context.Context, svc *app.Service, maxLimit int) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, maxLimit).Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater updates system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
