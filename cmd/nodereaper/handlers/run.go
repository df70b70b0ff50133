// Package handlers implements the execution logic behind the CLI commands.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/nodereaper/nodereaper/internal/analyzer"
	"github.com/nodereaper/nodereaper/internal/config"
	"github.com/nodereaper/nodereaper/internal/k8s"
	"github.com/nodereaper/nodereaper/internal/notify"
	"github.com/nodereaper/nodereaper/internal/reaper"
)

// RunOptions carries the run command's flag values. The *Set fields record
// whether a flag was given explicitly so it can override the config.
type RunOptions struct {
	ConfigPath     string
	KubeconfigPath string
	DryRun         bool
	DryRunSet      bool
	Interval       time.Duration
	IntervalSet    bool
	Once           bool
	MetricsAddr    string
}

// Run handles the run command: it resolves configuration, wires the reaper
// and executes either a single pass or the interval loop.
func Run(ctx context.Context, opts RunOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.DryRunSet {
		cfg.DryRun = opts.DryRun
	}
	if opts.IntervalSet {
		cfg.Interval = opts.Interval
	}
	if opts.Once {
		cfg.Interval = 0
	}
	if opts.MetricsAddr != "" {
		cfg.MetricsAddr = opts.MetricsAddr
	}

	log, flush, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer flush()

	log.Info("starting nodereaper",
		"dryRun", cfg.DryRun,
		"nodeMinAge", cfg.NodeMinAge.String(),
		"deletionTimeout", cfg.DeletionTimeout.String(),
		"cluster", cfg.ClusterName,
	)

	client, err := k8s.NewClient(opts.KubeconfigPath, log.WithName("k8s"))
	if err != nil {
		return err
	}
	if err := client.Ping(ctx); err != nil {
		log.Error(err, "cannot connect to kubernetes cluster")
		return err
	}

	r := reaper.New(
		client,
		analyzer.New(analyzer.Policy{
			ClusterName:           cfg.ClusterName,
			NodeMinAge:            cfg.NodeMinAge,
			DeletionTimeout:       cfg.DeletionTimeout,
			UnhealthyTaints:       cfg.UnhealthyTaints,
			ProtectionAnnotations: cfg.ProtectionAnnotations,
			ProtectionLabels:      cfg.ProtectionLabels,
			RemovableFinalizers:   cfg.RemovableFinalizers,
		}),
		newSink(cfg, log),
		log.WithName("reaper"),
		reaper.Options{
			DryRun:                 cfg.DryRun,
			EnableFinalizerCleanup: cfg.EnableFinalizerCleanup,
			NodeLabelSelector:      cfg.NodeLabelSelector,
		},
	)

	if cfg.Interval == 0 {
		_, err := r.Run(ctx)
		return err
	}
	return runLoop(ctx, cfg, r, log)
}

// newSink builds the fixed sink list: slack when a webhook is configured,
// the log sink otherwise.
func newSink(cfg *config.Config, log logr.Logger) reaper.NotificationSink {
	sinkLog := log.WithName("notify")
	if cfg.SlackWebhookURL == "" {
		log.Info("no slack webhook configured, notifications go to the log")
		return notify.NewFanout(sinkLog, notify.NewLog(sinkLog))
	}
	return notify.NewFanout(sinkLog, notify.NewSlack(cfg.SlackWebhookURL))
}

// runLoop repeats passes on the configured interval alongside the metrics
// and health endpoints until the process is signalled. A listing failure
// aborts the loop; deletions already issued stand on their own.
func runLoop(ctx context.Context, cfg *config.Config, r *reaper.Reaper, log logr.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	server := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           newServeMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		log.Info("serving metrics and health probes", "addr", cfg.MetricsAddr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()
		for {
			if _, err := r.Run(ctx); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	err := g.Wait()
	if err != nil {
		log.Error(err, "shutdown error")
		return err
	}
	log.Info("gracefully shutdown")
	return nil
}
