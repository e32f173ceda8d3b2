package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/symonk/stealq"
	"github.com/symonk/stealq/internal/config"
	"github.com/symonk/stealq/internal/logging"
	promexport "github.com/symonk/stealq/observability/prometheus"
)

func newBenchCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run synthetic load through a pool and report throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			logger := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			return runBench(cmd.Context(), cmd.OutOrStdout(), logger, cfg)
		},
	}

	flags := cmd.Flags()
	flags.IntP("workers", "w", 0, "number of workers (default: number of CPUs)")
	flags.IntP("tasks", "n", 0, "number of top level tasks to submit")
	flags.Duration("work", 0, "time each task spins for")
	flags.Int("fanout", 0, "child tasks submitted by every top level task")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address while running")
	_ = v.BindPFlag("pool.workers", flags.Lookup("workers"))
	_ = v.BindPFlag("bench.tasks", flags.Lookup("tasks"))
	_ = v.BindPFlag("bench.work", flags.Lookup("work"))
	_ = v.BindPFlag("bench.fanout", flags.Lookup("fanout"))
	_ = v.BindPFlag("metrics.addr", flags.Lookup("metrics-addr"))
	return cmd
}

// benchStats counts pool events for the summary and forwards them to the
// Prometheus exporter.
type benchStats struct {
	stealq.Metrics
	executed atomic.Int64
	stolen   atomic.Int64
	aborted  atomic.Int64
	panicked atomic.Int64
}

func (s *benchStats) TaskExecuted(d time.Duration) {
	s.executed.Add(1)
	s.Metrics.TaskExecuted(d)
}

func (s *benchStats) TaskStolen() {
	s.stolen.Add(1)
	s.Metrics.TaskStolen()
}

func (s *benchStats) PopAborted() {
	s.aborted.Add(1)
	s.Metrics.PopAborted()
}

func (s *benchStats) TaskPanicked() {
	s.panicked.Add(1)
	s.Metrics.TaskPanicked()
}

func runBench(ctx context.Context, out io.Writer, logger zerolog.Logger, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	reg := prom.NewRegistry()
	exporter, err := promexport.NewExporter(cfg.Metrics.Namespace, reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	stats := &benchStats{Metrics: exporter}

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("addr", cfg.Metrics.Addr).Msg("metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info().Str("addr", cfg.Metrics.Addr).Msg("serving metrics")
	}

	pool := stealq.New(
		stealq.WithMaxWorkers(cfg.Pool.Workers),
		stealq.WithCapacityHint(cfg.Pool.CapacityHint),
		stealq.WithInboxSize(cfg.Pool.InboxSize),
		stealq.WithStealInterval(cfg.Pool.StealInterval),
		stealq.WithLogger(logger),
		stealq.WithMetrics(stats),
	)

	var outstanding sync.WaitGroup
	spin := func() {
		deadline := time.Now().Add(cfg.Bench.Work)
		for time.Now().Before(deadline) {
		}
		outstanding.Done()
	}
	var rejected atomic.Int64
	parent := func() {
		rejected.Add(int64(spawnChildren(pool, cfg.Bench.Fanout, spin, &outstanding, logger)))
		spin()
	}

	logger.Info().
		Int("workers", cfg.Pool.Workers).
		Int("tasks", cfg.Bench.Tasks).
		Int("fanout", cfg.Bench.Fanout).
		Dur("work", cfg.Bench.Work).
		Msg("starting bench")

	start := time.Now()
	submitted := 0
	for i := 0; i < cfg.Bench.Tasks; i++ {
		if ctx.Err() != nil {
			break
		}
		outstanding.Add(1)
		if _, err := pool.Enqueue(parent); err != nil {
			outstanding.Done()
			break
		}
		submitted++
	}

	done := make(chan struct{})
	go func() {
		outstanding.Wait()
		close(done)
	}()
	select {
	case <-done:
		pool.Drain()
	case <-ctx.Done():
		pool.Stop()
		return ctx.Err()
	}
	elapsed := time.Since(start)

	executed := stats.executed.Load()
	fmt.Fprintf(out, "workers:    %d\n", pool.MaxWorkers())
	fmt.Fprintf(out, "submitted:  %d\n", submitted)
	fmt.Fprintf(out, "executed:   %d\n", executed)
	fmt.Fprintf(out, "rejected:   %d\n", rejected.Load())
	fmt.Fprintf(out, "stolen:     %d\n", stats.stolen.Load())
	fmt.Fprintf(out, "aborted:    %d\n", stats.aborted.Load())
	fmt.Fprintf(out, "panicked:   %d\n", stats.panicked.Load())
	fmt.Fprintf(out, "elapsed:    %s\n", elapsed.Round(time.Microsecond))
	if secs := elapsed.Seconds(); secs > 0 {
		fmt.Fprintf(out, "throughput: %.0f tasks/s\n", float64(executed)/secs)
	}
	return nil
}

// spawnChildren submits n copies of child and returns how many the pool
// refused.  outstanding is raised for every child and lowered again for
// each refusal.
func spawnChildren(pool *stealq.Pool, n int, child func(), outstanding *sync.WaitGroup, logger zerolog.Logger) int {
	outstanding.Add(n)
	rejected := 0
	for i := 0; i < n; i++ {
		if _, err := pool.Enqueue(child); err != nil {
			logger.Debug().Err(err).Msg("child task rejected")
			outstanding.Done()
			rejected++
		}
	}
	return rejected
}
