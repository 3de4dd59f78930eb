package frontend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tcassar-diss/vmlisten/listener"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Run replays the script at scriptPath against the process-wide counter
// table, serving metrics alongside if configured, and writes the JSON report
// to out.
func Run(ctx context.Context, logger *zap.SugaredLogger, cfg *Config, scriptPath string, out io.Writer) error {
	script, err := ParseTOMLScript(scriptPath)
	if err != nil {
		return fmt.Errorf("failed to load script: %w", err)
	}

	reg := listener.NewRegistry(logger, listener.Default)

	closeFn, err := attachListeners(logger, reg, &cfg.Listeners)
	if err != nil {
		return fmt.Errorf("failed to attach listeners: %w", err)
	}
	defer closeFn()

	report, err := runWithMetrics(ctx, logger, reg, script, &cfg.Metrics)
	if err != nil {
		return err
	}

	if err := closeFn(); err != nil {
		return fmt.Errorf("failed to close trace: %w", err)
	}

	bts, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	fmt.Fprintln(out, string(bts))

	return nil
}

// attachListeners registers the configured listeners on reg. The returned
// close function flushes the trace (if any) and is safe to call twice.
func attachListeners(logger *zap.SugaredLogger, reg *listener.Registry, cfg *ListenersCfg) (func() error, error) {
	if cfg.EchoEnv != "" {
		echo := listener.EchoListener(logger, cfg.EchoEnv)
		for _, e := range listener.Events() {
			if err := reg.Register(e, echo); err != nil {
				return nil, fmt.Errorf("failed to register echo listener: %w", err)
			}
		}
	}

	if cfg.Trace == "" {
		return func() error { return nil }, nil
	}

	f, err := os.Create(cfg.Trace)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}

	tw, err := listener.NewTraceWriter(logger, f)
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := listener.RegisterTraceListeners(reg, tw); err != nil {
		f.Close()
		return nil, err
	}

	logger.Infow("tracing listener events", "path", cfg.Trace)

	closed := false

	return func() error {
		if closed {
			return nil
		}
		closed = true

		err := tw.Close()
		if cerr := f.Close(); err == nil {
			err = cerr
		}

		return err
	}, nil
}

func runWithMetrics(
	ctx context.Context,
	logger *zap.SugaredLogger,
	reg *listener.Registry,
	script *Script,
	cfg *MetricsCfg,
) (*Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	var report *Report

	eg.Go(func() error {
		defer cancel() // stops the metrics server

		r, err := Replay(ctx, logger, reg, script)
		if err != nil {
			return err
		}

		report = r

		if cfg.Addr != "" && cfg.Linger > 0 {
			logger.Infow("replay done, keeping metrics up", "linger", cfg.Linger)

			select {
			case <-time.After(cfg.Linger):
			case <-ctx.Done():
			}
		}

		return nil
	})

	if cfg.Addr != "" {
		eg.Go(func() error {
			return serveMetrics(ctx, logger, cfg.Addr, reg)
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return report, nil
}

// serveMetrics serves reg's counters on addr/metrics until ctx is done.
func serveMetrics(ctx context.Context, logger *zap.SugaredLogger, addr string, reg *listener.Registry) error {
	handler, err := metricsHandler(reg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)

	logger.Infow("serving metrics", "addr", addr)

	go func() {
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down metrics server: %w", err)
	}

	return nil
}

func metricsHandler(reg *listener.Registry) (http.Handler, error) {
	preg := prometheus.NewRegistry()
	if err := preg.Register(listener.NewCollector(reg)); err != nil {
		return nil, fmt.Errorf("failed to register collector: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(preg, promhttp.HandlerOpts{}))

	return mux, nil
}
