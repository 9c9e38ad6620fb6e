package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/hupe1980/orq"
	"github.com/hupe1980/orq/index"
	"github.com/hupe1980/orq/metrics/prom"
	"github.com/hupe1980/orq/testutil"
)

func loadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "kind",
			Usage:   "index kind (scan, cellarray, octree, kdtree)",
			Value:   "octree",
			EnvVars: []string{"ORQ_KIND"},
		},
		&cli.Float64Flag{
			Name:    "qps",
			Usage:   "target window queries per second",
			Value:   1000,
			EnvVars: []string{"ORQ_QPS"},
		},
		&cli.DurationFlag{
			Name:    "duration",
			Usage:   "how long to run; 0 runs until interrupted",
			Value:   30 * time.Second,
			EnvVars: []string{"ORQ_DURATION"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "address of the Prometheus /metrics endpoint",
			Value:   ":2112",
			EnvVars: []string{"ORQ_METRICS_LISTEN"},
		},
		&cli.BoolFlag{
			Name:    "check-domain",
			Usage:   "use domain-tracking queries (octree and kdtree only)",
			EnvVars: []string{"ORQ_CHECK_DOMAIN"},
		},
	}
}

func runLoad(cctx *cli.Context) error {
	logger := configLogger(cctx, os.Stderr)

	kind, err := orq.ParseKind(cctx.String("kind"))
	if err != nil {
		return err
	}
	qps := cctx.Float64("qps")
	if !(qps > 0) {
		return fmt.Errorf("qps must be positive: %g", qps)
	}

	ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if d := cctx.Duration("duration"); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	collector := prom.New(func(o *prom.Options) {
		o.ConstLabels = prometheus.Labels{"kind": kind.String()}
	})
	reg.MustRegister(collector)

	srv := &http.Server{
		Addr:              cctx.String("metrics-listen"),
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	ds, err := newDataset(cctx)
	if err != nil {
		return err
	}
	ix, err := build(ctx, cctx, kind, ds, orq.WithLogger(logger), orq.WithMetricsCollector(collector))
	if err != nil {
		return err
	}
	logger.Info("index built", "kind", kind.String(), "records", ix.Len(), "memory", ix.MemoryUsage())

	queries, matches, err := drive(ctx, ix, ds, rate.NewLimiter(rate.Limit(qps), 1), cctx.Bool("check-domain"))
	fmt.Printf("%s: %d queries, %d matches\n", kind, queries, matches)
	return err
}

// drive issues window queries paced by limiter until ctx is done.
func drive(ctx context.Context, ix *orq.Index[*testutil.Record], ds *dataset, limiter *rate.Limiter, checkDomain bool) (queries, matches int, err error) {
	sink := &index.CountSink[*testutil.Record]{}
	for {
		if err := limiter.Wait(ctx); err != nil {
			// Wait fails once ctx is done or the deadline would pass.
			return queries, matches, nil
		}

		w := ds.rng.Window(ds.domain, ds.window)
		if checkDomain {
			n, err := ix.WindowQueryCheckDomain(ctx, w, sink)
			if err != nil {
				return queries, matches, err
			}
			matches += n
		} else {
			matches += ix.WindowQuery(ctx, w, sink)
		}
		queries++
	}
}
