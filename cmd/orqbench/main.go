// Command orqbench compares the range query indexes and drives query load
// against them.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hupe1980/orq"
	"github.com/hupe1980/orq/geom"
	"github.com/hupe1980/orq/testutil"
)

func main() {
	newApp().RunAndExitOnError()
}

func newApp() *cli.App {
	app := &cli.App{
		Name:  "orqbench",
		Usage: "compare and load-test orthogonal range query indexes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log verbosity level (eg: warn, info, debug)",
				Value:   "warn",
				EnvVars: []string{"ORQ_LOG_LEVEL", "LOG_LEVEL"},
			},
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:   "compare",
			Usage:  "build every index kind, verify query results against a sequential scan and print timings",
			Flags:  append(datasetFlags(), compareFlags()...),
			Action: runCompare,
		},
		{
			Name:   "load",
			Usage:  "issue window queries at a fixed rate and export Prometheus metrics",
			Flags:  append(datasetFlags(), loadFlags()...),
			Action: runLoad,
		},
	}
	return app
}

func datasetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "records",
			Usage:   "number of records",
			Value:   100_000,
			EnvVars: []string{"ORQ_RECORDS"},
		},
		&cli.StringFlag{
			Name:    "distribution",
			Usage:   "record distribution (uniform, clustered, lattice)",
			Value:   "uniform",
			EnvVars: []string{"ORQ_DISTRIBUTION"},
		},
		&cli.Float64Flag{
			Name:    "domain-size",
			Usage:   "edge length of the cubic domain",
			Value:   100,
			EnvVars: []string{"ORQ_DOMAIN_SIZE"},
		},
		&cli.Float64Flag{
			Name:    "window",
			Usage:   "maximum edge length of a query window",
			Value:   10,
			EnvVars: []string{"ORQ_WINDOW"},
		},
		&cli.Float64Flag{
			Name:    "cell-size",
			Usage:   "requested cell size of the cell array",
			Value:   5,
			EnvVars: []string{"ORQ_CELL_SIZE"},
		},
		&cli.IntFlag{
			Name:    "leaf-size",
			Usage:   "leaf size threshold of the octree and kd-tree",
			Value:   8,
			EnvVars: []string{"ORQ_LEAF_SIZE"},
		},
		&cli.Int64Flag{
			Name:    "memory-limit",
			Usage:   "memory limit per index in bytes (0 = unlimited)",
			EnvVars: []string{"ORQ_MEMORY_LIMIT"},
		},
		&cli.Int64Flag{
			Name:    "seed",
			Usage:   "random seed",
			Value:   42,
			EnvVars: []string{"ORQ_SEED"},
		},
	}
}

func configLogger(cctx *cli.Context, writer io.Writer) *orq.Logger {
	var level slog.Level
	switch strings.ToLower(cctx.String("log-level")) {
	case "error":
		level = slog.LevelError
	case "warn":
		level = slog.LevelWarn
	case "info":
		level = slog.LevelInfo
	case "debug":
		level = slog.LevelDebug
	default:
		level = slog.LevelInfo
	}
	return orq.NewLogger(slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level: level,
	}))
}

type dataset struct {
	domain  geom.BBox
	records []*testutil.Record
	rng     *testutil.RNG
	window  float64
}

func newDataset(cctx *cli.Context) (*dataset, error) {
	n := cctx.Int("records")
	if n < 0 {
		return nil, fmt.Errorf("records must not be negative: %d", n)
	}
	size := cctx.Float64("domain-size")
	if !(size > 0) {
		return nil, fmt.Errorf("domain-size must be positive: %g", size)
	}

	ds := &dataset{
		domain: geom.Cube(0, size),
		rng:    testutil.NewRNG(cctx.Int64("seed")),
		window: cctx.Float64("window"),
	}

	switch strings.ToLower(cctx.String("distribution")) {
	case "uniform":
		ds.records = ds.rng.Records(n, ds.domain)
	case "clustered":
		ds.records = ds.rng.ClusteredRecords(n, 8, 0.02, ds.domain)
	case "lattice":
		perAxis := 1
		for perAxis*perAxis*perAxis < n {
			perAxis++
		}
		ds.records = ds.rng.LatticeRecords(n, perAxis, ds.domain)
	default:
		return nil, fmt.Errorf("unknown distribution %q", cctx.String("distribution"))
	}
	return ds, nil
}

// build creates an index of the given kind holding every record of ds.
func build(ctx context.Context, cctx *cli.Context, kind orq.Kind, ds *dataset, optFns ...orq.Option) (*orq.Index[*testutil.Record], error) {
	optFns = append([]orq.Option{
		orq.WithLeafSize(cctx.Int("leaf-size")),
		orq.WithMemoryLimit(cctx.Int64("memory-limit")),
	}, optFns...)

	var (
		ix  *orq.Index[*testutil.Record]
		err error
	)
	switch kind {
	case orq.KindScan:
		ix, err = orq.NewScan(ctx, testutil.Key, optFns...)
	case orq.KindCellArray:
		ix, err = orq.NewCellArray(ctx, testutil.Key, ds.domain, cctx.Float64("cell-size"), optFns...)
	case orq.KindOctree:
		ix, err = orq.NewOctree(ctx, testutil.Key, ds.domain, optFns...)
	case orq.KindKDTree:
		return orq.NewKDTree(ctx, testutil.Key, ds.records, optFns...)
	default:
		return nil, fmt.Errorf("unsupported index kind %s", kind)
	}
	if err != nil {
		return nil, err
	}
	if err := ix.InsertRange(ctx, ds.records); err != nil {
		return nil, err
	}
	return ix, nil
}
