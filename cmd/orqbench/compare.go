package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/urfave/cli/v2"

	"github.com/hupe1980/orq"
	"github.com/hupe1980/orq/geom"
	"github.com/hupe1980/orq/index"
	"github.com/hupe1980/orq/testutil"
)

func compareFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "queries",
			Usage:   "number of window queries",
			Value:   1000,
			EnvVars: []string{"ORQ_QUERIES"},
		},
		&cli.BoolFlag{
			Name:  "stats",
			Usage: "print index statistics",
		},
	}
}

type result struct {
	kind     orq.Kind
	build    time.Duration
	query    time.Duration
	checked  time.Duration
	memory   int
	matches  int
	mismatch int
	stats    fmt.Stringer
}

func runCompare(cctx *cli.Context) error {
	logger := configLogger(cctx, os.Stderr)

	ds, err := newDataset(cctx)
	if err != nil {
		return err
	}

	windows := make([]geom.BBox, cctx.Int("queries"))
	for i := range windows {
		windows[i] = ds.rng.Window(ds.domain, ds.window)
	}

	// The sequential scan is the reference.
	truth := make([]*roaring.Bitmap, len(windows))
	for i, w := range windows {
		truth[i] = testutil.BruteForce(ds.records, w)
	}

	var results []result
	for _, kind := range orq.Kinds {
		r, err := compareKind(cctx, kind, ds, windows, truth, orq.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}
		results = append(results, r)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "kind\tbuild\tquery\tquery (domain)\tmemory\tmatches\tmismatches\n")
	for _, r := range results {
		checked := "-"
		if r.checked > 0 {
			checked = r.checked.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n", r.kind, r.build, r.query, checked, r.memory, r.matches, r.mismatch)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if cctx.Bool("stats") {
		for _, r := range results {
			fmt.Println()
			fmt.Print(r.stats)
		}
	}

	for _, r := range results {
		if r.mismatch > 0 {
			return fmt.Errorf("%s disagrees with the sequential scan on %d of %d windows", r.kind, r.mismatch, len(windows))
		}
	}
	return nil
}

func compareKind(cctx *cli.Context, kind orq.Kind, ds *dataset, windows []geom.BBox, truth []*roaring.Bitmap, optFns ...orq.Option) (result, error) {
	ctx := cctx.Context
	r := result{kind: kind}

	start := time.Now()
	ix, err := build(ctx, cctx, kind, ds, optFns...)
	if err != nil {
		return r, err
	}
	r.build = time.Since(start)
	if err := ix.Check(ctx); err != nil {
		return r, err
	}
	r.memory = ix.MemoryUsage()
	r.stats = ix.Stats()

	sink := index.NewBitmapSink(testutil.ID)
	start = time.Now()
	for i, w := range windows {
		sink.Bitmap.Clear()
		r.matches += ix.WindowQuery(ctx, w, sink)
		if !sink.Bitmap.Equals(truth[i]) {
			r.mismatch++
		}
	}
	r.query = time.Since(start)

	if kind == orq.KindOctree || kind == orq.KindKDTree {
		start = time.Now()
		for i, w := range windows {
			sink.Bitmap.Clear()
			if _, err := ix.WindowQueryCheckDomain(ctx, w, sink); err != nil {
				return r, err
			}
			if !sink.Bitmap.Equals(truth[i]) {
				r.mismatch++
			}
		}
		r.checked = time.Since(start)
	}
	return r, nil
}
