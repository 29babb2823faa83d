package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vamana"
	"github.com/hupe1980/vamana/testutil"
)

type recallFlags struct {
	points  int
	dim     int
	queries int
	k       int
	l       int
	degree  int
	buildL  int
	alpha   float32
	seed    int64
}

func newRecallCmd(g *globalFlags) *cobra.Command {
	f := &recallFlags{}
	cmd := &cobra.Command{
		Use:   "recall",
		Short: "Measure recall on synthetic uniform data",
		Long: `Build an index over uniform random vectors and compare its answers with
brute force.

Example:
  vamana recall --points 10000 --dim 10 --queries 1000 -k 5 -L 5`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := runRecall(cmd, g, f)
			if err != nil {
				return err
			}
			return printResult(g.json, res, fmt.Sprintf("recall@%d = %.4f (L=%d, build %s, search %s)",
				f.k, res.Recall, f.l, res.BuildTime, res.SearchTime))
		},
	}
	fl := cmd.Flags()
	fl.IntVar(&f.points, "points", 10000, "indexed points")
	fl.IntVar(&f.dim, "dim", 10, "dimension")
	fl.IntVar(&f.queries, "queries", 1000, "query count")
	fl.IntVarP(&f.k, "k", "k", 5, "neighbors per query")
	fl.IntVarP(&f.l, "complexity", "L", 5, "search complexity")
	fl.IntVarP(&f.degree, "degree", "R", 16, "graph degree")
	fl.IntVar(&f.buildL, "build-complexity", 32, "build complexity")
	fl.Float32Var(&f.alpha, "alpha", 1.2, "pruning alpha")
	fl.Int64Var(&f.seed, "seed", 42, "RNG seed")
	return cmd
}

type recallResult struct {
	Recall     float64 `json:"recall"`
	Points     int     `json:"points"`
	Queries    int     `json:"queries"`
	BuildTime  string  `json:"build_time"`
	SearchTime string  `json:"search_time"`
}

func runRecall(cmd *cobra.Command, g *globalFlags, f *recallFlags) (recallResult, error) {
	ctx := cmd.Context()
	rng := testutil.NewRNG(f.seed)
	data := rng.UniformVectors(f.points, f.dim)
	queries := rng.UniformVectors(f.queries, f.dim)
	ids := testutil.SequentialIDs(f.points)

	cfg := vamana.DefaultConfig()
	cfg.Dim = f.dim
	cfg.MaxPoints = f.points
	cfg.GraphDegree = f.degree
	cfg.Complexity = f.buildL
	cfg.Alpha = f.alpha

	idx, err := vamana.New[float32](cfg, vamana.WithLogger(g.logger()))
	if err != nil {
		return recallResult{}, err
	}
	defer idx.Close()

	start := time.Now()
	if err := idx.Build(ctx, data, ids); err != nil {
		return recallResult{}, err
	}
	buildTime := time.Since(start)

	start = time.Now()
	found, _, err := idx.BatchSearch(ctx, queries, f.k, f.l)
	if err != nil {
		return recallResult{}, err
	}
	searchTime := time.Since(start)

	truth := make([][]uint32, len(queries))
	for i, q := range queries {
		for _, r := range testutil.BruteForceSearch(data, ids, q, f.k, cfg.Metric) {
			truth[i] = append(truth[i], r.ID)
		}
	}
	return recallResult{
		Recall:     testutil.RecallAtK(truth, found, f.k),
		Points:     f.points,
		Queries:    f.queries,
		BuildTime:  buildTime.Round(time.Millisecond).String(),
		SearchTime: searchTime.Round(time.Millisecond).String(),
	}, nil
}
