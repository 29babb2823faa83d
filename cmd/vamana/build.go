package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/x448/float16"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/vamana"
	"github.com/hupe1980/vamana/internal/binfile"
	"github.com/hupe1980/vamana/testutil"
)

type buildFlags struct {
	config    string
	data      string
	out       string
	dtype     string
	metric    string
	degree    int
	l         int
	alpha     float32
	threads   int
	maxPoints int
}

func newBuildCmd(g *globalFlags) *cobra.Command {
	f := &buildFlags{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build an index from a .bin data file",
		Long: `Build an index from a DiskANN .bin data file and write a snapshot.

Examples:
  vamana build --data base.bin --out base.vmn -R 64 -L 100
  vamana build --config index.yaml --data base.bin`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.resolve(cmd)
			if err != nil {
				return err
			}
			return dispatch(cfg.DType, buildDispatch{ctx: cmd.Context(), g: g, f: f, cfg: cfg}, runners[buildDispatch]{
				f32: runBuild[float32],
				i8:  runBuild[int8],
				u8:  runBuild[uint8],
				f16: runBuild[float16.Float16],
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.config, "config", "c", "", "YAML config file")
	fl.StringVarP(&f.data, "data", "d", "", "input .bin file (required)")
	fl.StringVarP(&f.out, "out", "o", "", "snapshot path (defaults to index_path from the config)")
	fl.StringVar(&f.dtype, "dtype", "", "element type: float32, int8, uint8, float16")
	fl.StringVar(&f.metric, "metric", "", "distance metric: l2, mips")
	fl.IntVarP(&f.degree, "degree", "R", 0, "graph degree")
	fl.IntVarP(&f.l, "complexity", "L", 0, "build complexity")
	fl.Float32Var(&f.alpha, "alpha", 0, "pruning alpha")
	fl.IntVarP(&f.threads, "threads", "T", 0, "build threads (0 = all CPUs)")
	fl.IntVar(&f.maxPoints, "max-points", 0, "capacity (defaults to the number of points)")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

// resolve merges the config file with the command-line overrides. Dim and
// MaxPoints are filled in from the data file when left unset.
func (f *buildFlags) resolve(cmd *cobra.Command) (vamana.Config, error) {
	cfg := vamana.DefaultConfig()
	if f.config != "" {
		data, err := os.ReadFile(f.config)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", f.config, err)
		}
	}
	fl := cmd.Flags()
	if fl.Changed("dtype") {
		dt, err := vamana.ParseDType(f.dtype)
		if err != nil {
			return cfg, err
		}
		cfg.DType = dt
	}
	if fl.Changed("metric") {
		m, err := vamana.ParseMetric(f.metric)
		if err != nil {
			return cfg, err
		}
		cfg.Metric = m
	}
	if fl.Changed("degree") {
		cfg.GraphDegree = f.degree
	}
	if fl.Changed("complexity") {
		cfg.Complexity = f.l
	}
	if fl.Changed("alpha") {
		cfg.Alpha = f.alpha
	}
	if fl.Changed("threads") {
		cfg.NumThreads = f.threads
	}
	if fl.Changed("max-points") {
		cfg.MaxPoints = f.maxPoints
	}
	if f.out != "" {
		cfg.IndexPath = f.out
	}
	if cfg.IndexPath == "" {
		return cfg, fmt.Errorf("no output path: pass --out or set index_path")
	}

	file, err := os.Open(f.data)
	if err != nil {
		return cfg, err
	}
	defer file.Close()
	h, err := binfile.ReadHeader(file)
	if err != nil {
		return cfg, err
	}
	if cfg.Dim == 0 {
		cfg.Dim = int(h.Dim)
	}
	if cfg.MaxPoints == 0 {
		cfg.MaxPoints = int(h.Points)
	}
	return cfg, cfg.Validate()
}

type buildDispatch struct {
	ctx context.Context
	g   *globalFlags
	f   *buildFlags
	cfg vamana.Config
}

func runBuild[T vamana.Element](d buildDispatch) error {
	vectors, err := binfile.ReadFile[T](d.f.data)
	if err != nil {
		return err
	}
	idx, err := vamana.New[T](d.cfg, vamana.WithLogger(d.g.logger()))
	if err != nil {
		return err
	}
	defer idx.Close()

	start := time.Now()
	if err := idx.Build(d.ctx, vectors, testutil.SequentialIDs(len(vectors))); err != nil {
		return err
	}
	built := time.Since(start)
	if err := idx.Save(d.ctx, ""); err != nil {
		return err
	}

	s := idx.Stats()
	return printResult(d.g.json, map[string]any{
		"points":     len(vectors),
		"dim":        d.cfg.Dim,
		"dtype":      d.cfg.DType.String(),
		"avg_degree": s.AvgDegree,
		"max_degree": s.MaxDegree,
		"build_time": built.String(),
		"snapshot":   d.cfg.IndexPath,
	}, fmt.Sprintf("built %d points (dim %d, %s) in %s, avg degree %.2f, saved to %s",
		len(vectors), d.cfg.Dim, d.cfg.DType, built.Round(time.Millisecond), s.AvgDegree, d.cfg.IndexPath))
}
