package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/x448/float16"

	"github.com/hupe1980/vamana"
	"github.com/hupe1980/vamana/blobstore"
	"github.com/hupe1980/vamana/internal/binfile"
	"github.com/hupe1980/vamana/persistence"
)

type searchFlags struct {
	index   string
	queries string
	k       int
	l       int
}

type searchDispatch struct {
	ctx context.Context
	g   *globalFlags
	f   *searchFlags
}

type queryResult struct {
	Query     int       `json:"query"`
	IDs       []uint32  `json:"ids"`
	Distances []float32 `json:"distances"`
}

func newSearchCmd(g *globalFlags) *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Query a snapshot with vectors from a .bin file",
		Long: `Query a snapshot with every vector of a DiskANN .bin query file.

Examples:
  vamana search --index base.vmn --queries query.bin -k 10 -L 100
  vamana search --index base.vmn --queries query.bin --json | jq '.[0]'`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hdr, err := snapshotHeader(cmd.Context(), f.index)
			if err != nil {
				return err
			}
			return dispatch(hdr.DType, searchDispatch{ctx: cmd.Context(), g: g, f: f}, runners[searchDispatch]{
				f32: runSearch[float32],
				i8:  runSearch[int8],
				u8:  runSearch[uint8],
				f16: runSearch[float16.Float16],
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.index, "index", "i", "", "snapshot path (required)")
	fl.StringVarP(&f.queries, "queries", "q", "", "query .bin file (required)")
	fl.IntVarP(&f.k, "k", "k", 10, "neighbors per query")
	fl.IntVarP(&f.l, "complexity", "L", 100, "search complexity")
	_ = cmd.MarkFlagRequired("index")
	_ = cmd.MarkFlagRequired("queries")
	return cmd
}

func snapshotHeader(ctx context.Context, path string) (*persistence.Header, error) {
	dir, name := splitPath(path)
	return persistence.ReadHeader(ctx, blobstore.NewLocalStore(dir), name)
}

func splitPath(path string) (string, string) {
	dir, name := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	return dir, name
}

func runSearch[T vamana.Element](d searchDispatch) error {
	idx, err := vamana.Load[T](d.ctx, d.f.index, vamana.WithLogger(d.g.logger()))
	if err != nil {
		return err
	}
	defer idx.Close()

	queries, err := binfile.ReadFile[T](d.f.queries)
	if err != nil {
		return err
	}

	start := time.Now()
	ids, dists, err := idx.BatchSearch(d.ctx, queries, d.f.k, d.f.l)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if d.g.json {
		out := make([]queryResult, len(ids))
		for i := range ids {
			out[i] = queryResult{Query: i, IDs: ids[i], Distances: dists[i]}
		}
		return printResult(true, out, "")
	}
	var b strings.Builder
	for i := range ids {
		fmt.Fprintf(&b, "%d:", i)
		for j := range ids[i] {
			fmt.Fprintf(&b, " %d(%.4g)", ids[i][j], dists[i][j])
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%d queries in %s (%.0f QPS)", len(queries), elapsed.Round(time.Microsecond), float64(len(queries))/elapsed.Seconds())
	_, err = fmt.Fprintln(os.Stdout, b.String())
	return err
}
