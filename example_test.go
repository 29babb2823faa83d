package vamana_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/vamana"
)

func Example() {
	cfg := vamana.DefaultConfig()
	cfg.Dim = 2
	cfg.MaxPoints = 100
	cfg.GraphDegree = 8
	cfg.Complexity = 16

	idx, err := vamana.New[float32](cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer idx.Close()

	ctx := context.Background()
	vectors := [][]float32{{0, 0}, {1, 0}, {0, 1}, {5, 5}}
	if err := idx.Build(ctx, vectors, []uint32{1, 2, 3, 4}); err != nil {
		log.Fatal(err)
	}

	ids, dists, err := idx.Search(ctx, []float32{1, 0}, 2, 16)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(ids, dists)
	// Output: [2 1] [0 1]
}
