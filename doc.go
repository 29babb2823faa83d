// Package vamana is a dynamic in-memory approximate nearest-neighbor index
// built on the Vamana proximity graph with FreshDiskANN-style streaming
// updates.
//
// An Index stores fixed-dimension vectors of one element type (float32,
// int8, uint8 or float16) under caller-chosen uint32 IDs. It supports bulk
// Build, concurrent Insert and BatchInsert, lazy MarkDeleted followed by
// Consolidate, and top-k Search over a bounded beam.
//
// Quick start:
//
//	cfg := vamana.DefaultConfig()
//	cfg.Dim = 128
//	cfg.MaxPoints = 100_000
//
//	idx, err := vamana.New[float32](cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer idx.Close()
//
//	if err := idx.Build(ctx, vectors, ids); err != nil {
//		log.Fatal(err)
//	}
//	ids, dists, err := idx.Search(ctx, query, 10, 64)
//
// Snapshots are written with Save or SaveTo and read back with Load or
// LoadFrom. The persistence and blobstore packages hold the snapshot format
// and the storage backends (local disk, S3, MinIO).
package vamana
