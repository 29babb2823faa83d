// Package vamana implements a dynamic in-memory Vamana graph index
// (FreshDiskANN style): bulk build, incremental insertion, lazy deletion
// with consolidation, and bounded beam search.
//
// # Locking
//
// Three locks coordinate structural work; none of them is taken by search
// on the hot path except reclaimMu in shared mode:
//
//   - structMu: shared by Build, Insert and a concurrent consolidation
//     repair pass; exclusive for a non-concurrent consolidation, slot
//     reclamation, quiescent export and Close.
//   - reclaimMu: shared by Search; exclusive only while tombstoned slots
//     are reclaimed, so a query never reads a slot that is being reused.
//   - tagMu: guards the external ID to slot binding.
//
// Per-node writer locks live in the graph; a goroutine never holds two.
package vamana
