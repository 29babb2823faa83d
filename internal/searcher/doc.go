// Package searcher provides pooled scratch space for graph traversal.
//
// A Scratch owns everything a single search or insertion needs:
//   - the sorted best-L candidate list (NeighborQueue)
//   - the visited set (bitset with a dirty list for O(touched) reset)
//   - prune buffers (candidate pool, admitted set, occlusion factors)
//
// Scratches are checked out of a Pool for the duration of one operation and
// returned with defer, so they are released even when the operation fails.
package searcher
