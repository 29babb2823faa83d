// Package graph implements the proximity graph of a Vamana index.
//
// Nodes are addressed by dense slots. Slots [0, MaxPoints) hold user points;
// slots [MaxPoints, MaxPoints+NumFrozen) hold the frozen entry points,
// which are fixed at construction and never deleted.
//
// Thread-safety:
//   - Neighbor lists are immutable snapshots behind atomic pointers, so
//     readers never observe a torn list.
//   - Writers serialize on the per-node mutex and never hold two node locks.
//   - Node state transitions are atomic.
package graph
