// Package vectorstore provides fixed-capacity contiguous vector storage.
//
// Vectors live in one flat []T of (slots * dim) elements, so slot i
// occupies data[i*dim:(i+1)*dim]. The store also owns free-slot tracking
// for the user range [0, MaxPoints); frozen slots above that range are
// never handed out.
//
// # Concurrency
//
// Slot reservation is safe for concurrent use. Writing a slot's vector is
// not synchronized: the caller writes a reserved slot before publishing it
// to readers (via the graph's atomic neighbor lists).
package vectorstore
