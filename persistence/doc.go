// Package persistence writes index snapshots to a blobstore and reads
// them back.
//
// A snapshot blob is laid out as
//
//	[Header][block]...[block][Footer]
//
// The header carries the element type, metric and every build parameter.
// The payload is split into blocks of at most 1 MiB, each written as
//
//	[uncompressed size u32][stored size u32, 0 = raw][data]
//
// and compressed with LZ4 or Zstandard when that saves at least 10%.
// Decompressed, the payload holds the slot-to-ID table, one neighbor list
// per slot, the frozen slots, the tombstone bitmap in roaring format and
// the raw vectors. The footer records the payload sizes and a CRC32C over
// the stored blocks. All integers are little-endian.
//
// Save takes a quiescent snapshot unless WithStaleSnapshot is given.
// Manager stores successive snapshots under unique names and commits each
// one by rewriting the CURRENT pointer blob.
package persistence
