// Package hash computes the CRC32-Castagnoli checksums that protect
// snapshot headers and payloads and that accompany S3 uploads.
//
// hash/crc32 switches to SSE4.2 or the ARMv8 CRC instructions when the CPU
// has them, so checksumming a multi-gigabyte snapshot costs well under a
// second.
//
//	sum := hash.CRC32C(data)
//
//	h := hash.NewCRC32C()
//	h.Write(chunk1)
//	h.Write(chunk2)
//	sum = h.Sum32()
package hash
