// Package simd provides the distance kernels used by the graph index.
//
// # Supported Element Types
//
//   - float32: SquaredL2, Dot
//   - int8 / uint8: SquaredL2Int8, SquaredL2Uint8, DotInt8, DotUint8
//   - float16 (IEEE-754 binary16): SquaredL2F16, DotF16
//
// Runtime CPU feature detection (golang.org/x/sys/cpu) selects the widest
// unrolling factor for the float32 kernels. All kernels are pure Go; the
// VAMANA_SIMD environment variable can force the generic path.
package simd
