package simd

// Integer kernels accumulate in int64 so that any realistic dimension
// cannot overflow; the result is returned as float32 to share the distance
// type with the floating kernels.

// SquaredL2Int8 computes the squared L2 distance between two int8 vectors.
//
// Assumes len(a) == len(b). Caller's responsibility.
func SquaredL2Int8(a, b []int8) float32 {
	b = b[:len(a)]
	var s0, s1 int64
	i := 0
	for ; i+2 <= len(a); i += 2 {
		d0 := int64(a[i]) - int64(b[i])
		d1 := int64(a[i+1]) - int64(b[i+1])
		s0 += d0 * d0
		s1 += d1 * d1
	}
	for ; i < len(a); i++ {
		d := int64(a[i]) - int64(b[i])
		s0 += d * d
	}
	return float32(s0 + s1)
}

// DotInt8 computes the inner product of two int8 vectors.
func DotInt8(a, b []int8) float32 {
	b = b[:len(a)]
	var sum int64
	for i := range a {
		sum += int64(a[i]) * int64(b[i])
	}
	return float32(sum)
}

// SquaredL2Uint8 computes the squared L2 distance between two uint8 vectors.
func SquaredL2Uint8(a, b []uint8) float32 {
	b = b[:len(a)]
	var s0, s1 int64
	i := 0
	for ; i+2 <= len(a); i += 2 {
		d0 := int64(a[i]) - int64(b[i])
		d1 := int64(a[i+1]) - int64(b[i+1])
		s0 += d0 * d0
		s1 += d1 * d1
	}
	for ; i < len(a); i++ {
		d := int64(a[i]) - int64(b[i])
		s0 += d * d
	}
	return float32(s0 + s1)
}

// DotUint8 computes the inner product of two uint8 vectors.
func DotUint8(a, b []uint8) float32 {
	b = b[:len(a)]
	var sum int64
	for i := range a {
		sum += int64(a[i]) * int64(b[i])
	}
	return float32(sum)
}
