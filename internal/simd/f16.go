package simd

import "github.com/x448/float16"

// SquaredL2F16 computes the squared L2 distance between two binary16
// vectors. Arithmetic happens in float32.
func SquaredL2F16(a, b []float16.Float16) float32 {
	b = b[:len(a)]
	var s0, s1 float32
	i := 0
	for ; i+2 <= len(a); i += 2 {
		d0 := a[i].Float32() - b[i].Float32()
		d1 := a[i+1].Float32() - b[i+1].Float32()
		s0 += d0 * d0
		s1 += d1 * d1
	}
	for ; i < len(a); i++ {
		d := a[i].Float32() - b[i].Float32()
		s0 += d * d
	}
	return s0 + s1
}

// DotF16 computes the inner product of two binary16 vectors.
func DotF16(a, b []float16.Float16) float32 {
	b = b[:len(a)]
	var sum float32
	for i := range a {
		sum += a[i].Float32() * b[i].Float32()
	}
	return sum
}

// F16ToF32 widens src into dst. len(dst) must be >= len(src).
func F16ToF32(dst []float32, src []float16.Float16) {
	for i, v := range src {
		dst[i] = v.Float32()
	}
}

// F32ToF16 narrows src into dst (round to nearest even).
func F32ToF16(dst []float16.Float16, src []float32) {
	for i, v := range src {
		dst[i] = float16.Fromfloat32(v)
	}
}
