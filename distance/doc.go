// Package distance provides vector distance calculations for every element
// type an index can hold.
//
// # Supported Metrics
//
//   - MetricL2: squared Euclidean distance (all element types)
//   - MetricMIPS: negated inner product (float32 and float16 only)
//
// Distances are always "smaller is closer", so MIPS results come back
// with negative values for positively correlated vectors.
//
// # Usage
//
//	fn, err := distance.For[float32](distance.MetricL2)
//	d := fn(a, b)
package distance
