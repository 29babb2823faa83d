// Package distance provides public API for vector distance calculations.
// All distance functions use the kernels selected by internal/simd at
// start-up.
package distance

import (
	"fmt"
	"strings"

	"github.com/hupe1980/vamana/internal/simd"
	"github.com/x448/float16"
)

// Element is the set of vector element types an index can store.
type Element interface {
	float32 | int8 | uint8 | float16.Float16
}

// Metric represents the distance metric used for vector comparison.
type Metric int

const (
	// MetricL2 is the squared Euclidean distance.
	MetricL2 Metric = iota
	// MetricMIPS is the negated inner product (maximum inner product search).
	MetricMIPS
)

func (m Metric) String() string {
	switch m {
	case MetricL2:
		return "l2"
	case MetricMIPS:
		return "mips"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// ParseMetric resolves a metric name. Matching is case-insensitive.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "l2", "euclidean":
		return MetricL2, nil
	case "mips", "ip", "dot":
		return MetricMIPS, nil
	default:
		return 0, fmt.Errorf("unsupported metric %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Metric) MarshalText() ([]byte, error) {
	if m != MetricL2 && m != MetricMIPS {
		return nil, fmt.Errorf("unsupported metric: %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Metric) UnmarshalText(b []byte) error {
	v, err := ParseMetric(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Func is a function type for distance calculation. Smaller is closer.
type Func[T Element] func(a, b []T) float32

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	return simd.Dot(a, b)
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	return simd.SquaredL2(a, b)
}

// NegDot returns -Dot(a, b) so that larger inner products sort first.
func NegDot(a, b []float32) float32 {
	return -simd.Dot(a, b)
}

// Supports reports whether metric m is defined for element type T.
func Supports[T Element](m Metric) bool {
	_, err := For[T](m)
	return err == nil
}

// For returns the distance function for element type T and metric m.
// The type switch runs once; the returned function carries no per-call
// dispatch.
func For[T Element](m Metric) (Func[T], error) {
	var zero T
	switch any(zero).(type) {
	case float32:
		var fn Func[float32]
		switch m {
		case MetricL2:
			fn = SquaredL2
		case MetricMIPS:
			fn = NegDot
		default:
			return nil, fmt.Errorf("unsupported metric for float32: %v", m)
		}
		return any(fn).(Func[T]), nil
	case float16.Float16:
		var fn Func[float16.Float16]
		switch m {
		case MetricL2:
			fn = simd.SquaredL2F16
		case MetricMIPS:
			fn = func(a, b []float16.Float16) float32 { return -simd.DotF16(a, b) }
		default:
			return nil, fmt.Errorf("unsupported metric for float16: %v", m)
		}
		return any(fn).(Func[T]), nil
	case int8:
		if m != MetricL2 {
			return nil, fmt.Errorf("unsupported metric for int8: %v", m)
		}
		var fn Func[int8] = simd.SquaredL2Int8
		return any(fn).(Func[T]), nil
	case uint8:
		if m != MetricL2 {
			return nil, fmt.Errorf("unsupported metric for uint8: %v", m)
		}
		var fn Func[uint8] = simd.SquaredL2Uint8
		return any(fn).(Func[T]), nil
	default:
		return nil, fmt.Errorf("unsupported element type %T", zero)
	}
}
