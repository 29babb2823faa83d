package vectorstore

import (
	"github.com/hupe1980/vamana/distance"
	"github.com/x448/float16"
)

func toFloat64[T distance.Element](v T) float64 {
	switch x := any(v).(type) {
	case float32:
		return float64(x)
	case int8:
		return float64(x)
	case uint8:
		return float64(x)
	case float16.Float16:
		return float64(x.Float32())
	}
	return 0
}

// SquaredL2To computes the squared distance between a stored vector and a
// float64 point, such as a centroid.
func SquaredL2To[T distance.Element](v []T, p []float64) float64 {
	var sum float64
	for i, x := range v {
		d := toFloat64(x) - p[i]
		sum += d * d
	}
	return sum
}
