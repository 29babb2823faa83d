package vamana

import "github.com/hupe1980/vamana/distance"

// Element is the set of supported vector element types.
type Element = distance.Element

// DType names an element type in configuration and snapshots.
type DType = distance.DType

// Element type names.
const (
	DTypeFloat32 = distance.DTypeFloat32
	DTypeInt8    = distance.DTypeInt8
	DTypeUint8   = distance.DTypeUint8
	DTypeFloat16 = distance.DTypeFloat16
)

// Metric selects the distance function.
type Metric = distance.Metric

// Supported metrics.
const (
	MetricL2   = distance.MetricL2
	MetricMIPS = distance.MetricMIPS
)

// ParseDType resolves an element type name such as "float32" or "int8".
func ParseDType(s string) (DType, error) { return distance.ParseDType(s) }

// ParseMetric resolves a metric name ("l2" or "mips").
func ParseMetric(s string) (Metric, error) { return distance.ParseMetric(s) }
