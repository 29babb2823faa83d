package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hupe1980/vamana"
)

// runners holds one instantiation of a command body per element type.
type runners[D any] struct {
	f32, i8, u8, f16 func(D) error
}

func dispatch[D any](dt vamana.DType, d D, r runners[D]) error {
	switch dt {
	case vamana.DTypeFloat32:
		return r.f32(d)
	case vamana.DTypeInt8:
		return r.i8(d)
	case vamana.DTypeUint8:
		return r.u8(d)
	case vamana.DTypeFloat16:
		return r.f16(d)
	default:
		return fmt.Errorf("unsupported element type %s", dt)
	}
}

func printResult(asJSON bool, v any, text string) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Println(text)
	return err
}
