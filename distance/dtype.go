package distance

import (
	"fmt"
	"strings"

	"github.com/x448/float16"
)

// DType names a vector element type.
type DType uint8

const (
	// DTypeFloat32 is IEEE-754 binary32.
	DTypeFloat32 DType = iota + 1
	// DTypeInt8 is a signed byte.
	DTypeInt8
	// DTypeUint8 is an unsigned byte.
	DTypeUint8
	// DTypeFloat16 is IEEE-754 binary16.
	DTypeFloat16
)

func (d DType) String() string {
	switch d {
	case DTypeFloat32:
		return "float32"
	case DTypeInt8:
		return "int8"
	case DTypeUint8:
		return "uint8"
	case DTypeFloat16:
		return "float16"
	default:
		return fmt.Sprintf("Unknown(%d)", d)
	}
}

// Size returns the element width in bytes.
func (d DType) Size() int {
	switch d {
	case DTypeFloat32:
		return 4
	case DTypeFloat16:
		return 2
	case DTypeInt8, DTypeUint8:
		return 1
	default:
		return 0
	}
}

// IsFloat reports whether the type supports MIPS.
func (d DType) IsFloat() bool {
	return d == DTypeFloat32 || d == DTypeFloat16
}

// ParseDType resolves an element type name. Matching is case-insensitive.
func ParseDType(s string) (DType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "float32", "float", "f32":
		return DTypeFloat32, nil
	case "int8", "i8":
		return DTypeInt8, nil
	case "uint8", "u8":
		return DTypeUint8, nil
	case "float16", "half", "f16":
		return DTypeFloat16, nil
	default:
		return 0, fmt.Errorf("unsupported data type %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d DType) MarshalText() ([]byte, error) {
	if d.Size() == 0 {
		return nil, fmt.Errorf("unsupported data type: %d", uint8(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DType) UnmarshalText(text []byte) error {
	v, err := ParseDType(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// DTypeOf returns the DType of T.
func DTypeOf[T Element]() DType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return DTypeFloat32
	case int8:
		return DTypeInt8
	case uint8:
		return DTypeUint8
	case float16.Float16:
		return DTypeFloat16
	}
	return 0
}
