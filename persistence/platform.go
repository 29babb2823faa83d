package persistence

import (
	"errors"
	"unsafe"

	"github.com/hupe1980/vamana/distance"
)

// ErrBigEndian is returned by Save and Load on big-endian hosts, where the
// raw vector section would not match the little-endian format.
var ErrBigEndian = errors.New("persistence: big-endian hosts are not supported")

var littleEndian = func() bool {
	var probe uint16 = 0x0001
	return *(*byte)(unsafe.Pointer(&probe)) == 1
}()

func checkPlatform() error {
	if !littleEndian {
		return ErrBigEndian
	}
	return nil
}

// vectorBytes views a vector buffer as raw bytes without copying.
func vectorBytes[T distance.Element](v []T) []byte {
	if len(v) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*int(unsafe.Sizeof(zero)))
}

// vectorsFrom copies raw bytes into a freshly allocated, aligned buffer.
func vectorsFrom[T distance.Element](b []byte) []T {
	var zero T
	out := make([]T, len(b)/int(unsafe.Sizeof(zero)))
	copy(vectorBytes(out), b)
	return out
}
