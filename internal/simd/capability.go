package simd

import (
	"os"
	"runtime"
	"strings"
)

// ISA represents a SIMD instruction set architecture.
type ISA uint8

const (
	// Generic represents the scalar reference implementation.
	Generic ISA = iota
	// NEON represents ARM64 ASIMD.
	NEON
	// AVX2 represents x86-64 AVX2 + FMA.
	AVX2
	// AVX512 represents x86-64 AVX-512 Foundation.
	AVX512
)

// String returns the string representation of an ISA.
func (i ISA) String() string {
	switch i {
	case Generic:
		return "generic"
	case NEON:
		return "neon"
	case AVX2:
		return "avx2"
	case AVX512:
		return "avx512"
	default:
		return "unknown"
	}
}

// ParseISA parses a string into an ISA value.
func ParseISA(s string) (ISA, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generic":
		return Generic, true
	case "neon":
		return NEON, true
	case "avx2":
		return AVX2, true
	case "avx512":
		return AVX512, true
	default:
		return Generic, false
	}
}

var (
	activeISA   ISA
	hasOverride bool

	// Set by platform-specific init.
	hasASIMD   bool
	hasAVX2    bool
	hasAVX512F bool
)

// initCapabilities is called from platform-specific init functions
// after CPU features are detected.
func initCapabilities() {
	if override := os.Getenv("VAMANA_SIMD"); override != "" {
		if isa, ok := ParseISA(override); ok && isISAAvailable(isa) {
			hasOverride = true
			activeISA = isa
			selectKernels()
			return
		}
	}

	activeISA = selectBestISA()
	selectKernels()
}

func isISAAvailable(isa ISA) bool {
	switch isa {
	case Generic:
		return true
	case NEON:
		return hasASIMD
	case AVX2:
		return hasAVX2
	case AVX512:
		return hasAVX512F
	default:
		return false
	}
}

func selectBestISA() ISA {
	switch runtime.GOARCH {
	case "arm64":
		if hasASIMD {
			return NEON
		}
	case "amd64":
		if hasAVX512F {
			return AVX512
		}
		if hasAVX2 {
			return AVX2
		}
	}
	return Generic
}

// selectKernels wires the float32 kernels for the active ISA. Wide ISAs get
// the 8-way unrolled loops which the compiler schedules across more ports.
func selectKernels() {
	switch activeISA {
	case Generic:
		dotImpl = dotGeneric
		squaredL2Impl = squaredL2Generic
	case NEON:
		dotImpl = dotUnroll4
		squaredL2Impl = squaredL2Unroll4
	default:
		dotImpl = dotUnroll8
		squaredL2Impl = squaredL2Unroll8
	}
}

// ActiveISA returns the kernel family selected at start-up.
func ActiveISA() ISA {
	return activeISA
}

// Overridden reports whether VAMANA_SIMD selected the active ISA.
func Overridden() bool {
	return hasOverride
}
