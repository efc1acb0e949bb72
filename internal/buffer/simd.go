package buffer

import "github.com/klauspost/cpuid/v2"

// simdAlignment returns the byte alignment the widest SIMD register set
// available on this CPU wants for contiguous float32 storage. The audio
// thread never allocates mid-Mix, so this is computed once at package
// init and reused for every Buffer constructed afterward.
func simdAlignment() int {
	switch {
	case cpuid.CPU.Supports(cpuid.AVX512F):
		return 64
	case cpuid.CPU.Supports(cpuid.AVX2), cpuid.CPU.Supports(cpuid.AVX):
		return 32
	case cpuid.CPU.Supports(cpuid.SSE2):
		return 16
	default:
		return 16
	}
}

// Alignment is the SIMD byte alignment channel storage is built with,
// detected once from the running CPU's feature set.
var Alignment = simdAlignment()
