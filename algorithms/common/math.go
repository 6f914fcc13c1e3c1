package common

import (
	"runtime"
)

// IsPowerOfTwo checks if n is a power of two
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// NextPowerOfTwo returns the smallest power of two >= n
func NextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// OptimalWorkerCount picks a worker count for jobs independent tasks.
// A positive requested value wins; otherwise it scales with the CPU count.
func OptimalWorkerCount(requested, jobs int) int {
	if jobs <= 0 {
		return 1
	}
	if requested > 0 {
		return min(requested, jobs)
	}

	numCPU := runtime.NumCPU()

	// For small workloads, don't over-parallelize
	if jobs < 100 {
		return max(1, min(numCPU/2, jobs))
	}

	// For medium workloads, use most CPUs
	if jobs < 1000 {
		return min(numCPU, 8)
	}

	return numCPU
}
