// Package primes builds the prime list used to decide record eligibility.
package primes

import (
	"math"

	"github.com/bits-and-blooms/bitset"
)

// Sieve returns all primes in [2, n] in ascending order.
//
// Composites are struck from each prime's square upwards. A bound below 2
// yields an empty list.
func Sieve(n uint64) []uint64 {
	if n < 2 {
		return []uint64{}
	}

	composite := bitset.New(uint(n + 1))
	for i := uint64(2); i*i <= n; i++ {
		if composite.Test(uint(i)) {
			continue
		}
		for j := i * i; j <= n; j += i {
			composite.Set(uint(j))
		}
	}

	out := make([]uint64, 0, estimateCount(n))
	for i := uint64(2); i <= n; i++ {
		if !composite.Test(uint(i)) {
			out = append(out, i)
		}
	}
	return out
}

// ISqrt returns floor(sqrt(n)).
func ISqrt(n uint64) uint64 {
	r := uint64(math.Sqrt(float64(n)))
	// float64 loses precision above 2^53; settle on the exact floor.
	for r > 0 && r > n/r {
		r--
	}
	for (r+1) <= n/(r+1) {
		r++
	}
	return r
}

// Eligible reports whether weight has no proper factor among primes.
//
// A weight equal to one of the primes is itself prime and stays eligible.
// Weights 0 and 1 have no prime factor and are eligible.
func Eligible(weight uint64, primes []uint64) bool {
	if weight < 2 {
		return true
	}
	for _, p := range primes {
		if p >= weight {
			break
		}
		if weight%p == 0 {
			return false
		}
	}
	return true
}

// estimateCount is an upper estimate of pi(n) used to size the result.
func estimateCount(n uint64) int {
	if n < 17 {
		return 8
	}
	f := float64(n)
	return int(1.26*f/math.Log(f)) + 1
}
