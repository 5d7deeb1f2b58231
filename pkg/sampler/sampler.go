// Package sampler bounds the number of connection primitives drawn between
// two adjacent layers.
//
// Instead of the full n×m cross product, [Sample] walks both index ranges
// with integer strides so the emitted pair count never exceeds the limit. Each
// pair carries a synthetic weight drawn from a PRNG seeded by the caller, so
// the same (seed, counts, limit) always reproduces identical samples.
package sampler

import (
	"math"
	"math/rand/v2"
)

// DefaultCap is the connection budget per layer pair.
const DefaultCap = 200

// Connection is one sampled (source, destination, weight) triple. Weight is
// in [-1, 1).
type Connection struct {
	Src    int     `json:"src"`
	Dst    int     `json:"dst"`
	Weight float64 `json:"weight"`
}

// Strides returns the source and destination strides for a pair of layers.
// It starts from max(1, floor(n/sqrt(limit))) per side, then grows the stride
// of the side with more remaining samples until the stepped cross product
// fits within limit.
func Strides(src, dst, limit int) (skipSrc, skipDst int) {
	if src <= 0 || dst <= 0 || limit <= 0 {
		return 1, 1
	}
	root := math.Sqrt(float64(limit))
	skipSrc = max(1, int(float64(src)/root))
	skipDst = max(1, int(float64(dst)/root))
	for ceilDiv(src, skipSrc)*ceilDiv(dst, skipDst) > limit {
		if ceilDiv(src, skipSrc) >= ceilDiv(dst, skipDst) {
			skipSrc++
		} else {
			skipDst++
		}
	}
	return skipSrc, skipDst
}

// Count returns the number of samples [Sample] emits for the given counts.
func Count(src, dst, limit int) int {
	if src <= 0 || dst <= 0 || limit <= 0 {
		return 0
	}
	ss, sd := Strides(src, dst, limit)
	return ceilDiv(src, ss) * ceilDiv(dst, sd)
}

// Sample emits the strided cross product of source and destination indices
// with seeded weights. Non-positive counts or limit yield no samples.
func Sample(src, dst, limit int, seed uint64) []Connection {
	n := Count(src, dst, limit)
	if n == 0 {
		return nil
	}
	ss, sd := Strides(src, dst, limit)
	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))

	out := make([]Connection, 0, n)
	for i := 0; i < src; i += ss {
		for j := 0; j < dst; j += sd {
			out = append(out, Connection{Src: i, Dst: j, Weight: rng.Float64()*2 - 1})
		}
	}
	return out
}

// PairSeed derives the seed for the layer pair starting at index pair from a
// model-level seed.
func PairSeed(base uint64, pair int) uint64 {
	// splitmix64 finalizer
	z := base + uint64(pair+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
