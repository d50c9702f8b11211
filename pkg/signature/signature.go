// Package signature computes truncated path signatures of piecewise-linear
// streams. The signature of a path is the sequence of its iterated integrals;
// truncated at order m for a d-dimensional stream it is a feature vector of
// length (d^(m+1)-1)/(d-1) laid out flat as
// [1, level-1 (d terms), level-2 (d^2 terms), ..., level-m (d^m terms)].
package signature

import (
	"fmt"
	"math"
)

// Dim returns the length of the flattened signature vector for a
// stream of the given dimension truncated at the given order.
func Dim(dim, order int) int {
	total := 1
	size := 1
	for k := 1; k <= order; k++ {
		size *= dim
		total += size
	}
	return total
}

// Compute returns the truncated signature of the stream up to the given
// order. A single-point stream yields the trivial signature (1, 0, ...).
func Compute(stream [][]float64, order int) ([]float64, error) {
	if order < 1 {
		return nil, fmt.Errorf("invalid signature order: %d", order)
	}
	if len(stream) == 0 {
		return nil, fmt.Errorf("empty stream")
	}
	d := len(stream[0])
	if d == 0 {
		return nil, fmt.Errorf("zero-dimensional stream")
	}

	sig := identity(d, order)
	delta := make([]float64, d)
	for i := 1; i < len(stream); i++ {
		if len(stream[i]) != d {
			return nil, fmt.Errorf("point %d: dimension mismatch: %d != %d", i, len(stream[i]), d)
		}
		for j := range delta {
			delta[j] = stream[i][j] - stream[i-1][j]
			if math.IsNaN(delta[j]) || math.IsInf(delta[j], 0) {
				return nil, fmt.Errorf("point %d: non-finite value in dimension %d", i, j)
			}
		}
		sig = chen(sig, segment(delta, order), d)
	}

	return flatten(sig), nil
}

// TimeAugment prepends a normalized time coordinate (0..1) to each point of
// the stream. Without it, the signature of a monotone reparameterization of
// a path is indistinguishable from the original.
func TimeAugment(stream [][]float64) [][]float64 {
	n := len(stream)
	out := make([][]float64, n)
	for i, p := range stream {
		var t float64
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		q := make([]float64, len(p)+1)
		q[0] = t
		copy(q[1:], p)
		out[i] = q
	}
	return out
}

// identity is the signature of the constant path: 1 at level zero,
// zeros everywhere else.
func identity(d, order int) [][]float64 {
	levels := make([][]float64, order+1)
	levels[0] = []float64{1}
	size := 1
	for k := 1; k <= order; k++ {
		size *= d
		levels[k] = make([]float64, size)
	}
	return levels
}

// segment is the signature of a single linear segment with increment delta:
// level k equals delta^(tensor k) / k!.
func segment(delta []float64, order int) [][]float64 {
	d := len(delta)
	levels := make([][]float64, order+1)
	levels[0] = []float64{1}
	for k := 1; k <= order; k++ {
		prev := levels[k-1]
		cur := make([]float64, len(prev)*d)
		inv := 1.0 / float64(k)
		for a, pv := range prev {
			if pv == 0 {
				continue
			}
			base := a * d
			for i, dv := range delta {
				cur[base+i] = pv * dv * inv
			}
		}
		levels[k] = cur
	}
	return levels
}

// chen multiplies two signatures in the truncated tensor algebra:
// out level k is the sum over j of a[j] tensor b[k-j]. By Chen's identity
// this is the signature of the concatenated path.
func chen(a, b [][]float64, d int) [][]float64 {
	order := len(a) - 1
	out := make([][]float64, order+1)
	out[0] = []float64{a[0][0] * b[0][0]}
	for k := 1; k <= order; k++ {
		cur := make([]float64, len(a[k]))
		for j := 0; j <= k; j++ {
			aj, bkj := a[j], b[k-j]
			nb := len(bkj)
			for x, av := range aj {
				if av == 0 {
					continue
				}
				base := x * nb
				for y, bv := range bkj {
					cur[base+y] += av * bv
				}
			}
		}
		out[k] = cur
	}
	return out
}

func flatten(levels [][]float64) []float64 {
	n := 0
	for _, l := range levels {
		n += len(l)
	}
	out := make([]float64, 0, n)
	for _, l := range levels {
		out = append(out, l...)
	}
	return out
}
