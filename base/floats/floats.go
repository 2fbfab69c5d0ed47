package floats

import (
	"slices"
)

func Midpoint(x, y float64) float64 {
	return x + (y-x)/2.0
}

func Median(fs []float64) float64 {
	n := len(fs)
	if n == 0 {
		panic("unexpected number of values")
	}
	slices.Sort(fs)
	i := n / 2
	if n%2 != 0 {
		return fs[i]
	}
	return Midpoint(fs[i-1], fs[i])
}

// Clamp restricts x to [lo+1, hi-1]. The one unit margin keeps values off the
// outer support points of shoulder membership functions, where their degree
// would otherwise drop to 0. Tuned rule tables depend on this exact margin.
func Clamp(x, lo, hi float64) float64 {
	if x < lo+1 {
		return lo + 1
	} else if x > hi-1 {
		return hi - 1
	}
	return x
}

// Sample returns the k-th of steps+1 equidistant points spanning [lo, hi].
// Points are computed from their index so that the last one is exactly hi.
func Sample(lo, hi float64, steps, k int) float64 {
	if k == steps {
		return hi
	}
	delta := (hi - lo) / float64(steps)
	return lo + float64(k)*delta
}

func Samples(lo, hi float64, steps int) []float64 {
	if steps < 1 {
		panic("unexpected number of steps")
	}
	ps := make([]float64, steps+1)
	for k := range ps {
		ps[k] = Sample(lo, hi, steps, k)
	}
	return ps
}
