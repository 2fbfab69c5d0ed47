package fuzzy

import (
	"example.com/fuzzyctl/base/floats"
)

// Evaluation holds the transient state of one fuzzify/defuzzify cycle: the
// degree of every input membership function and the firing strength of every
// rule. It is not safe for concurrent use; use one Evaluation per goroutine.
type Evaluation struct {
	e       *Engine
	degrees []float64
	firing  []float64
}

// grow extends the context to membership functions and rules added to the
// engine after the context was created.
func (ev *Evaluation) grow() {
	if n := len(ev.e.inputs.mfs); len(ev.degrees) < n {
		ev.degrees = append(ev.degrees, make([]float64, n-len(ev.degrees))...)
	}
	if n := len(ev.e.rules); len(ev.firing) < n {
		ev.firing = append(ev.firing, make([]float64, n-len(ev.firing))...)
	}
}

func (ev *Evaluation) Reset() {
	clear(ev.degrees)
	clear(ev.firing)
}

// Fuzzify computes the degree of every input membership function whose group
// is in [1, len(inputs)] from inputs[group-1]. Degrees of membership functions
// in other groups keep their previous value.
func (ev *Evaluation) Fuzzify(inputs ...float64) {
	ev.grow()
	for i := range ev.e.inputs.mfs {
		mf := &ev.e.inputs.mfs[i]
		if mf.enabled() && mf.Group <= len(inputs) {
			ev.degrees[i] = mf.Degree(inputs[mf.Group-1])
		}
	}
}

// Degree returns the current degree of the named input membership function.
func (ev *Evaluation) Degree(name string) (float64, bool) {
	i, ok := ev.e.inputs.lookup(name)
	if !ok {
		return 0, false
	}
	ev.grow()
	return ev.degrees[i], true
}

// FiringStrengths returns the firing strength of every rule, in rule order,
// as of the last defuzzification.
func (ev *Evaluation) FiringStrengths() []float64 {
	ev.grow()
	return append([]float64(nil), ev.firing...)
}

// Centroid is DefuzzifyCentroid that also returns the total aggregated
// strength over all sampled points. A total of 0 means that no rule supports
// any value of the output, in which case the centroid is reported as 0.
func (ev *Evaluation) Centroid(group int, outMin, outMax float64, steps int) (value, strength float64) {
	if steps < 1 {
		panic("unexpected number of discretization steps")
	}
	if !(outMin <= outMax) {
		panic("unexpected output range")
	}
	ev.grow()
	rules := ev.e.rules
	outputs := ev.e.outputs.mfs
	for i := range rules {
		ev.firing[i] = rules[i].firingStrength(ev.degrees)
	}
	var num, den float64
	for k := 0; k <= steps; k++ {
		p := floats.Sample(outMin, outMax, steps, k)
		var s float64
		for i := range rules {
			s = max(s, rules[i].outputStrength(outputs, ev.firing[i], group, p))
		}
		num += p * s
		den += s
	}
	if den == 0 {
		return 0, 0
	}
	return num / den, den
}

// DefuzzifyCentroid returns the center of gravity of the aggregated output
// fuzzy set of group, sampled at steps+1 equidistant points over
// [outMin, outMax]. Rule firing strengths are recomputed from the most recent
// Fuzzify. If no rule supports the output at any sampled point the result is
// 0, which may lie outside [outMin, outMax]; see Centroid to detect this.
func (ev *Evaluation) DefuzzifyCentroid(group int, outMin, outMax float64, steps int) float64 {
	v, _ := ev.Centroid(group, outMin, outMax, steps)
	return v
}
