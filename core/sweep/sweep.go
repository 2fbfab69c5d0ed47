// Package sweep evaluates the response curve of a controller along one input.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"example.com/fuzzyctl/base/floats"
	"example.com/fuzzyctl/core/controller"
)

var ErrUnknownInput = errors.New("unknown input variable")

type Point struct {
	X        float64
	Decision controller.Decision
}

type Options struct {
	// Points is the number of sampled input values, at least 2.
	Points int
	// Workers bounds the number of concurrent evaluations. Zero means
	// runtime.GOMAXPROCS(0).
	Workers int
	// Fixed overrides the midpoint value of other inputs, by name.
	Fixed map[string]float64
}

// Run samples the named input at opts.Points equidistant values across its
// domain, holding every other input at its midpoint, and returns the decisions
// in input order.
func Run(ctx context.Context, c *controller.Controller, input string, opts Options) ([]Point, error) {
	rs := c.RuleSet()
	group, v, ok := rs.Input(input)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInput, input)
	}
	if opts.Points < 2 {
		return nil, fmt.Errorf("invalid number of points: %d", opts.Points)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, opts.Points)

	base := make([]float64, len(rs.Inputs))
	for i, w := range rs.Inputs {
		base[i] = floats.Midpoint(w.Min, w.Max)
	}
	for name, x := range opts.Fixed {
		g, _, ok := rs.Input(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownInput, name)
		}
		base[g-1] = x
	}

	xs := floats.Samples(v.Min, v.Max, opts.Points-1)
	points := make([]Point, len(xs))
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			ev := c.Engine().NewEvaluation()
			inputs := make([]float64, len(base))
			for k := w; k < len(xs); k += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				copy(inputs, base)
				inputs[group-1] = xs[k]
				d, err := c.DecideWith(ev, inputs...)
				if err != nil {
					return err
				}
				points[k] = Point{X: xs[k], Decision: d}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}
