package sweep_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"example.com/fuzzyctl/core/controller"
	"example.com/fuzzyctl/core/rulesets"
	"example.com/fuzzyctl/core/sweep"
)

func newController(t *testing.T, name string) *controller.Controller {
	t.Helper()
	log := zaptest.NewLogger(t)
	rs, err := rulesets.Load(log, name)
	require.NoError(t, err)
	c, err := controller.New(log, rs)
	require.NoError(t, err)
	return c
}

func TestRun(t *testing.T) {
	c := newController(t, rulesets.DirectPassSpeed)
	points, err := sweep.Run(context.Background(), c, "distance", sweep.Options{Points: 21, Workers: 4})
	require.NoError(t, err)
	require.Len(t, points, 21)

	for k, p := range points {
		require.Equal(t, float64(1+k), p.X)
		d, err := c.Decide(p.X)
		require.NoError(t, err)
		require.Equal(t, d.Outputs, p.Decision.Outputs)
	}
	require.InDelta(t, 1.5669, points[0].Decision.Outputs[0], 1e-4)
	require.InDelta(t, 2.06, points[10].Decision.Outputs[0], 1e-9)
	require.InDelta(t, 2.5531, points[20].Decision.Outputs[0], 1e-4)
	for k := 1; k < len(points); k++ {
		require.GreaterOrEqual(t, points[k].Decision.Outputs[0], points[k-1].Decision.Outputs[0])
	}
}

func TestRunFixed(t *testing.T) {
	c := newController(t, rulesets.OffensivePositionEval)
	points, err := sweep.Run(context.Background(), c, "distCurrPos", sweep.Options{
		Points: 5,
		Fixed:  map[string]float64{"distBallPos": 15},
	})
	require.NoError(t, err)
	require.Len(t, points, 5)
	// Being far from the current position lowers the evaluation.
	require.Greater(t, points[0].Decision.Outputs[0], points[4].Decision.Outputs[0])
	for _, p := range points {
		require.False(t, math.IsNaN(p.Decision.Outputs[0]))
	}
}

func TestRunErrors(t *testing.T) {
	c := newController(t, rulesets.DirectPassSpeed)
	ctx := context.Background()

	_, err := sweep.Run(ctx, c, "speed", sweep.Options{Points: 10})
	require.ErrorIs(t, err, sweep.ErrUnknownInput)

	_, err = sweep.Run(ctx, c, "distance", sweep.Options{Points: 10, Fixed: map[string]float64{"angle": 0}})
	require.ErrorIs(t, err, sweep.ErrUnknownInput)

	_, err = sweep.Run(ctx, c, "distance", sweep.Options{Points: 1})
	require.Error(t, err)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = sweep.Run(canceled, c, "distance", sweep.Options{Points: 10})
	require.ErrorIs(t, err, context.Canceled)
}
