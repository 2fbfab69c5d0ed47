package curve_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/plot/vg"

	"example.com/fuzzyctl/core/controller"
	"example.com/fuzzyctl/core/curve"
	"example.com/fuzzyctl/core/fuzzy"
	"example.com/fuzzyctl/core/rulesets"
	"example.com/fuzzyctl/core/sweep"
)

func TestResponse(t *testing.T) {
	log := zaptest.NewLogger(t)
	rs, err := rulesets.Load(log, rulesets.HeteroMatcher)
	require.NoError(t, err)
	c, err := controller.New(log, rs)
	require.NoError(t, err)
	points, err := sweep.Run(context.Background(), c, "aim", sweep.Options{Points: 11})
	require.NoError(t, err)

	p, err := curve.Response(rs, "aim", points, []int{0, 1, 2})
	require.NoError(t, err)
	require.Equal(t, "aim", p.X.Label.Text)

	var buf bytes.Buffer
	require.NoError(t, curve.WritePDF(&buf, p, 6*vg.Inch, 3*vg.Inch))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))

	_, err = curve.Response(rs, "aim", points, []int{15})
	require.Error(t, err)
}

func TestSets(t *testing.T) {
	log := zaptest.NewLogger(t)
	rs, err := rulesets.Load(log, rulesets.DirectPassSpeed)
	require.NoError(t, err)
	c, err := controller.New(log, rs)
	require.NoError(t, err)

	p, err := curve.Sets(c.Engine(), fuzzy.Input, &rs.Inputs[0])
	require.NoError(t, err)
	require.Equal(t, "distance", p.Title.Text)

	_, err = curve.Sets(c.Engine(), fuzzy.Output, &rs.Inputs[0])
	require.ErrorIs(t, err, fuzzy.ErrUnknownMembershipFunction)

	var buf bytes.Buffer
	require.NoError(t, curve.WritePDF(&buf, p, 4*vg.Inch, 3*vg.Inch))
	require.NotZero(t, buf.Len())
}
