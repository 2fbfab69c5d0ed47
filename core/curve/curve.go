// Package curve renders response curves and membership functions of a rule
// set as PDF plots.
package curve

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"

	"example.com/fuzzyctl/base/floats"
	"example.com/fuzzyctl/core/config"
	"example.com/fuzzyctl/core/fuzzy"
	"example.com/fuzzyctl/core/sweep"
)

const setSamples = 200

// Response plots the swept values of the outputs with the given indices
// against the swept input.
func Response(rs *config.RuleSet, input string, points []sweep.Point, outputs []int) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = rs.Name
	p.X.Label.Text = input
	p.X.Label.Padding = vg.Points(5)
	p.Y.Label.Text = "Output"
	p.Y.Label.Padding = vg.Points(5)
	p.Add(plotter.NewGrid())

	for n, i := range outputs {
		if i < 0 || i >= len(rs.Outputs) {
			return nil, fmt.Errorf("unexpected output index %d", i)
		}
		data := make(plotter.XYs, len(points))
		for k, pt := range points {
			data[k] = plotter.XY{X: pt.X, Y: pt.Decision.Outputs[i]}
		}
		line, err := plotter.NewLine(data)
		if err != nil {
			return nil, err
		}
		line.Color = plotutil.Color(n)
		p.Add(line)
		p.Legend.Add(rs.Outputs[i].Name, line)
	}
	return p, nil
}

// Sets plots the membership functions of variable v, as registered with e.
func Sets(e *fuzzy.Engine, kind fuzzy.Kind, v *config.Variable) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = v.Name
	p.X.Label.Text = v.Name
	p.X.Label.Padding = vg.Points(5)
	p.Y.Label.Text = "Degree"
	p.Y.Label.Padding = vg.Points(5)
	p.Y.Min, p.Y.Max = 0, 1.05
	p.Add(plotter.NewGrid())

	xs := floats.Samples(v.Min, v.Max, setSamples)
	seen := make(map[string]bool)
	for _, s := range v.Sets {
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		mf, ok := e.MembershipFunction(kind, s.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", fuzzy.ErrUnknownMembershipFunction, s.Name)
		}
		data := make(plotter.XYs, len(xs))
		for k, x := range xs {
			data[k] = plotter.XY{X: x, Y: mf.Degree(x)}
		}
		line, err := plotter.NewLine(data)
		if err != nil {
			return nil, err
		}
		line.Color = plotutil.Color(len(seen) - 1)
		if s.Disabled {
			line.Dashes = plotutil.Dashes(1)
		}
		p.Add(line)
		p.Legend.Add(s.Name, line)
	}
	return p, nil
}

// WritePDF draws p onto a PDF page of the given size and writes it to w.
func WritePDF(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	c := vgpdf.New(width, height)
	c.EmbedFonts(true)
	dc := draw.New(c)
	dc = draw.Crop(dc, 1*vg.Millimeter, -1*vg.Millimeter, 1*vg.Millimeter, -1*vg.Millimeter)
	p.Draw(dc)
	_, err := c.WriteTo(w)
	return err
}
