// Package controller computes decisions from a rule set: it clamps the
// inputs to their domains, runs inference and defuzzifies every output.
package controller

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"example.com/fuzzyctl/base/floats"
	"example.com/fuzzyctl/base/metrics"
	"example.com/fuzzyctl/base/zaplog"

	"example.com/fuzzyctl/core/config"
	"example.com/fuzzyctl/core/fuzzy"
)

var ErrInputCount = errors.New("unexpected number of inputs")

var (
	decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: metrics.ControllerDecisionsN,
		Help: metrics.ControllerDecisionsH,
	}, []string{metrics.LabelRuleSet})
	noDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: metrics.ControllerNoDecisionN,
		Help: metrics.ControllerNoDecisionH,
	}, []string{metrics.LabelRuleSet, metrics.LabelOutput})
)

// Decision holds one value per output variable, in rule set order.
// NoDecision[i] reports that no rule supported output i, in which case
// Outputs[i] is 0.
type Decision struct {
	Outputs    []float64
	NoDecision []bool
}

// Controller is safe for concurrent use.
type Controller struct {
	log    *zap.Logger
	rs     *config.RuleSet
	engine *fuzzy.Engine

	decisions   prometheus.Counter
	noDecisions []prometheus.Counter
}

func New(log *zap.Logger, rs *config.RuleSet) (*Controller, error) {
	log = zaplog.Or(log)
	e, err := config.Build(log, rs)
	if err != nil {
		return nil, err
	}
	c := &Controller{
		log:       log.With(zap.String("ruleset", rs.Name)),
		rs:        rs,
		engine:    e,
		decisions: decisions.WithLabelValues(rs.Name),
	}
	for _, v := range rs.Outputs {
		c.noDecisions = append(c.noDecisions, noDecisions.WithLabelValues(rs.Name, v.Name))
	}
	return c, nil
}

func (c *Controller) Name() string { return c.rs.Name }

func (c *Controller) RuleSet() *config.RuleSet { return c.rs }

func (c *Controller) Engine() *fuzzy.Engine { return c.engine }

// Decide computes a decision with the rule set's discretization.
func (c *Controller) Decide(inputs ...float64) (Decision, error) {
	return c.DecideSteps(c.rs.StepsOrDefault(), inputs...)
}

// DecideSteps computes a decision with steps discretization intervals. One
// value per input variable is required.
func (c *Controller) DecideSteps(steps int, inputs ...float64) (Decision, error) {
	return c.decide(c.engine.NewEvaluation(), steps, inputs)
}

// DecideWith is Decide reusing the caller's evaluation context, which must
// have been created by c.Engine().
func (c *Controller) DecideWith(ev *fuzzy.Evaluation, inputs ...float64) (Decision, error) {
	return c.decide(ev, c.rs.StepsOrDefault(), inputs)
}

func (c *Controller) decide(ev *fuzzy.Evaluation, steps int, inputs []float64) (Decision, error) {
	if len(inputs) != len(c.rs.Inputs) {
		return Decision{}, fmt.Errorf("%w: got %d, want %d", ErrInputCount, len(inputs), len(c.rs.Inputs))
	}
	if steps < 1 {
		return Decision{}, fmt.Errorf("invalid number of discretization steps: %d", steps)
	}
	xs := make([]float64, len(inputs))
	for i, v := range c.rs.Inputs {
		xs[i] = inputs[i]
		if v.Clamp {
			xs[i] = floats.Clamp(xs[i], v.Min, v.Max)
		}
	}
	ev.Fuzzify(xs...)
	d := Decision{
		Outputs:    make([]float64, len(c.rs.Outputs)),
		NoDecision: make([]bool, len(c.rs.Outputs)),
	}
	for i, v := range c.rs.Outputs {
		value, strength := ev.Centroid(i+fuzzy.MinGroup, v.Min, v.Max, steps)
		d.Outputs[i] = value
		if strength == 0 {
			d.NoDecision[i] = true
			c.noDecisions[i].Inc()
		}
	}
	c.decisions.Inc()
	if ce := c.log.Check(zap.DebugLevel, "decided"); ce != nil {
		ce.Write(zap.Float64s("inputs", inputs), zap.Float64s("outputs", d.Outputs))
	}
	return d, nil
}
