// Package fuzzy implements a Mamdani style fuzzy inference engine with
// trapezoidal membership functions, min/max rule aggregation and centroid
// defuzzification over a discretized output range.
//
// An Engine is configured once with AddMembershipFunction and AddRule and is
// read-only afterwards. Evaluation state (membership degrees and rule firing
// strengths) lives in an Evaluation, so a configured Engine can be shared by
// any number of goroutines, each using its own Evaluation.
package fuzzy

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"example.com/fuzzyctl/base/zaplog"
)

// DefaultSteps is the default number of discretization intervals used for
// centroid defuzzification.
const DefaultSteps = 8

type registry struct {
	slots map[string]int
	mfs   []MembershipFunction
}

func (r *registry) lookup(name string) (int, bool) {
	i, ok := r.slots[name]
	return i, ok
}

type Engine struct {
	log     *zap.Logger
	inputs  registry
	outputs registry
	rules   []rule

	mu sync.Mutex
	ev *Evaluation
}

func NewEngine(log *zap.Logger) *Engine {
	return &Engine{
		log:     zaplog.Or(log),
		inputs:  registry{slots: make(map[string]int)},
		outputs: registry{slots: make(map[string]int)},
	}
}

func (e *Engine) registry(kind Kind) *registry {
	switch kind {
	case Input:
		return &e.inputs
	case Output:
		return &e.outputs
	default:
		panic("unexpected membership function kind")
	}
}

// AddMembershipFunction registers a membership function in the namespace of
// its kind. Registering a name again replaces the previous definition in
// place; rules that already refer to the name see the new shape.
func (e *Engine) AddMembershipFunction(name string, start, topLeft, topRight, end float64,
	group int, kind Kind) error {
	mf := MembershipFunction{
		Name:     name,
		Start:    start,
		TopLeft:  topLeft,
		TopRight: topRight,
		End:      end,
		Group:    group,
		Kind:     kind,
	}
	return e.Add(mf)
}

// Add is AddMembershipFunction taking a MembershipFunction value.
func (e *Engine) Add(mf MembershipFunction) error {
	err := mf.validate()
	if err != nil {
		return err
	}
	r := e.registry(mf.Kind)
	i, ok := r.lookup(mf.Name)
	if !ok {
		r.slots[mf.Name] = len(r.mfs)
		r.mfs = append(r.mfs, mf)
		e.log.Debug("added membership function",
			zap.Stringer("kind", mf.Kind),
			zap.Stringer("mf", &mf))
		return nil
	}
	if mf.Kind == Output && mf.Group != r.mfs[i].Group && mf.Group != DisabledGroup {
		for j := range e.rules {
			b := &e.rules[j]
			if slices.Contains(b.consequents, i) && b.hasConsequentGroup(e.outputs.mfs, mf.Group, i) {
				return fmt.Errorf("%w: redefining %q would conflict with rule %d (%v)",
					ErrDuplicateConsequentGroup, mf.Name, j, b.spec)
			}
		}
	}
	e.log.Debug("replaced membership function",
		zap.Stringer("kind", mf.Kind),
		zap.Stringer("old", &r.mfs[i]),
		zap.Stringer("new", &mf))
	r.mfs[i] = mf
	return nil
}

// AddRule resolves the names of r against the input and output namespaces and
// appends the bound rule to the rule base.
func (e *Engine) AddRule(r RuleSpec) error {
	if len(r.Antecedents) == 0 || len(r.Consequents) == 0 {
		return fmt.Errorf("%w: %v", ErrEmptyRule, r)
	}
	b := rule{
		spec: RuleSpec{
			Antecedents: slices.Clone(r.Antecedents),
			Consequents: slices.Clone(r.Consequents),
		},
		antecedents: make([]int, len(r.Antecedents)),
		consequents: make([]int, 0, len(r.Consequents)),
	}
	for k, name := range r.Antecedents {
		i, ok := e.inputs.lookup(name)
		if !ok {
			return fmt.Errorf("%w: antecedent %q in rule %v", ErrUnknownMembershipFunction, name, r)
		}
		b.antecedents[k] = i
	}
	for _, name := range r.Consequents {
		i, ok := e.outputs.lookup(name)
		if !ok {
			return fmt.Errorf("%w: consequent %q in rule %v", ErrUnknownMembershipFunction, name, r)
		}
		g := e.outputs.mfs[i].Group
		if g != DisabledGroup && b.hasConsequentGroup(e.outputs.mfs, g, -1) {
			return fmt.Errorf("%w: group %d in rule %v", ErrDuplicateConsequentGroup, g, r)
		}
		b.consequents = append(b.consequents, i)
	}
	e.rules = append(e.rules, b)
	e.log.Debug("added rule", zap.Int("index", len(e.rules)-1), zap.Stringer("rule", r))
	return nil
}

// hasConsequentGroup reports whether one of the consequents bound so far,
// other than slot skip, belongs to group.
func (r *rule) hasConsequentGroup(outputs []MembershipFunction, group, skip int) bool {
	for _, i := range r.consequents {
		if i != skip && outputs[i].Group == group {
			return true
		}
	}
	return false
}

// MembershipFunction returns the definition registered under name.
func (e *Engine) MembershipFunction(kind Kind, name string) (MembershipFunction, bool) {
	r := e.registry(kind)
	i, ok := r.lookup(name)
	if !ok {
		return MembershipFunction{}, false
	}
	return r.mfs[i], true
}

// MembershipFunctions returns the definitions of the given kind in
// registration order.
func (e *Engine) MembershipFunctions(kind Kind) []MembershipFunction {
	return slices.Clone(e.registry(kind).mfs)
}

// Groups returns the highest group index in use for the given kind.
func (e *Engine) Groups(kind Kind) int {
	n := 0
	for _, mf := range e.registry(kind).mfs {
		n = max(n, mf.Group)
	}
	return n
}

func (e *Engine) Rules() []RuleSpec {
	rs := make([]RuleSpec, len(e.rules))
	for i := range e.rules {
		rs[i] = e.rules[i].spec
	}
	return rs
}

// NewEvaluation returns a fresh evaluation context for e. All degrees and
// firing strengths start at 0.
func (e *Engine) NewEvaluation() *Evaluation {
	ev := &Evaluation{e: e}
	ev.grow()
	return ev
}

func (e *Engine) defaultEvaluation() *Evaluation {
	if e.ev == nil {
		e.ev = e.NewEvaluation()
	}
	return e.ev
}

// Fuzzify fuzzifies inputs into the engine's own evaluation context. Access to
// that context is serialized; a Fuzzify from one goroutine followed by a
// DefuzzifyCentroid from another still interleaves, so concurrent callers
// should use NewEvaluation instead.
func (e *Engine) Fuzzify(inputs ...float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.defaultEvaluation().Fuzzify(inputs...)
}

// DefuzzifyCentroid defuzzifies output group against the most recent
// Fuzzify on the engine's own evaluation context.
func (e *Engine) DefuzzifyCentroid(group int, outMin, outMax float64, steps int) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.defaultEvaluation().DefuzzifyCentroid(group, outMin, outMax, steps)
}
