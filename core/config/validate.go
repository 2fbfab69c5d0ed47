package config

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidRuleSet}, args...)...)
}

// Validate checks rs for structural errors and reports all of them. A set
// name defined more than once in a namespace is not an error: the last
// definition wins, as it does when membership functions are registered with
// an engine directly.
func Validate(rs *RuleSet) error {
	var err error
	if rs.Name == "" {
		err = multierr.Append(err, invalid("missing name"))
	}
	if rs.Steps < 0 {
		err = multierr.Append(err, invalid("negative steps %d", rs.Steps))
	}
	if len(rs.Inputs) == 0 {
		err = multierr.Append(err, invalid("no inputs"))
	}
	if len(rs.Outputs) == 0 {
		err = multierr.Append(err, invalid("no outputs"))
	}
	if len(rs.Rules) == 0 {
		err = multierr.Append(err, invalid("no rules"))
	}

	inputs, inputErrs := validateVariables("input", rs.Inputs)
	outputs, outputErrs := validateVariables("output", rs.Outputs)
	err = multierr.Combine(err, inputErrs, outputErrs)

	for i, r := range rs.Rules {
		if len(r.If) == 0 {
			err = multierr.Append(err, invalid("rule %d has no antecedents", i))
		}
		if len(r.Then) == 0 {
			err = multierr.Append(err, invalid("rule %d has no consequents", i))
		}
		for _, name := range r.If {
			if _, ok := inputs[name]; !ok {
				err = multierr.Append(err, invalid("rule %d refers to unknown input set %q", i, name))
			}
		}
		seen := make(map[int]string)
		for _, name := range r.Then {
			ref, ok := outputs[name]
			if !ok {
				err = multierr.Append(err, invalid("rule %d refers to unknown output set %q", i, name))
				continue
			}
			if ref.disabled {
				continue
			}
			if prev, ok := seen[ref.variable]; ok {
				err = multierr.Append(err, invalid("rule %d has consequents %q and %q for output %q",
					i, prev, name, rs.Outputs[ref.variable].Name))
				continue
			}
			seen[ref.variable] = name
		}
	}
	return err
}

type setRef struct {
	variable int
	disabled bool
}

func validateVariables(kind string, vs []Variable) (map[string]setRef, error) {
	var err error
	sets := make(map[string]setRef)
	names := make(map[string]bool)
	for i, v := range vs {
		if v.Name == "" {
			err = multierr.Append(err, invalid("%s %d has no name", kind, i))
		} else if names[v.Name] {
			err = multierr.Append(err, invalid("duplicate %s %q", kind, v.Name))
		}
		names[v.Name] = true
		if !finite(v.Min) || !finite(v.Max) || !(v.Min < v.Max) {
			err = multierr.Append(err, invalid("%s %q has invalid domain [%v, %v]", kind, v.Name, v.Min, v.Max))
		} else if v.Clamp && v.Max-v.Min < 2 {
			err = multierr.Append(err, invalid("%s %q domain [%v, %v] is too narrow to clamp", kind, v.Name, v.Min, v.Max))
		}
		if len(v.Sets) == 0 {
			err = multierr.Append(err, invalid("%s %q has no sets", kind, v.Name))
		}
		for _, s := range v.Sets {
			if s.Name == "" {
				err = multierr.Append(err, invalid("%s %q has a set without name", kind, v.Name))
				continue
			}
			if len(s.Shape) != 4 {
				err = multierr.Append(err, invalid("set %q has %d support points, want 4", s.Name, len(s.Shape)))
			} else if !validShape(s.Shape) {
				err = multierr.Append(err, invalid("set %q has malformed shape %v", s.Name, s.Shape))
			}
			sets[s.Name] = setRef{variable: i, disabled: s.Disabled}
		}
	}
	return sets, err
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func validShape(s []float64) bool {
	for _, x := range s {
		if !finite(x) {
			return false
		}
	}
	return s[0] <= s[1] && s[1] <= s[2] && s[2] <= s[3]
}
