package fuzzy

import (
	"strings"
)

// RuleSpec names the antecedents and consequents of a rule:
//
//	IF Antecedents[0] AND Antecedents[1] ... THEN Consequents[0] AND ...
//
// Antecedents refer to input membership functions, consequents to output
// membership functions. Build one with If(...).And(...).Then(...).
type RuleSpec struct {
	Antecedents []string
	Consequents []string
}

func If(names ...string) RuleSpec {
	return RuleSpec{Antecedents: append([]string(nil), names...)}
}

func (r RuleSpec) And(names ...string) RuleSpec {
	return RuleSpec{
		Antecedents: append(append([]string(nil), r.Antecedents...), names...),
		Consequents: append([]string(nil), r.Consequents...),
	}
}

func (r RuleSpec) Then(names ...string) RuleSpec {
	return RuleSpec{
		Antecedents: append([]string(nil), r.Antecedents...),
		Consequents: append(append([]string(nil), r.Consequents...), names...),
	}
}

func (r RuleSpec) String() string {
	var b strings.Builder
	b.WriteString("IF ")
	b.WriteString(strings.Join(r.Antecedents, " AND "))
	b.WriteString(" THEN ")
	b.WriteString(strings.Join(r.Consequents, " AND "))
	return b.String()
}

// rule is a RuleSpec bound to registry slots of its engine.
type rule struct {
	spec        RuleSpec
	antecedents []int
	consequents []int
}

// firingStrength is the minimum degree of the rule's antecedents.
func (r *rule) firingStrength(degrees []float64) float64 {
	s := degrees[r.antecedents[0]]
	for _, i := range r.antecedents[1:] {
		s = min(s, degrees[i])
	}
	return s
}

// outputStrength clips the degree of the consequent in group at p by the
// firing strength. Rules without a consequent in group contribute 0.
func (r *rule) outputStrength(outputs []MembershipFunction, firing float64, group int, p float64) float64 {
	if firing == 0 || group == DisabledGroup {
		return 0
	}
	for _, i := range r.consequents {
		mf := &outputs[i]
		if mf.Group == group {
			return min(firing, mf.Degree(p))
		}
	}
	return 0
}
