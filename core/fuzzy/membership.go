package fuzzy

import (
	"fmt"
	"math"
)

type Kind int

const (
	Input Kind = iota
	Output
)

func (k Kind) String() string {
	switch k {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

const (
	// DisabledGroup excludes a membership function from fuzzification and
	// defuzzification without removing it from the engine.
	DisabledGroup = 0
	// MinGroup is the first valid group index. Group i is driven by the i-th
	// input passed to Fuzzify, or selected by DefuzzifyCentroid(i, ...).
	MinGroup = 1
)

// MembershipFunction is a trapezoidal fuzzy set over one variable. Its degree
// is 0 at Start and End and 1 on [TopLeft, TopRight]. Triangles have
// TopLeft == TopRight; shoulders have Start == TopLeft or TopRight == End.
type MembershipFunction struct {
	Name                          string
	Start, TopLeft, TopRight, End float64
	Group                         int
	Kind                          Kind
}

// Degree returns the membership degree of x in [0, 1].
func (mf *MembershipFunction) Degree(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return 0
	case x < mf.Start || x > mf.End:
		return 0
	case x >= mf.TopLeft && x <= mf.TopRight:
		return 1
	case x < mf.TopLeft:
		// Start <= x < TopLeft, hence TopLeft > Start.
		return (x - mf.Start) / (mf.TopLeft - mf.Start)
	default:
		// TopRight < x <= End, hence End > TopRight.
		return (mf.End - x) / (mf.End - mf.TopRight)
	}
}

func (mf *MembershipFunction) enabled() bool {
	return mf.Group != DisabledGroup
}

func (mf *MembershipFunction) validate() error {
	if mf.Name == "" {
		return fmt.Errorf("%w: empty name", ErrMalformedMembershipFunction)
	}
	if mf.Kind != Input && mf.Kind != Output {
		return fmt.Errorf("%w: %q has kind %v", ErrInvalidKind, mf.Name, mf.Kind)
	}
	for _, v := range [...]float64{mf.Start, mf.TopLeft, mf.TopRight, mf.End} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %q has non-finite support point %v",
				ErrMalformedMembershipFunction, mf.Name, v)
		}
	}
	if !(mf.Start <= mf.TopLeft && mf.TopLeft <= mf.TopRight && mf.TopRight <= mf.End) {
		return fmt.Errorf("%w: %q violates start <= topLeft <= topRight <= end (%v, %v, %v, %v)",
			ErrMalformedMembershipFunction, mf.Name, mf.Start, mf.TopLeft, mf.TopRight, mf.End)
	}
	if mf.Group < DisabledGroup {
		return fmt.Errorf("%w: %q has negative group %d",
			ErrMalformedMembershipFunction, mf.Name, mf.Group)
	}
	return nil
}

func (mf *MembershipFunction) String() string {
	return fmt.Sprintf("%s(%v, %v, %v, %v)@%d", mf.Name, mf.Start, mf.TopLeft, mf.TopRight, mf.End, mf.Group)
}
