package fuzzy

import (
	"errors"
)

var (
	ErrMalformedMembershipFunction = errors.New("malformed membership function")
	ErrInvalidKind                 = errors.New("invalid membership function kind")
	ErrUnknownMembershipFunction   = errors.New("unknown membership function")
	ErrEmptyRule                   = errors.New("rule needs at least one antecedent and one consequent")
	ErrDuplicateConsequentGroup    = errors.New("rule has more than one consequent in the same output group")
)
