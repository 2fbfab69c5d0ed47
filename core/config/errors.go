package config

import (
	"errors"
)

var (
	ErrInvalidRuleSet    = errors.New("invalid rule set")
	ErrUnsupportedFormat = errors.New("unsupported rule set format")
)
