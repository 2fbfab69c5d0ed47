// Package rulesets provides the built-in rule sets.
package rulesets

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"go.uber.org/zap"

	"example.com/fuzzyctl/core/config"
)

const (
	DirectPassSpeed       = "direct_pass_speed"
	OffensivePositionEval = "offensive_position_eval"
	HeteroMatcher         = "hetero_matcher"
)

var ErrUnknownRuleSet = errors.New("unknown rule set")

//go:embed data/*.toml
var data embed.FS

// Names returns the names of the built-in rule sets in lexical order.
func Names() []string {
	entries, err := data.ReadDir("data")
	if err != nil {
		panic(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".toml"))
	}
	slices.Sort(names)
	return names
}

// Load decodes the built-in rule set with the given name.
func Load(log *zap.Logger, name string) (*config.RuleSet, error) {
	raw, err := data.ReadFile(path.Join("data", name+".toml"))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRuleSet, name)
	}
	rs, err := config.Decode(log, bytes.NewReader(raw), config.FormatTOML)
	if err != nil {
		panic(fmt.Sprintf("unexpected invalid built-in rule set %q: %v", name, err))
	}
	return rs, nil
}
