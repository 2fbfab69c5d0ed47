// Package config reads rule sets: the membership functions and rules of one
// decision variable, stored as TOML or YAML.
//
// Input variables are numbered 1..N in the order they appear, and so are
// output variables; these numbers are the group indices the engine uses.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"example.com/fuzzyctl/base/zaplog"
	"example.com/fuzzyctl/core/fuzzy"
)

type RuleSet struct {
	Name    string     `toml:"name" yaml:"name"`
	Steps   int        `toml:"steps,omitempty" yaml:"steps,omitempty"`
	Inputs  []Variable `toml:"inputs" yaml:"inputs"`
	Outputs []Variable `toml:"outputs" yaml:"outputs"`
	Rules   []Rule     `toml:"rules" yaml:"rules"`
}

// Variable is a numeric input or output with domain [Min, Max], represented by
// one or more fuzzy sets. Inputs with Clamp set are restricted to
// [Min+1, Max-1] before fuzzification.
type Variable struct {
	Name  string  `toml:"name" yaml:"name"`
	Min   float64 `toml:"min" yaml:"min"`
	Max   float64 `toml:"max" yaml:"max"`
	Clamp bool    `toml:"clamp,omitempty" yaml:"clamp,omitempty"`
	Sets  []Set   `toml:"sets" yaml:"sets"`
}

// Set is a trapezoidal fuzzy set given by its support points
// [start, topLeft, topRight, end]. Disabled sets are registered with group 0
// and take no part in inference.
type Set struct {
	Name     string    `toml:"name" yaml:"name"`
	Shape    []float64 `toml:"shape" yaml:"shape"`
	Disabled bool      `toml:"disabled,omitempty" yaml:"disabled,omitempty"`
}

type Rule struct {
	If   []string `toml:"if" yaml:"if"`
	Then []string `toml:"then" yaml:"then"`
}

type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatFromPath derives the file format from the extension of path.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// StepsOrDefault returns the configured discretization, or
// fuzzy.DefaultSteps if none is configured.
func (rs *RuleSet) StepsOrDefault() int {
	if rs.Steps == 0 {
		return fuzzy.DefaultSteps
	}
	return rs.Steps
}

func (rs *RuleSet) Input(name string) (group int, v *Variable, ok bool) {
	return lookupVariable(rs.Inputs, name)
}

func (rs *RuleSet) Output(name string) (group int, v *Variable, ok bool) {
	return lookupVariable(rs.Outputs, name)
}

func lookupVariable(vs []Variable, name string) (int, *Variable, bool) {
	for i := range vs {
		if vs[i].Name == name {
			return i + fuzzy.MinGroup, &vs[i], true
		}
	}
	return 0, nil, false
}

// Decode reads and validates a rule set.
func Decode(log *zap.Logger, r io.Reader, format Format) (*RuleSet, error) {
	log = zaplog.Or(log)
	var rs RuleSet
	var err error
	switch format {
	case FormatTOML:
		err = toml.NewDecoder(r).DisallowUnknownFields().Decode(&rs)
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(&rs)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode rule set: %w", err)
	}
	err = Validate(&rs)
	if err != nil {
		return nil, err
	}
	log.Debug("decoded rule set",
		zap.String("name", rs.Name),
		zap.Stringer("format", format),
		zap.Int("inputs", len(rs.Inputs)),
		zap.Int("outputs", len(rs.Outputs)),
		zap.Int("rules", len(rs.Rules)),
	)
	return &rs, nil
}

// Load reads and validates the rule set stored in the file at path.
func Load(log *zap.Logger, path string) (*RuleSet, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load rule set: %w", err)
	}
	rs, err := Decode(log, bytes.NewReader(raw), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// Build configures a new engine with the membership functions and rules of
// rs.
func Build(log *zap.Logger, rs *RuleSet) (*fuzzy.Engine, error) {
	err := Validate(rs)
	if err != nil {
		return nil, err
	}
	e := fuzzy.NewEngine(log)
	add := func(vs []Variable, kind fuzzy.Kind) error {
		for i, v := range vs {
			for _, s := range v.Sets {
				group := i + fuzzy.MinGroup
				if s.Disabled {
					group = fuzzy.DisabledGroup
				}
				err := e.AddMembershipFunction(s.Name,
					s.Shape[0], s.Shape[1], s.Shape[2], s.Shape[3], group, kind)
				if err != nil {
					return fmt.Errorf("variable %q: %w", v.Name, err)
				}
			}
		}
		return nil
	}
	if err = add(rs.Inputs, fuzzy.Input); err != nil {
		return nil, err
	}
	if err = add(rs.Outputs, fuzzy.Output); err != nil {
		return nil, err
	}
	for i, r := range rs.Rules {
		err = e.AddRule(fuzzy.If(r.If...).Then(r.Then...))
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return e, nil
}
