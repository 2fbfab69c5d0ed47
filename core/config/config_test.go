package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"example.com/fuzzyctl/core/config"
	"example.com/fuzzyctl/core/fuzzy"
)

func TestLoad(t *testing.T) {
	log := zaptest.NewLogger(t)

	tomlRS, err := config.Load(log, filepath.Join("testdata", "pass_speed.toml"))
	require.NoError(t, err)
	yamlRS, err := config.Load(log, filepath.Join("testdata", "pass_speed.yaml"))
	require.NoError(t, err)

	require.Equal(t, fuzzy.DefaultSteps, tomlRS.StepsOrDefault())
	require.Equal(t, 16, yamlRS.StepsOrDefault())

	yamlRS.Steps = 0
	require.Equal(t, tomlRS, yamlRS)

	group, v, ok := tomlRS.Input("distance")
	require.True(t, ok)
	require.Equal(t, 1, group)
	require.True(t, v.Clamp)
	require.Equal(t, 21.0, v.Max)

	group, v, ok = tomlRS.Output("speed")
	require.True(t, ok)
	require.Equal(t, 1, group)
	require.Equal(t, 0.81, v.Min)

	_, _, ok = tomlRS.Input("speed")
	require.False(t, ok)
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(nil, filepath.Join("testdata", "pass_speed.json"))
	require.ErrorIs(t, err, config.ErrUnsupportedFormat)

	_, err = config.Load(nil, filepath.Join("testdata", "missing.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecodeUnknownFields(t *testing.T) {
	_, err := config.Decode(nil, strings.NewReader("name = \"x\"\nbogus = 1\n"), config.FormatTOML)
	require.Error(t, err)

	_, err = config.Decode(nil, strings.NewReader("name: x\nbogus: 1\n"), config.FormatYAML)
	require.Error(t, err)

	_, err = config.Decode(nil, strings.NewReader(""), config.Format(9))
	require.ErrorIs(t, err, config.ErrUnsupportedFormat)
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    config.Format
		wantErr bool
	}{
		{"a.toml", config.FormatTOML, false},
		{"dir/a.TOML", config.FormatTOML, false},
		{"a.yaml", config.FormatYAML, false},
		{"a.yml", config.FormatYAML, false},
		{"a.json", 0, true},
		{"a", 0, true},
	}
	for _, tt := range tests {
		got, err := config.FormatFromPath(tt.path)
		if tt.wantErr {
			require.ErrorIs(t, err, config.ErrUnsupportedFormat, tt.path)
			continue
		}
		require.NoError(t, err, tt.path)
		require.Equal(t, tt.want, got, tt.path)
	}
}

func validRuleSet() *config.RuleSet {
	return &config.RuleSet{
		Name: "r",
		Inputs: []config.Variable{{
			Name: "x", Min: 0, Max: 10, Clamp: true,
			Sets: []config.Set{
				{Name: "xLow", Shape: []float64{0, 0, 0, 10}},
				{Name: "xHigh", Shape: []float64{0, 10, 10, 10}},
			},
		}},
		Outputs: []config.Variable{{
			Name: "y", Min: 0, Max: 1,
			Sets: []config.Set{
				{Name: "yLow", Shape: []float64{0, 0, 0, 1}},
				{Name: "yHigh", Shape: []float64{0, 1, 1, 1}},
				{Name: "yOff", Shape: []float64{0, 1, 1, 1}, Disabled: true},
			},
		}, {
			Name: "z", Min: 0, Max: 1,
			Sets: []config.Set{
				{Name: "zHigh", Shape: []float64{0, 1, 1, 1}},
			},
		}},
		Rules: []config.Rule{
			{If: []string{"xLow"}, Then: []string{"yLow"}},
			{If: []string{"xHigh"}, Then: []string{"yHigh", "yOff", "zHigh"}},
		},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, config.Validate(validRuleSet()))

	tests := []struct {
		name   string
		modify func(rs *config.RuleSet)
		want   []string
	}{
		{"Missing name", func(rs *config.RuleSet) { rs.Name = "" }, []string{"missing name"}},
		{"Negative steps", func(rs *config.RuleSet) { rs.Steps = -1 }, []string{"negative steps"}},
		{"No inputs", func(rs *config.RuleSet) {
			rs.Inputs = nil
			rs.Rules = rs.Rules[:0]
		}, []string{"no inputs", "no rules"}},
		{"No outputs", func(rs *config.RuleSet) {
			rs.Outputs = nil
			rs.Rules = rs.Rules[:0]
		}, []string{"no outputs"}},
		{"Inverted domain", func(rs *config.RuleSet) { rs.Inputs[0].Max = -1 }, []string{"invalid domain"}},
		{"Narrow clamped domain", func(rs *config.RuleSet) { rs.Inputs[0].Max = 1.5 }, []string{"too narrow"}},
		{"Duplicate variable", func(rs *config.RuleSet) {
			rs.Outputs[1].Name = "y"
		}, []string{"duplicate output"}},
		{"Short shape", func(rs *config.RuleSet) {
			rs.Inputs[0].Sets[0].Shape = []float64{0, 1, 2}
		}, []string{"3 support points"}},
		{"Malformed shape", func(rs *config.RuleSet) {
			rs.Inputs[0].Sets[0].Shape = []float64{0, 5, 4, 10}
		}, []string{"malformed shape"}},
		{"Unknown antecedent", func(rs *config.RuleSet) {
			rs.Rules[0].If = []string{"yLow"}
		}, []string{"unknown input set \"yLow\""}},
		{"Unknown consequent", func(rs *config.RuleSet) {
			rs.Rules[0].Then = []string{"xLow"}
		}, []string{"unknown output set \"xLow\""}},
		{"Two consequents for one output", func(rs *config.RuleSet) {
			rs.Rules[0].Then = []string{"yLow", "yHigh"}
		}, []string{"consequents \"yLow\" and \"yHigh\""}},
		{"Empty rule", func(rs *config.RuleSet) {
			rs.Rules[0] = config.Rule{}
		}, []string{"no antecedents", "no consequents"}},
		{"Several problems", func(rs *config.RuleSet) {
			rs.Name = ""
			rs.Rules[1].If = []string{"nope"}
		}, []string{"missing name", "unknown input set \"nope\""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := validRuleSet()
			tt.modify(rs)
			err := config.Validate(rs)
			require.ErrorIs(t, err, config.ErrInvalidRuleSet)
			for _, want := range tt.want {
				require.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	rs := validRuleSet()
	e, err := config.Build(zaptest.NewLogger(t), rs)
	require.NoError(t, err)

	require.Equal(t, 1, e.Groups(fuzzy.Input))
	require.Equal(t, 2, e.Groups(fuzzy.Output))
	require.Len(t, e.Rules(), 2)

	off, ok := e.MembershipFunction(fuzzy.Output, "yOff")
	require.True(t, ok)
	require.Equal(t, fuzzy.DisabledGroup, off.Group)

	z, ok := e.MembershipFunction(fuzzy.Output, "zHigh")
	require.True(t, ok)
	require.Equal(t, 2, z.Group)

	ev := e.NewEvaluation()
	ev.Fuzzify(5)
	require.InDelta(t, 0.5, ev.DefuzzifyCentroid(1, 0, 1, rs.StepsOrDefault()), 1e-9)

	rs.Rules = nil
	_, err = config.Build(nil, rs)
	require.True(t, errors.Is(err, config.ErrInvalidRuleSet))
}

func TestBuildRedefinedSet(t *testing.T) {
	rs := validRuleSet()
	rs.Inputs[0].Sets = append(rs.Inputs[0].Sets, config.Set{Name: "xLow", Shape: []float64{0, 0, 0, 5}})
	require.NoError(t, config.Validate(rs))
	e, err := config.Build(nil, rs)
	require.NoError(t, err)
	mf, ok := e.MembershipFunction(fuzzy.Input, "xLow")
	require.True(t, ok)
	require.Equal(t, 5.0, mf.End)
	require.Len(t, e.MembershipFunctions(fuzzy.Input), 2)
}
