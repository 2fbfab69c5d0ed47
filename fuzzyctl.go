// Fuzzy decision tool

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/mmcloughlin/profile"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"example.com/fuzzyctl/base/zaplog"

	"example.com/fuzzyctl/benchmark"

	"example.com/fuzzyctl/core/config"
	"example.com/fuzzyctl/core/controller"
	"example.com/fuzzyctl/core/curve"
	"example.com/fuzzyctl/core/fuzzy"
	"example.com/fuzzyctl/core/rulesets"
	"example.com/fuzzyctl/core/server"
	"example.com/fuzzyctl/core/sweep"
)

var (
	log *zap.Logger
)

func initLogger(verbose bool) {
	c := zap.NewDevelopmentConfig()
	c.DisableStacktrace = true
	c.EncoderConfig.EncodeCaller = func(
		caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		p := caller.TrimmedPath()
		if len(p) > 30 {
			p = "..." + p[len(p)-27:]
		}
		enc.AppendString(fmt.Sprintf("%30s", p))
	}
	if !verbose {
		c.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	var err error
	log, err = c.Build()
	if err != nil {
		panic(err)
	}
	zaplog.SetLogger(log)
}

func loadRuleSet(name, configFile string) *config.RuleSet {
	var rs *config.RuleSet
	var err error
	if configFile != "" {
		rs, err = config.Load(log, configFile)
	} else {
		rs, err = rulesets.Load(log, name)
	}
	if err != nil {
		log.Fatal("failed to load rule set", zap.Error(err))
	}
	return rs
}

func newController(rs *config.RuleSet) *controller.Controller {
	c, err := controller.New(log, rs)
	if err != nil {
		log.Fatal("failed to configure controller", zap.Error(err))
	}
	return c
}

func parseInputs(args []string) ([]float64, error) {
	xs := make([]float64, len(args))
	for i, arg := range args {
		x, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, err
		}
		xs[i] = x
	}
	return xs, nil
}

func runEval(rs *config.RuleSet, steps int, inputs []float64) {
	c := newController(rs)
	if steps == 0 {
		steps = rs.StepsOrDefault()
	}
	d, err := c.DecideSteps(steps, inputs...)
	if err != nil {
		log.Fatal("failed to decide", zap.Error(err))
	}
	for i, v := range rs.Outputs {
		if d.NoDecision[i] {
			fmt.Printf("%s: %.4f (no decision)\n", v.Name, d.Outputs[i])
		} else {
			fmt.Printf("%s: %.4f\n", v.Name, d.Outputs[i])
		}
	}
}

func runSweep(ctx context.Context, rs *config.RuleSet, input string, opts sweep.Options) {
	c := newController(rs)
	points, err := sweep.Run(ctx, c, input, opts)
	if err != nil {
		log.Fatal("failed to sweep", zap.Error(err))
	}
	header := []string{input}
	for _, v := range rs.Outputs {
		header = append(header, v.Name)
	}
	fmt.Println(strings.Join(header, ","))
	for _, p := range points {
		row := []string{strconv.FormatFloat(p.X, 'g', -1, 64)}
		for _, y := range p.Decision.Outputs {
			row = append(row, strconv.FormatFloat(y, 'f', 4, 64))
		}
		fmt.Println(strings.Join(row, ","))
	}
}

func runPlot(ctx context.Context, rs *config.RuleSet, input, outputs string, sets bool,
	opts sweep.Options, outFile string) {
	c := newController(rs)
	var p *plot.Plot
	var err error
	if sets {
		p, err = plotSets(c, input)
	} else {
		p, err = plotResponse(ctx, c, input, outputs, opts)
	}
	if err != nil {
		log.Fatal("failed to plot", zap.Error(err))
	}
	f, err := os.Create(outFile)
	if err != nil {
		log.Fatal("failed to create file", zap.String("file", outFile), zap.Error(err))
	}
	defer f.Close()
	err = curve.WritePDF(f, p, 8.5*vg.Inch, 3*vg.Inch)
	if err != nil {
		log.Fatal("failed to write file", zap.String("file", outFile), zap.Error(err))
	}
}

func plotSets(c *controller.Controller, variable string) (*plot.Plot, error) {
	rs := c.RuleSet()
	if _, v, ok := rs.Input(variable); ok {
		return curve.Sets(c.Engine(), fuzzy.Input, v)
	}
	if _, v, ok := rs.Output(variable); ok {
		return curve.Sets(c.Engine(), fuzzy.Output, v)
	}
	return nil, fmt.Errorf("unknown variable %q", variable)
}

func plotResponse(ctx context.Context, c *controller.Controller, input, outputs string,
	opts sweep.Options) (*plot.Plot, error) {
	rs := c.RuleSet()
	var idxs []int
	if outputs == "" {
		for i := range rs.Outputs {
			idxs = append(idxs, i)
		}
	} else {
		for _, name := range strings.Split(outputs, ",") {
			g, _, ok := rs.Output(name)
			if !ok {
				return nil, fmt.Errorf("unknown output %q", name)
			}
			idxs = append(idxs, g-fuzzy.MinGroup)
		}
	}
	points, err := sweep.Run(ctx, c, input, opts)
	if err != nil {
		return nil, err
	}
	return curve.Response(rs, input, points, idxs)
}

func runBench(rs *config.RuleSet, opts benchmark.Options, cpuProfile bool) {
	if cpuProfile {
		defer profile.Start(profile.CPUProfile).Stop()
	}
	c := newController(rs)
	res, err := benchmark.Run(log, c, opts)
	if err != nil {
		log.Fatal("failed to run benchmark", zap.Error(err))
	}
	res.Print(os.Stdout)
}

func runServe(ctx context.Context) {
	var cfg config.ServerEnv
	err := config.ParseEnv(&cfg)
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}
	var cs []*controller.Controller
	for _, name := range rulesets.Names() {
		cs = append(cs, newController(loadRuleSet(name, "")))
	}
	for _, file := range cfg.RuleSetFiles {
		cs = append(cs, newController(loadRuleSet("", file)))
	}
	s, err := server.New(log, cfg.MaxSteps, cs...)
	if err != nil {
		log.Fatal("failed to configure server", zap.Error(err))
	}
	err = server.Serve(ctx, log, cfg.Address, s.Handler(), cfg.ShutdownTimeout)
	if err != nil {
		log.Fatal("failed to serve", zap.Error(err))
	}
}

const usage = `usage:
  fuzzyctl eval  [-ruleset NAME | -config FILE] [-steps N] [--] x1 x2 ...
  fuzzyctl sweep [-ruleset NAME | -config FILE] -input NAME [-n N] [-workers N]
  fuzzyctl plot  [-ruleset NAME | -config FILE] -input NAME [-outputs A,B] [-sets] -o FILE.pdf
  fuzzyctl bench [-ruleset NAME | -config FILE] [-n N] [-g N] [-profile]
  fuzzyctl serve
  fuzzyctl rulesets

Negative inputs to eval must follow "--", e.g. fuzzyctl eval -config c.toml -- -3 2.`

func exitWithUsage() {
	fmt.Println(usage)
	fmt.Println("\nbuilt-in rule sets: " + strings.Join(rulesets.Names(), ", "))
	os.Exit(1)
}

func main() {
	var (
		verbose    bool
		ruleSet    string
		configFile string
		steps      int
		input      string
		outputs    string
		sets       bool
		outFile    string
		cpuProfile bool
		sweepOpts  sweep.Options
		benchOpts  benchmark.Options
	)

	evalFlags := flag.NewFlagSet("eval", flag.ExitOnError)
	sweepFlags := flag.NewFlagSet("sweep", flag.ExitOnError)
	plotFlags := flag.NewFlagSet("plot", flag.ExitOnError)
	benchFlags := flag.NewFlagSet("bench", flag.ExitOnError)
	serveFlags := flag.NewFlagSet("serve", flag.ExitOnError)

	for _, fs := range []*flag.FlagSet{evalFlags, sweepFlags, plotFlags, benchFlags} {
		fs.BoolVar(&verbose, "verbose", false, "Verbose logging")
		fs.StringVar(&ruleSet, "ruleset", rulesets.DirectPassSpeed, "Built-in rule set")
		fs.StringVar(&configFile, "config", "", "Rule set file (.toml, .yaml)")
	}
	serveFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")

	evalFlags.IntVar(&steps, "steps", 0, "Discretization steps")

	sweepFlags.StringVar(&input, "input", "", "Swept input")
	sweepFlags.IntVar(&sweepOpts.Points, "n", 21, "Number of points")
	sweepFlags.IntVar(&sweepOpts.Workers, "workers", 0, "Number of workers")

	plotFlags.StringVar(&input, "input", "", "Swept input, or plotted variable with -sets")
	plotFlags.StringVar(&outputs, "outputs", "", "Comma separated outputs")
	plotFlags.BoolVar(&sets, "sets", false, "Plot membership functions")
	plotFlags.IntVar(&sweepOpts.Points, "n", 101, "Number of points")
	plotFlags.StringVar(&outFile, "o", "", "Output file")

	benchFlags.IntVar(&benchOpts.DecisionsPerRoutine, "n", 100_000, "Decisions per goroutine")
	benchFlags.IntVar(&benchOpts.Goroutines, "g", 1, "Number of goroutines")
	benchFlags.BoolVar(&cpuProfile, "profile", false, "Write CPU profile")

	if len(os.Args) < 2 {
		exitWithUsage()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case evalFlags.Name():
		err := evalFlags.Parse(os.Args[2:])
		if err != nil || evalFlags.NArg() == 0 {
			exitWithUsage()
		}
		xs, err := parseInputs(evalFlags.Args())
		if err != nil || steps < 0 {
			exitWithUsage()
		}
		initLogger(verbose)
		runEval(loadRuleSet(ruleSet, configFile), steps, xs)
	case sweepFlags.Name():
		err := sweepFlags.Parse(os.Args[2:])
		if err != nil || sweepFlags.NArg() != 0 {
			exitWithUsage()
		}
		if input == "" {
			exitWithUsage()
		}
		initLogger(verbose)
		runSweep(ctx, loadRuleSet(ruleSet, configFile), input, sweepOpts)
	case plotFlags.Name():
		err := plotFlags.Parse(os.Args[2:])
		if err != nil || plotFlags.NArg() != 0 {
			exitWithUsage()
		}
		if input == "" || outFile == "" {
			exitWithUsage()
		}
		initLogger(verbose)
		runPlot(ctx, loadRuleSet(ruleSet, configFile), input, outputs, sets, sweepOpts, outFile)
	case benchFlags.Name():
		err := benchFlags.Parse(os.Args[2:])
		if err != nil || benchFlags.NArg() != 0 {
			exitWithUsage()
		}
		initLogger(verbose)
		runBench(loadRuleSet(ruleSet, configFile), benchOpts, cpuProfile)
	case serveFlags.Name():
		err := serveFlags.Parse(os.Args[2:])
		if err != nil || serveFlags.NArg() != 0 {
			exitWithUsage()
		}
		initLogger(verbose)
		runServe(ctx)
	case "rulesets":
		for _, name := range rulesets.Names() {
			fmt.Println(name)
		}
	default:
		exitWithUsage()
	}
}
