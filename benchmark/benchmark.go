// Package benchmark measures decision latency.
package benchmark

import (
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"go.uber.org/zap"

	"example.com/fuzzyctl/base/floats"
	"example.com/fuzzyctl/base/zaplog"
	"example.com/fuzzyctl/core/controller"
)

const (
	minLatency = 1             // ns
	maxLatency = 1_000_000_000 // ns
	sigFigs    = 3
)

type Options struct {
	Goroutines          int
	DecisionsPerRoutine int
	Seed                uint64
}

type Result struct {
	Histogram   *hdrhistogram.Histogram
	Decisions   int64
	Elapsed     time.Duration
	// Throughputs holds the decisions per second of every goroutine.
	Throughputs []float64
}

func (r *Result) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Decisions) / r.Elapsed.Seconds()
}

// MedianThroughput returns the median per-goroutine throughput.
func (r *Result) MedianThroughput() float64 {
	if len(r.Throughputs) == 0 {
		return 0
	}
	return floats.Median(append([]float64(nil), r.Throughputs...))
}

// recordLatency records d, saturating at maxLatency so that a single stall
// does not abort the run.
func recordLatency(hg *hdrhistogram.Histogram, d time.Duration) error {
	return hg.RecordValue(min(d.Nanoseconds(), maxLatency))
}

// Print writes a latency summary and the percentile distribution in
// microseconds.
func (r *Result) Print(w io.Writer) {
	hg := r.Histogram
	fmt.Fprintf(w, "decisions: %d, elapsed: %v, throughput: %.0f/s, median per goroutine: %.0f/s\n",
		r.Decisions, r.Elapsed, r.Throughput(), r.MedianThroughput())
	fmt.Fprintf(w, "latency (ns): min %d, p50 %d, p99 %d, max %d, mean %.1f\n",
		hg.Min(), hg.ValueAtQuantile(50), hg.ValueAtQuantile(99), hg.Max(), hg.Mean())
	hg.PercentilesPrint(w, 1, 1000.0)
}

// Run lets opts.Goroutines goroutines compute opts.DecisionsPerRoutine
// decisions each from random inputs within the rule set's domains, every
// goroutine with its own evaluation context, and records the latency of
// every decision.
func Run(log *zap.Logger, c *controller.Controller, opts Options) (*Result, error) {
	log = zaplog.Or(log)
	if opts.Goroutines < 1 || opts.DecisionsPerRoutine < 1 {
		return nil, fmt.Errorf("invalid benchmark options: %+v", opts)
	}
	rs := c.RuleSet()

	var mu sync.Mutex
	var firstErr error
	res := &Result{Histogram: hdrhistogram.New(minLatency, maxLatency, sigFigs)}
	sg := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(opts.Goroutines)
	for i := opts.Goroutines; i > 0; i-- {
		go func() {
			defer wg.Done()
			hg := hdrhistogram.New(minLatency, maxLatency, sigFigs)
			rnd := rand.New(rand.NewPCG(opts.Seed, uint64(i)))
			ev := c.Engine().NewEvaluation()
			inputs := make([]float64, len(rs.Inputs))
			var err error
			<-sg
			start := time.Now()
			for j := opts.DecisionsPerRoutine; j > 0; j-- {
				for k, v := range rs.Inputs {
					inputs[k] = v.Min + rnd.Float64()*(v.Max-v.Min)
				}
				t0 := time.Now()
				_, err = c.DecideWith(ev, inputs...)
				d := time.Since(t0)
				if err != nil {
					break
				}
				err = recordLatency(hg, d)
				if err != nil {
					break
				}
			}
			elapsed := time.Since(start)
			mu.Lock()
			defer mu.Unlock()
			if elapsed > 0 {
				res.Throughputs = append(res.Throughputs, float64(hg.TotalCount())/elapsed.Seconds())
			}
			if err != nil {
				log.Error("benchmark routine failed", zap.Error(err))
				if firstErr == nil {
					firstErr = err
				}
			}
			res.Histogram.Merge(hg)
		}()
	}
	t0 := time.Now()
	close(sg)
	wg.Wait()
	res.Elapsed = time.Since(t0)
	res.Decisions = res.Histogram.TotalCount()
	if firstErr != nil {
		return nil, firstErr
	}
	log.Info("benchmark finished",
		zap.String("ruleset", rs.Name),
		zap.Int64("decisions", res.Decisions),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}
