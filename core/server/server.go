// Package server exposes controllers over HTTP: a JSON decision endpoint and
// the Prometheus metrics endpoint.
package server

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"example.com/fuzzyctl/base/metrics"
	"example.com/fuzzyctl/base/zaplog"

	"example.com/fuzzyctl/core/controller"
)

const (
	maxRequestSize = 1 << 16

	// DefaultMaxSteps bounds the discretization a client may request.
	DefaultMaxSteps = 4096
)

var serverMetrics = struct {
	reqsReceived prometheus.Counter
	reqsFailed   prometheus.Counter
}{
	reqsReceived: promauto.NewCounter(prometheus.CounterOpts{
		Name: metrics.ServerReqsReceivedN,
		Help: metrics.ServerReqsReceivedH,
	}),
	reqsFailed: promauto.NewCounter(prometheus.CounterOpts{
		Name: metrics.ServerReqsFailedN,
		Help: metrics.ServerReqsFailedH,
	}),
}

type DecideRequest struct {
	RuleSet string    `json:"ruleset"`
	Inputs  []float64 `json:"inputs"`
	Steps   int       `json:"steps,omitempty"`
}

type Output struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	NoDecision bool    `json:"no_decision,omitempty"`
}

type DecideResponse struct {
	RuleSet string   `json:"ruleset"`
	Outputs []Output `json:"outputs"`
}

type RuleSetInfo struct {
	Name    string   `json:"name"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
	Steps   int      `json:"steps"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	log         *zap.Logger
	maxSteps    int
	controllers map[string]*controller.Controller
}

// New returns a server for the given controllers. Requests for more than
// maxSteps discretization steps are rejected; maxSteps <= 0 selects
// DefaultMaxSteps.
func New(log *zap.Logger, maxSteps int, cs ...*controller.Controller) (*Server, error) {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	s := &Server{
		log:         zaplog.Or(log),
		maxSteps:    maxSteps,
		controllers: make(map[string]*controller.Controller, len(cs)),
	}
	for _, c := range cs {
		if _, ok := s.controllers[c.Name()]; ok {
			return nil, fmt.Errorf("duplicate rule set %q", c.Name())
		}
		s.controllers[c.Name()] = c
	}
	return s, nil
}

// Handler returns the HTTP routes of s:
//
//	POST /decide    evaluate a rule set
//	GET  /rulesets  list the served rule sets
//	GET  /metrics   Prometheus metrics
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /decide", s.handleDecide)
	mux.HandleFunc("GET /rulesets", s.handleRuleSets)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	serverMetrics.reqsReceived.Inc()

	var req DecideRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize))
	dec.DisallowUnknownFields()
	err := dec.Decode(&req)
	if err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("failed to decode request: %w", err))
		return
	}
	c, ok := s.controllers[req.RuleSet]
	if !ok {
		s.fail(w, http.StatusNotFound, fmt.Errorf("unknown rule set %q", req.RuleSet))
		return
	}
	steps := req.Steps
	if steps == 0 {
		steps = c.RuleSet().StepsOrDefault()
	}
	if steps > s.maxSteps {
		s.fail(w, http.StatusBadRequest,
			fmt.Errorf("invalid number of discretization steps: %d exceeds %d", steps, s.maxSteps))
		return
	}
	d, err := c.DecideSteps(steps, req.Inputs...)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}

	resp := DecideResponse{
		RuleSet: c.Name(),
		Outputs: make([]Output, len(d.Outputs)),
	}
	for i, v := range c.RuleSet().Outputs {
		resp.Outputs[i] = Output{
			Name:       v.Name,
			Value:      d.Outputs[i],
			NoDecision: d.NoDecision[i],
		}
	}
	s.write(w, http.StatusOK, resp)
}

func (s *Server) handleRuleSets(w http.ResponseWriter, r *http.Request) {
	infos := make([]RuleSetInfo, 0, len(s.controllers))
	for _, c := range s.controllers {
		rs := c.RuleSet()
		info := RuleSetInfo{Name: rs.Name, Steps: rs.StepsOrDefault()}
		for _, v := range rs.Inputs {
			info.Inputs = append(info.Inputs, v.Name)
		}
		for _, v := range rs.Outputs {
			info.Outputs = append(info.Outputs, v.Name)
		}
		infos = append(infos, info)
	}
	slices.SortFunc(infos, func(a, b RuleSetInfo) int {
		return cmp.Compare(a.Name, b.Name)
	})
	s.write(w, http.StatusOK, infos)
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	serverMetrics.reqsFailed.Inc()
	s.log.Info("rejected decision request", zap.Int("status", status), zap.Error(err))
	s.write(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		s.log.Info("failed to write response", zap.Error(err))
	}
}

// Serve serves h on addr until ctx is done, then shuts down gracefully within
// shutdownTimeout.
func Serve(ctx context.Context, log *zap.Logger, addr string, h http.Handler,
	shutdownTimeout time.Duration) error {
	log = zaplog.Or(log)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()
	log.Info("serving", zap.Stringer("address", ln.Addr()))

	select {
	case err = <-errc:
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = srv.Shutdown(shutdownCtx)
		if err == nil {
			err = <-errc
		}
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
