// Package dispatch routes a validated circuit to a backend adapter and
// manages the single simulator fallback attempt.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/perclft/QuantumBridge/backends"
	"github.com/perclft/QuantumBridge/circuit"
	"github.com/perclft/QuantumBridge/credentials"
	"github.com/perclft/QuantumBridge/metrics"
)

const (
	DefaultShots          = 1024
	DefaultFallbackKey    = "aer_qasm_simulator"
	defaultAttemptTimeout = 5 * time.Minute
)

// ------------------------------------------------------------------
// Requests and failures
// ------------------------------------------------------------------

// Request is one dispatch invocation.
type Request struct {
	Provider               string
	Circuit                circuit.Spec
	Shots                  int
	UseSimulatorIfQPUFails bool
	SimulatorChoice        string
}

// FailureClass is the coarse failure category the transport layer maps to
// a status code.
type FailureClass string

const (
	ClassValidation      FailureClass = "validation"
	ClassConfiguration   FailureClass = "configuration"
	ClassCredential      FailureClass = "credential"
	ClassConnection      FailureClass = "connection"
	ClassUnsupportedGate FailureClass = "unsupported_gate"
	ClassRuntime         FailureClass = "runtime"
)

// Failure is a terminal dispatch failure. When a fallback was attempted
// and also failed, Message carries both stage messages and BackendUsed
// names the fallback backend.
type Failure struct {
	Class             FailureClass
	BackendUsed       string
	Message           string
	FallbackAttempted bool

	// Set when a fallback attempt followed the primary failure.
	OriginalBackendAttempted string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("dispatch failed on %s: %s", f.BackendUsed, f.Message)
}

// classify maps adapter and input errors onto the failure taxonomy.
func classify(err error) FailureClass {
	var ve *circuit.ValidationError
	if errors.As(err, &ve) {
		return ClassValidation
	}
	var ce *backends.ConfigError
	if errors.As(err, &ce) {
		return ClassConfiguration
	}
	if kind, ok := backends.KindOf(err); ok {
		switch kind {
		case backends.FailureCredential:
			return ClassCredential
		case backends.FailureConnection:
			return ClassConnection
		case backends.FailureUnsupportedGate:
			return ClassUnsupportedGate
		}
	}
	return ClassRuntime
}

// ------------------------------------------------------------------
// Orchestrator
// ------------------------------------------------------------------

// Options carries the optional orchestrator collaborators. Zero values
// disable the cache and metrics and select defaults for the rest.
type Options struct {
	Cache          *ResultCache
	Metrics        *metrics.Collector
	AttemptTimeout time.Duration
	Logger         *slog.Logger
}

// Orchestrator is the dispatch state machine: validate, select, execute,
// classify, optionally fall back. Stateless across requests; safe for
// concurrent use.
type Orchestrator struct {
	registry *backends.Registry
	creds    *credentials.Resolver
	cache    *ResultCache
	metrics  *metrics.Collector
	timeout  time.Duration
	logger   *slog.Logger
}

func NewOrchestrator(registry *backends.Registry, creds *credentials.Resolver, opts Options) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		creds:    creds,
		cache:    opts.Cache,
		metrics:  opts.Metrics,
		timeout:  opts.AttemptTimeout,
		logger:   opts.Logger,
	}
	if o.timeout <= 0 {
		o.timeout = defaultAttemptTimeout
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Dispatch runs one request to a terminal result. Primary is always
// attempted before fallback; at most one fallback attempt is made; a
// successful primary result is never discarded.
func (o *Orchestrator) Dispatch(ctx context.Context, req Request) (*Result, *Failure) {
	logger := o.logger.With("attempt_id", uuid.NewString(), "provider", req.Provider)

	if err := circuit.Validate(req.Circuit); err != nil {
		logger.Warn("circuit rejected", "err", err)
		return nil, &Failure{Class: ClassValidation, BackendUsed: req.Provider, Message: err.Error()}
	}
	shots := req.Shots
	if shots <= 0 {
		shots = DefaultShots
	}

	primary, err := o.registry.Get(req.Provider)
	if err != nil {
		logger.Warn("unknown backend key")
		return nil, &Failure{Class: ClassConfiguration, BackendUsed: req.Provider, Message: err.Error()}
	}

	// Deterministic statevector runs can be answered from the cache.
	mode := backends.ResolveMode(primary.Descriptor.Mode, req.Circuit.HasMeasure())
	var cacheKey string
	if o.cache != nil && mode == backends.ModeStatevector {
		cacheKey = CacheKey(req.Circuit, mode)
		if cached := o.cache.Get(ctx, cacheKey); cached != nil {
			if o.metrics != nil {
				o.metrics.CacheHits.Inc()
			}
			logger.Info("served from result cache", "backend", primary.Descriptor.BackendName)
			return cached, nil
		}
		if o.metrics != nil {
			o.metrics.CacheMisses.Inc()
		}
	}

	res, primaryErr := o.attempt(ctx, logger, primary, req.Circuit, shots)
	if primaryErr == nil {
		if cacheKey != "" {
			o.cache.Put(ctx, cacheKey, res)
		}
		return res, nil
	}

	primaryFailure := &Failure{
		Class:       classify(primaryErr),
		BackendUsed: req.Provider,
		Message:     primaryErr.Error(),
	}

	fallback, reason := o.fallbackTarget(primary.Descriptor, req, primaryFailure.Class)
	if fallback == nil {
		if reason != "" {
			primaryFailure.Message = fmt.Sprintf("%s (fallback not attempted: %s)", primaryFailure.Message, reason)
		}
		return nil, primaryFailure
	}

	logger.Info("attempting simulator fallback",
		"fallback", fallback.Descriptor.Key, "primary_failure", primaryFailure.Class)
	res, fallbackErr := o.attempt(ctx, logger, *fallback, req.Circuit, shots)
	if fallbackErr != nil {
		if o.metrics != nil {
			o.metrics.Fallbacks.WithLabelValues("failure").Inc()
		}
		return nil, &Failure{
			Class:                    classify(fallbackErr),
			BackendUsed:              fallback.Descriptor.Key,
			FallbackAttempted:        true,
			OriginalBackendAttempted: req.Provider,
			Message: fmt.Sprintf("primary %s: %s; fallback %s: %s",
				req.Provider, primaryErr.Error(), fallback.Descriptor.Key, fallbackErr.Error()),
		}
	}
	if o.metrics != nil {
		o.metrics.Fallbacks.WithLabelValues("success").Inc()
	}
	markFallback(res, req.Provider, primaryErr.Error())
	return res, nil
}

// fallbackTarget decides fallback eligibility. It returns the fallback
// entry when eligible, otherwise a reason when the caller opted in but the
// fallback had to be rejected.
func (o *Orchestrator) fallbackTarget(primary backends.Descriptor, req Request, primaryClass FailureClass) (*backends.Entry, string) {
	if !req.UseSimulatorIfQPUFails {
		return nil, ""
	}
	if primaryClass == ClassValidation || primaryClass == ClassConfiguration {
		return nil, ""
	}
	if primary.Type != backends.TypeQPU {
		return nil, "primary backend is not a QPU"
	}

	key := req.SimulatorChoice
	if key == "" {
		key = DefaultFallbackKey
	}
	entry, err := o.registry.Get(key)
	if err != nil {
		return nil, fmt.Sprintf("fallback key %q is not registered", key)
	}
	if entry.Descriptor.Type != backends.TypeSimulator {
		return nil, fmt.Sprintf("fallback key %q is not a simulator", key)
	}
	return &entry, ""
}

// attempt runs translate+execute+normalize for one backend under the
// per-attempt deadline.
func (o *Orchestrator) attempt(ctx context.Context, logger *slog.Logger, e backends.Entry, spec circuit.Spec, shots int) (*Result, error) {
	d := e.Descriptor
	start := time.Now()

	native, err := o.run(ctx, e, spec, shots)

	elapsed := time.Since(start)
	if o.metrics != nil {
		o.metrics.Duration.WithLabelValues(d.Key).Observe(elapsed.Seconds())
		outcome := "success"
		if err != nil {
			outcome = "failure"
			o.metrics.Failures.WithLabelValues(d.Key, string(classify(err))).Inc()
		}
		o.metrics.Attempts.WithLabelValues(d.Key, outcome).Inc()
	}
	if err != nil {
		logger.Warn("backend attempt failed", "backend", d.Key, "elapsed", elapsed, "err", err)
		return nil, err
	}

	res, err := Normalize(native, spec)
	if err != nil {
		logger.Error("backend returned malformed result", "backend", d.Key, "err", err)
		return nil, fmt.Errorf("result normalization failed on %s: %w", d.Key, err)
	}
	logger.Info("backend attempt succeeded", "backend", d.Key, "elapsed", elapsed)
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, e backends.Entry, spec circuit.Spec, shots int) (*backends.NativeResult, error) {
	native, err := e.Adapter.Translate(e.Descriptor, spec)
	if err != nil {
		return nil, err
	}
	creds := o.creds.Resolve(string(e.Descriptor.Family))

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return e.Adapter.Execute(ctx, e.Descriptor, native, creds, shots)
}
