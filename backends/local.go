package backends

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/perclft/QuantumBridge/backends/simulator"
	"github.com/perclft/QuantumBridge/circuit"
	"github.com/perclft/QuantumBridge/credentials"
)

// ------------------------------------------------------------------
// Local Simulator Adapter
// ------------------------------------------------------------------
//
// One adapter serves every locally simulated backend (the aer, cirq and
// pennylane families plus the Braket local simulator key); they share the
// statevector engine and differ only in which gate kinds they accept and
// how they label results.

type SimulatorAdapter struct {
	family Family

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulatorAdapter(family Family) *SimulatorAdapter {
	return &SimulatorAdapter{
		family: family,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewSimulatorAdapterWithSeed pins the sampling source, for tests.
func NewSimulatorAdapterWithSeed(family Family, seed int64) *SimulatorAdapter {
	return &SimulatorAdapter{
		family: family,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (a *SimulatorAdapter) Family() Family { return a.family }

// localProgram is the adapter's native circuit: the validated spec plus
// the measurement assignments extracted from it.
type localProgram struct {
	spec     circuit.Spec
	measures map[int]int
}

func (a *SimulatorAdapter) Translate(d Descriptor, spec circuit.Spec) (NativeCircuit, error) {
	for _, g := range spec.Gates {
		if !Supports(a.family, g.Kind()) {
			return nil, unsupportedGateError(d.Key, g.Kind())
		}
	}
	return &localProgram{spec: spec, measures: simulator.MeasureMap(spec)}, nil
}

func (a *SimulatorAdapter) Execute(ctx context.Context, d Descriptor, nc NativeCircuit, creds credentials.Bundle, shots int) (*NativeResult, error) {
	prog := nc.(*localProgram)

	if err := ctx.Err(); err != nil {
		return nil, runtimeError(d.Key, "execution cancelled: %v", err)
	}

	state, err := simulator.Run(prog.spec)
	if err != nil {
		return nil, runtimeError(d.Key, "simulation failed: %v", err)
	}

	res := &NativeResult{
		BackendUsed: d.BackendName,
		NumQubits:   prog.spec.Qubits,
	}

	switch ResolveMode(d.Mode, prog.spec.HasMeasure()) {
	case ModeStatevector:
		// Measurement ops are ignored for statevector output.
		res.Statevector = state.Statevector()
	default:
		a.mu.Lock()
		res.Counts = state.SampleCounts(shots, prog.measures, a.rng)
		a.mu.Unlock()
	}
	return res, nil
}
