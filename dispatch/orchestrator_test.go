package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perclft/QuantumBridge/backends"
	"github.com/perclft/QuantumBridge/circuit"
	"github.com/perclft/QuantumBridge/credentials"
)

// fakeAdapter scripts one backend's behavior and records its invocations.
type fakeAdapter struct {
	family backends.Family
	result *backends.NativeResult
	err    error
	calls  int
}

func (f *fakeAdapter) Family() backends.Family { return f.family }

func (f *fakeAdapter) Translate(d backends.Descriptor, spec circuit.Spec) (backends.NativeCircuit, error) {
	return spec, nil
}

func (f *fakeAdapter) Execute(ctx context.Context, d backends.Descriptor, nc backends.NativeCircuit,
	creds credentials.Bundle, shots int) (*backends.NativeResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func qpuFailure(t *testing.T) (*backends.Registry, *fakeAdapter, *fakeAdapter) {
	t.Helper()
	qpu := &fakeAdapter{family: backends.FamilyIBM,
		err: backends.NewError(backends.FailureConnection, "ibm_brisbane", "could not reach service")}
	sim := &fakeAdapter{family: backends.FamilyAer,
		result: &backends.NativeResult{BackendUsed: "aer_simulator", NumQubits: 2, Counts: map[string]int{"00": 100}}}

	r := backends.NewRegistry()
	r.Register(backends.Descriptor{Key: "ibm_brisbane", Family: backends.FamilyIBM,
		BackendName: "ibm_brisbane", Type: backends.TypeQPU, Mode: backends.ModeCounts}, qpu)
	r.Register(backends.Descriptor{Key: "aer_qasm_simulator", Family: backends.FamilyAer,
		BackendName: "aer_simulator", Type: backends.TypeSimulator, Mode: backends.ModeCounts}, sim)
	r.Register(backends.Descriptor{Key: "ibm_osprey", Family: backends.FamilyIBM,
		BackendName: "ibm_osprey", Type: backends.TypeQPU, Mode: backends.ModeCounts}, qpu)
	return r, qpu, sim
}

func testOrchestrator(r *backends.Registry) *Orchestrator {
	resolver := credentials.NewResolverWithEnv(credentials.NewStore(), func(string) string { return "" })
	return NewOrchestrator(r, resolver, Options{})
}

func bellRequest(t *testing.T, provider string) Request {
	t.Helper()
	spec, err := circuit.New(2, []circuit.GateOp{
		{Gate: "h", Target: circuit.Qubit(0)},
		{Gate: "cx", Control: circuit.Qubit(0), Target: circuit.Qubit(1)},
		{Gate: "measure", Target: circuit.Qubit(0)},
		{Gate: "measure", Target: circuit.Qubit(1)},
	})
	require.NoError(t, err)
	return Request{Provider: provider, Circuit: spec, Shots: 100}
}

func TestDispatchPrimarySuccessHasNoFallbackAnnotations(t *testing.T) {
	r, qpu, sim := qpuFailure(t)
	qpu.err = nil
	qpu.result = &backends.NativeResult{BackendUsed: "ibm_brisbane", NumQubits: 2, Counts: map[string]int{"11": 100}}

	req := bellRequest(t, "ibm_brisbane")
	req.UseSimulatorIfQPUFails = true
	req.SimulatorChoice = "aer_qasm_simulator"

	res, failure := testOrchestrator(r).Dispatch(context.Background(), req)
	require.Nil(t, failure)
	assert.Equal(t, "ibm_brisbane", res.BackendUsed)
	assert.Empty(t, res.FallbackReason)
	assert.Empty(t, res.OriginalBackendAttempted)
	assert.Zero(t, sim.calls)
}

func TestDispatchFallbackOnQPUFailure(t *testing.T) {
	r, qpu, sim := qpuFailure(t)

	req := bellRequest(t, "ibm_brisbane")
	req.UseSimulatorIfQPUFails = true
	req.SimulatorChoice = "aer_qasm_simulator"

	res, failure := testOrchestrator(r).Dispatch(context.Background(), req)
	require.Nil(t, failure)
	assert.Equal(t, 1, qpu.calls)
	assert.Equal(t, 1, sim.calls)
	assert.Equal(t, "FALLBACK: aer_simulator (original target: ibm_brisbane)", res.BackendUsed)
	assert.Equal(t, "ibm_brisbane", res.OriginalBackendAttempted)
	assert.Contains(t, res.FallbackReason, "could not reach service")
}

func TestDispatchNoFallbackWithoutOptIn(t *testing.T) {
	r, qpu, sim := qpuFailure(t)

	res, failure := testOrchestrator(r).Dispatch(context.Background(), bellRequest(t, "ibm_brisbane"))
	require.Nil(t, res)
	require.NotNil(t, failure)
	assert.Equal(t, ClassConnection, failure.Class)
	assert.Equal(t, "ibm_brisbane", failure.BackendUsed)
	assert.False(t, failure.FallbackAttempted)
	assert.Equal(t, 1, qpu.calls)
	assert.Zero(t, sim.calls)
}

func TestDispatchSimulatorPrimaryNeverFallsBack(t *testing.T) {
	r, _, sim := qpuFailure(t)
	sim.err = backends.NewError(backends.FailureRuntime, "aer_simulator", "boom")
	sim.result = nil

	req := bellRequest(t, "aer_qasm_simulator")
	req.UseSimulatorIfQPUFails = true
	req.SimulatorChoice = "aer_qasm_simulator"

	res, failure := testOrchestrator(r).Dispatch(context.Background(), req)
	require.Nil(t, res)
	require.NotNil(t, failure)
	assert.Equal(t, 1, sim.calls)
	assert.False(t, failure.FallbackAttempted)
	assert.Contains(t, failure.Message, "fallback not attempted")
	assert.Contains(t, failure.Message, "not a QPU")
}

func TestDispatchRejectsQPUFallbackTarget(t *testing.T) {
	r, qpu, _ := qpuFailure(t)

	req := bellRequest(t, "ibm_brisbane")
	req.UseSimulatorIfQPUFails = true
	req.SimulatorChoice = "ibm_osprey"

	_, failure := testOrchestrator(r).Dispatch(context.Background(), req)
	require.NotNil(t, failure)
	assert.Equal(t, 1, qpu.calls)
	assert.False(t, failure.FallbackAttempted)
	assert.Contains(t, failure.Message, `fallback key "ibm_osprey" is not a simulator`)
}

func TestDispatchRejectsUnknownFallbackKey(t *testing.T) {
	r, _, _ := qpuFailure(t)

	req := bellRequest(t, "ibm_brisbane")
	req.UseSimulatorIfQPUFails = true
	req.SimulatorChoice = "no_such_backend"

	_, failure := testOrchestrator(r).Dispatch(context.Background(), req)
	require.NotNil(t, failure)
	assert.False(t, failure.FallbackAttempted)
	assert.Contains(t, failure.Message, `fallback key "no_such_backend" is not registered`)
}

func TestDispatchDefaultFallbackKey(t *testing.T) {
	r, _, sim := qpuFailure(t)

	req := bellRequest(t, "ibm_brisbane")
	req.UseSimulatorIfQPUFails = true

	res, failure := testOrchestrator(r).Dispatch(context.Background(), req)
	require.Nil(t, failure)
	assert.Equal(t, 1, sim.calls)
	assert.Equal(t, "ibm_brisbane", res.OriginalBackendAttempted)
}

func TestDispatchFallbackFailureIsTerminal(t *testing.T) {
	r, qpu, sim := qpuFailure(t)
	sim.err = backends.NewError(backends.FailureRuntime, "aer_simulator", "simulation exploded")
	sim.result = nil

	req := bellRequest(t, "ibm_brisbane")
	req.UseSimulatorIfQPUFails = true
	req.SimulatorChoice = "aer_qasm_simulator"

	res, failure := testOrchestrator(r).Dispatch(context.Background(), req)
	require.Nil(t, res)
	require.NotNil(t, failure)

	// At most two attempts, ever.
	assert.Equal(t, 1, qpu.calls)
	assert.Equal(t, 1, sim.calls)

	assert.True(t, failure.FallbackAttempted)
	assert.Equal(t, "aer_qasm_simulator", failure.BackendUsed)
	assert.Equal(t, "ibm_brisbane", failure.OriginalBackendAttempted)
	assert.Contains(t, failure.Message, "primary ibm_brisbane:")
	assert.Contains(t, failure.Message, "could not reach service")
	assert.Contains(t, failure.Message, "fallback aer_qasm_simulator:")
	assert.Contains(t, failure.Message, "simulation exploded")
}

func TestDispatchValidationErrorNeverReachesAdapter(t *testing.T) {
	r, qpu, sim := qpuFailure(t)

	req := Request{
		Provider: "ibm_brisbane",
		Circuit: circuit.Spec{Qubits: 2, Gates: []circuit.GateOp{
			{Gate: "h", Target: circuit.Qubit(9)},
		}},
		UseSimulatorIfQPUFails: true,
	}

	_, failure := testOrchestrator(r).Dispatch(context.Background(), req)
	require.NotNil(t, failure)
	assert.Equal(t, ClassValidation, failure.Class)
	assert.Zero(t, qpu.calls)
	assert.Zero(t, sim.calls)
}

func TestDispatchUnknownProviderIsConfigurationError(t *testing.T) {
	r, _, sim := qpuFailure(t)

	req := bellRequest(t, "nope")
	req.UseSimulatorIfQPUFails = true

	_, failure := testOrchestrator(r).Dispatch(context.Background(), req)
	require.NotNil(t, failure)
	assert.Equal(t, ClassConfiguration, failure.Class)
	assert.Zero(t, sim.calls)
}

func TestDispatchCredentialFailureClassification(t *testing.T) {
	r, qpu, _ := qpuFailure(t)
	qpu.err = backends.NewError(backends.FailureCredential, "ibm_brisbane", "IBMQ_TOKEN is not configured")

	_, failure := testOrchestrator(r).Dispatch(context.Background(), bellRequest(t, "ibm_brisbane"))
	require.NotNil(t, failure)
	assert.Equal(t, ClassCredential, failure.Class)
	assert.False(t, failure.FallbackAttempted)
}

func TestDispatchEndToEndBellState(t *testing.T) {
	resolver := credentials.NewResolverWithEnv(credentials.NewStore(), func(string) string { return "" })
	orc := NewOrchestrator(backends.DefaultRegistry(), resolver, Options{})

	req := bellRequest(t, "aer_qasm_simulator")
	req.Shots = 1000

	res, failure := orc.Dispatch(context.Background(), req)
	require.Nil(t, failure)
	require.NotNil(t, res.Counts)

	total := 0
	for bits, n := range res.Counts {
		assert.Contains(t, []string{"00", "11"}, bits)
		total += n
	}
	assert.Equal(t, 1000, total)
}

func TestDispatchEndToEndStatevector(t *testing.T) {
	resolver := credentials.NewResolverWithEnv(credentials.NewStore(), func(string) string { return "" })
	orc := NewOrchestrator(backends.DefaultRegistry(), resolver, Options{})

	spec, err := circuit.New(2, []circuit.GateOp{
		{Gate: "h", Target: circuit.Qubit(0)},
		{Gate: "cx", Control: circuit.Qubit(0), Target: circuit.Qubit(1)},
	})
	require.NoError(t, err)

	res, failure := orc.Dispatch(context.Background(), Request{
		Provider: "aer_statevector_simulator",
		Circuit:  spec,
	})
	require.Nil(t, failure)
	require.Len(t, res.Statevector, 4)
	assert.InDelta(t, 0.5, res.Probabilities["00"], 1e-9)
	assert.InDelta(t, 0.5, res.Probabilities["11"], 1e-9)
	assert.NotContains(t, res.Probabilities, "01")
	assert.NotContains(t, res.Probabilities, "10")
}

func TestClassifyFallsBackToRuntime(t *testing.T) {
	assert.Equal(t, ClassRuntime, classify(errors.New("some opaque error")))
}
