package dispatch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perclft/QuantumBridge/backends"
	"github.com/perclft/QuantumBridge/circuit"
)

func threeQubitSpec(t *testing.T) circuit.Spec {
	t.Helper()
	spec, err := circuit.New(3, []circuit.GateOp{
		{Gate: "h", Target: circuit.Qubit(0)},
	})
	require.NoError(t, err)
	return spec
}

func TestNormalizePadsCountsToRegisterWidth(t *testing.T) {
	native := &backends.NativeResult{
		BackendUsed: "ibm_brisbane",
		NumQubits:   3,
		Counts:      map[string]int{"0": 40, "101": 60},
	}

	res, err := Normalize(native, threeQubitSpec(t))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"000": 40, "101": 60}, res.Counts)
	assert.Nil(t, res.Statevector)
	assert.Nil(t, res.Probabilities)
}

func TestNormalizeRejectsOverwideBitstrings(t *testing.T) {
	native := &backends.NativeResult{
		BackendUsed: "ibm_brisbane",
		Counts:      map[string]int{"0101": 10},
	}
	_, err := Normalize(native, threeQubitSpec(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wider than")
}

func TestNormalizeRejectsNegativeCounts(t *testing.T) {
	native := &backends.NativeResult{
		BackendUsed: "ibm_brisbane",
		Counts:      map[string]int{"000": -1},
	}
	_, err := Normalize(native, threeQubitSpec(t))
	require.Error(t, err)
}

func TestNormalizeStatevector(t *testing.T) {
	inv := complex(1/math.Sqrt2, 0)
	spec, err := circuit.New(1, []circuit.GateOp{{Gate: "h", Target: circuit.Qubit(0)}})
	require.NoError(t, err)

	native := &backends.NativeResult{
		BackendUsed: "aer_simulator_statevector",
		NumQubits:   1,
		Statevector: []complex128{inv, inv},
	}

	res, err := Normalize(native, spec)
	require.NoError(t, err)
	require.Len(t, res.Statevector, 2)
	assert.InDelta(t, 1/math.Sqrt2, res.Statevector[0].Re, 1e-9)
	assert.InDelta(t, 0.5, res.Probabilities["0"], 1e-9)
	assert.InDelta(t, 0.5, res.Probabilities["1"], 1e-9)
	assert.Nil(t, res.Counts)
}

func TestNormalizeRejectsWrongStatevectorLength(t *testing.T) {
	native := &backends.NativeResult{
		BackendUsed: "aer_simulator_statevector",
		Statevector: []complex128{1, 0, 0},
	}
	_, err := Normalize(native, threeQubitSpec(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want 8")
}

func TestNormalizeRejectsUnnormalizedStatevector(t *testing.T) {
	spec, err := circuit.New(1, []circuit.GateOp{{Gate: "h", Target: circuit.Qubit(0)}})
	require.NoError(t, err)

	native := &backends.NativeResult{
		BackendUsed: "aer_simulator_statevector",
		Statevector: []complex128{0.5, 0.5},
	}
	_, err = Normalize(native, spec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to")
}

func TestNormalizeRejectsEmptyResult(t *testing.T) {
	native := &backends.NativeResult{BackendUsed: "ibm_brisbane"}
	_, err := Normalize(native, threeQubitSpec(t))
	require.Error(t, err)
}

func TestMarkFallbackAnnotations(t *testing.T) {
	res := &Result{BackendUsed: "aer_simulator", NumQubits: 2}
	markFallback(res, "ibm_brisbane", "connection error on ibm_brisbane: timeout")

	assert.Equal(t, "FALLBACK: aer_simulator (original target: ibm_brisbane)", res.BackendUsed)
	assert.Equal(t, "ibm_brisbane", res.OriginalBackendAttempted)
	assert.Contains(t, res.FallbackReason, "timeout")
}

func TestBitstringBigEndian(t *testing.T) {
	assert.Equal(t, "000", bitstring(0, 3))
	assert.Equal(t, "001", bitstring(1, 3))
	assert.Equal(t, "100", bitstring(4, 3))
	assert.Equal(t, "111", bitstring(7, 3))
}

func TestCacheKeyIsDeterministicAndModeSensitive(t *testing.T) {
	spec := threeQubitSpec(t)

	k1 := CacheKey(spec, backends.ModeStatevector)
	k2 := CacheKey(spec, backends.ModeStatevector)
	assert.Equal(t, k1, k2)

	k3 := CacheKey(spec, backends.ModeCounts)
	assert.NotEqual(t, k1, k3)

	other, err := circuit.New(3, []circuit.GateOp{{Gate: "x", Target: circuit.Qubit(0)}})
	require.NoError(t, err)
	assert.NotEqual(t, k1, CacheKey(other, backends.ModeStatevector))
}
