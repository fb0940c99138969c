package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsInRangeCircuits(t *testing.T) {
	spec, err := New(2, []GateOp{
		{Gate: "h", Target: Qubit(0)},
		{Gate: "cx", Control: Qubit(0), Target: Qubit(1)},
		{Gate: "measure", Target: Qubit(0)},
		{Gate: "measure", Target: Qubit(1)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, spec.Qubits)
	assert.True(t, spec.HasMeasure())
}

func TestValidateRejectsBadInput(t *testing.T) {
	cases := []struct {
		name   string
		qubits int
		gates  []GateOp
	}{
		{"zero qubits", 0, nil},
		{"negative qubits", -1, nil},
		{"unknown gate kind", 1, []GateOp{{Gate: "foo", Target: Qubit(0)}}},
		{"target out of range", 2, []GateOp{{Gate: "h", Target: Qubit(2)}}},
		{"negative target", 2, []GateOp{{Gate: "h", Target: Qubit(-1)}}},
		{"control out of range", 2, []GateOp{{Gate: "cx", Control: Qubit(5), Target: Qubit(0)}}},
		{"missing target", 2, []GateOp{{Gate: "h"}}},
		{"missing control", 2, []GateOp{{Gate: "cx", Target: Qubit(0)}}},
		{"ccx with one control", 3, []GateOp{{Gate: "ccx", Controls: []int{0}, Target: Qubit(2)}}},
		{"ccx control out of range", 3, []GateOp{{Gate: "ccx", Controls: []int{0, 3}, Target: Qubit(2)}}},
		{"classical bit out of range", 2, []GateOp{{Gate: "measure", Target: Qubit(0), ClassicalBit: Qubit(7)}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.qubits, tc.gates)
			require.Error(t, err)
			var ve *ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestGateKindsAreCaseInsensitive(t *testing.T) {
	_, err := New(1, []GateOp{{Gate: "H", Target: Qubit(0)}})
	require.NoError(t, err)

	def, ok := LookupGate("CCX")
	require.True(t, ok)
	assert.Equal(t, ArityDoublyControlled, def.Arity)
}

func TestMeasureBitDefaultsToTarget(t *testing.T) {
	g := GateOp{Gate: "measure", Target: Qubit(3)}
	assert.Equal(t, 3, g.MeasureBit())

	g.ClassicalBit = Qubit(1)
	assert.Equal(t, 1, g.MeasureBit())
}

func TestMissingAnglesDefaultToZero(t *testing.T) {
	g := GateOp{Gate: "rx", Target: Qubit(0)}
	assert.Zero(t, g.Param("theta"))

	g.Params = map[string]float64{"theta": 1.5}
	assert.Equal(t, 1.5, g.Param("theta"))
}
