package dispatch

import (
	"fmt"
	"math"
	"strings"

	"github.com/perclft/QuantumBridge/backends"
	"github.com/perclft/QuantumBridge/circuit"
)

// ------------------------------------------------------------------
// Execution results and normalization
// ------------------------------------------------------------------

// probTolerance bounds how far a statevector's total probability may drift
// from 1 before the result is rejected as corrupt.
const probTolerance = 1e-6

// Amplitude is one complex statevector entry in wire form.
type Amplitude struct {
	Re float64 `json:"re"`
	Im float64 `json:"im"`
}

// Result is the canonical execution result. Exactly one of Counts and
// Statevector is set; Probabilities accompanies Statevector only.
type Result struct {
	BackendUsed   string             `json:"backend_used"`
	NumQubits     int                `json:"num_qubits"`
	Counts        map[string]int     `json:"counts,omitempty"`
	Statevector   []Amplitude        `json:"statevector,omitempty"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`

	// Set only on a successful fallback execution.
	OriginalBackendAttempted string `json:"original_backend_attempted,omitempty"`
	FallbackReason           string `json:"fallback_reason,omitempty"`
}

// Normalize converts one adapter's raw output into the canonical result
// shape, enforcing the width and conservation invariants.
func Normalize(native *backends.NativeResult, spec circuit.Spec) (*Result, error) {
	res := &Result{BackendUsed: native.BackendUsed, NumQubits: spec.Qubits}

	switch {
	case native.Counts != nil:
		counts, err := padCounts(native.Counts, spec.Qubits)
		if err != nil {
			return nil, err
		}
		res.Counts = counts

	case native.Statevector != nil:
		if want := 1 << spec.Qubits; len(native.Statevector) != want {
			return nil, fmt.Errorf("statevector has %d amplitudes, want %d for %d qubits",
				len(native.Statevector), want, spec.Qubits)
		}
		total := 0.0
		res.Statevector = make([]Amplitude, len(native.Statevector))
		res.Probabilities = make(map[string]float64)
		for i, a := range native.Statevector {
			res.Statevector[i] = Amplitude{Re: real(a), Im: imag(a)}
			p := real(a)*real(a) + imag(a)*imag(a)
			total += p
			if p > 1e-12 {
				res.Probabilities[bitstring(i, spec.Qubits)] = p
			}
		}
		if math.Abs(total-1) > probTolerance {
			return nil, fmt.Errorf("statevector probabilities sum to %g, want 1", total)
		}

	default:
		return nil, fmt.Errorf("backend %s returned neither counts nor statevector", native.BackendUsed)
	}
	return res, nil
}

// markFallback annotates a fallback execution's result with the primary
// attempt it replaced.
func markFallback(res *Result, originalKey, reason string) {
	res.OriginalBackendAttempted = originalKey
	res.FallbackReason = reason
	res.BackendUsed = fmt.Sprintf("FALLBACK: %s (original target: %s)", res.BackendUsed, originalKey)
}

// padCounts left-pads every bitstring to the register width. A key wider
// than the register means the backend and circuit disagree about size.
func padCounts(counts map[string]int, qubits int) (map[string]int, error) {
	out := make(map[string]int, len(counts))
	for bits, n := range counts {
		if len(bits) > qubits {
			return nil, fmt.Errorf("counts bitstring %q is wider than the %d-qubit register", bits, qubits)
		}
		if n < 0 {
			return nil, fmt.Errorf("counts entry %q has negative count %d", bits, n)
		}
		padded := strings.Repeat("0", qubits-len(bits)) + bits
		out[padded] += n
	}
	return out, nil
}

// bitstring renders a basis-state index as a zero-padded big-endian
// bitstring.
func bitstring(i, qubits int) string {
	b := make([]byte, qubits)
	for q := 0; q < qubits; q++ {
		if i&(1<<(qubits-1-q)) != 0 {
			b[q] = '1'
		} else {
			b[q] = '0'
		}
	}
	return string(b)
}
