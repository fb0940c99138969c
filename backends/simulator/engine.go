// Package simulator is the local statevector engine backing the Aer, Cirq
// and PennyLane simulator families.
//
// Bit ordering is big-endian throughout: qubit 0 is the most significant
// bit of every bitstring, so basis index i prints directly as the
// zero-padded binary bitstring.
package simulator

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"
	"sort"

	"github.com/perclft/QuantumBridge/circuit"
)

// State holds the 2^n complex amplitudes of an n-qubit register.
type State struct {
	amps []complex128
	n    int
}

// New returns the |0...0> state.
func New(numQubits int) *State {
	amps := make([]complex128, 1<<numQubits)
	amps[0] = 1
	return &State{amps: amps, n: numQubits}
}

// NumQubits returns the register width.
func (s *State) NumQubits() int { return s.n }

// mask returns the state-index bit for a qubit under big-endian ordering.
func (s *State) mask(qubit int) int {
	return 1 << (s.n - 1 - qubit)
}

// Statevector returns a copy of the amplitudes in computational-basis order.
func (s *State) Statevector() []complex128 {
	out := make([]complex128, len(s.amps))
	copy(out, s.amps)
	return out
}

// Probabilities returns |amplitude|^2 per basis state.
func (s *State) Probabilities() []float64 {
	out := make([]float64, len(s.amps))
	for i, a := range s.amps {
		out[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return out
}

// ------------------------------------------------------------------
// Gate application
// ------------------------------------------------------------------

// apply1 applies a 2x2 unitary to one qubit.
func (s *State) apply1(target int, m [2][2]complex128) {
	mask := s.mask(target)
	for i := range s.amps {
		if i&mask != 0 {
			continue
		}
		j := i | mask
		a0, a1 := s.amps[i], s.amps[j]
		s.amps[i] = m[0][0]*a0 + m[0][1]*a1
		s.amps[j] = m[1][0]*a0 + m[1][1]*a1
	}
}

// applyControlled1 applies a 2x2 unitary to target where every control bit
// is set.
func (s *State) applyControlled1(target int, m [2][2]complex128, controls ...int) {
	tmask := s.mask(target)
	cmask := 0
	for _, c := range controls {
		cmask |= s.mask(c)
	}
	for i := range s.amps {
		if i&tmask != 0 || i&cmask != cmask {
			continue
		}
		j := i | tmask
		a0, a1 := s.amps[i], s.amps[j]
		s.amps[i] = m[0][0]*a0 + m[0][1]*a1
		s.amps[j] = m[1][0]*a0 + m[1][1]*a1
	}
}

func (s *State) applySwap(q1, q2 int) {
	m1, m2 := s.mask(q1), s.mask(q2)
	for i := range s.amps {
		if i&m1 != 0 && i&m2 == 0 {
			j := i ^ m1 ^ m2
			s.amps[i], s.amps[j] = s.amps[j], s.amps[i]
		}
	}
}

func phase(theta float64) complex128 { return cmplx.Exp(complex(0, theta)) }

// uMatrix is the generalized single-qubit gate U(theta, phi, lambda).
func uMatrix(theta, phi, lambda float64) [2][2]complex128 {
	c := complex(math.Cos(theta/2), 0)
	sn := complex(math.Sin(theta/2), 0)
	return [2][2]complex128{
		{c, -phase(lambda) * sn},
		{phase(phi) * sn, phase(phi+lambda) * c},
	}
}

func singleMatrix(op circuit.GateOp) ([2][2]complex128, bool) {
	inv := complex(1/math.Sqrt2, 0)
	theta := op.Param("theta")
	switch op.Kind() {
	case "h":
		return [2][2]complex128{{inv, inv}, {inv, -inv}}, true
	case "x", "cx":
		return [2][2]complex128{{0, 1}, {1, 0}}, true
	case "y", "cy":
		return [2][2]complex128{{0, -1i}, {1i, 0}}, true
	case "z", "cz":
		return [2][2]complex128{{1, 0}, {0, -1}}, true
	case "s":
		return [2][2]complex128{{1, 0}, {0, 1i}}, true
	case "sdg":
		return [2][2]complex128{{1, 0}, {0, -1i}}, true
	case "t":
		return [2][2]complex128{{1, 0}, {0, phase(math.Pi / 4)}}, true
	case "tdg":
		return [2][2]complex128{{1, 0}, {0, phase(-math.Pi / 4)}}, true
	case "p":
		return [2][2]complex128{{1, 0}, {0, phase(theta)}}, true
	case "rx", "crx":
		c := complex(math.Cos(theta/2), 0)
		sn := complex(0, -math.Sin(theta/2))
		return [2][2]complex128{{c, sn}, {sn, c}}, true
	case "ry", "cry":
		c := complex(math.Cos(theta/2), 0)
		sn := complex(math.Sin(theta/2), 0)
		return [2][2]complex128{{c, -sn}, {sn, c}}, true
	case "rz", "crz":
		return [2][2]complex128{{phase(-theta / 2), 0}, {0, phase(theta / 2)}}, true
	case "u":
		return uMatrix(theta, op.Param("phi"), op.Param("lambda")), true
	case "cu":
		m := uMatrix(theta, op.Param("phi"), op.Param("lambda"))
		g := phase(op.Param("gamma"))
		return [2][2]complex128{{g * m[0][0], g * m[0][1]}, {g * m[1][0], g * m[1][1]}}, true
	}
	return [2][2]complex128{}, false
}

// Apply executes one gate op. Measure ops are a no-op at the engine level;
// sampling handles them.
func (s *State) Apply(op circuit.GateOp) error {
	kind := op.Kind()
	switch kind {
	case "measure":
		return nil
	case "swap":
		s.applySwap(*op.Target, *op.Control)
		return nil
	case "ccx":
		m, _ := singleMatrix(circuit.GateOp{Gate: "x"})
		s.applyControlled1(*op.Target, m, op.Controls[0], op.Controls[1])
		return nil
	case "cx", "cy", "cz", "crx", "cry", "crz", "cu":
		m, ok := singleMatrix(op)
		if !ok {
			return fmt.Errorf("no matrix for gate kind %q", kind)
		}
		s.applyControlled1(*op.Target, m, *op.Control)
		return nil
	default:
		m, ok := singleMatrix(op)
		if !ok {
			return fmt.Errorf("no matrix for gate kind %q", kind)
		}
		s.apply1(*op.Target, m)
		return nil
	}
}

// Run evolves |0...0> through a validated circuit.
func Run(spec circuit.Spec) (*State, error) {
	s := New(spec.Qubits)
	for _, g := range spec.Gates {
		if err := s.Apply(g); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ------------------------------------------------------------------
// Sampling
// ------------------------------------------------------------------

// MeasureMap extracts qubit -> classical bit assignments from a circuit's
// measure ops. Empty when the circuit has no explicit measurement.
func MeasureMap(spec circuit.Spec) map[int]int {
	m := make(map[int]int)
	for _, g := range spec.Gates {
		if g.Kind() == "measure" {
			m[*g.Target] = g.MeasureBit()
		}
	}
	return m
}

// SampleCounts draws shots samples from the state distribution and folds
// them into classical bitstrings. An empty measure map means every qubit
// is measured into its same-indexed classical bit. Counts always sum to
// shots.
func (s *State) SampleCounts(shots int, measures map[int]int, rng *rand.Rand) map[string]int {
	probs := s.Probabilities()
	cum := make([]float64, len(probs))
	total := 0.0
	for i, p := range probs {
		total += p
		cum[i] = total
	}

	if len(measures) == 0 {
		measures = make(map[int]int, s.n)
		for q := 0; q < s.n; q++ {
			measures[q] = q
		}
	}

	counts := make(map[string]int)
	bits := make([]byte, s.n)
	for shot := 0; shot < shots; shot++ {
		r := rng.Float64() * total
		idx := sort.SearchFloat64s(cum, r)
		if idx >= len(probs) {
			idx = len(probs) - 1
		}
		for i := range bits {
			bits[i] = '0'
		}
		for q, cb := range measures {
			if idx&s.mask(q) != 0 {
				bits[cb] = '1'
			}
		}
		counts[string(bits)]++
	}
	return counts
}
