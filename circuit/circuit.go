// Canonical circuit representation shared by every backend adapter.
package circuit

import (
	"fmt"
	"strings"
)

// GateOp is one operation in a circuit. Index fields are pointers so that
// "absent" is distinguishable from qubit 0.
type GateOp struct {
	Gate         string             `json:"gate"`
	Target       *int               `json:"target,omitempty"`
	Control      *int               `json:"control,omitempty"`
	Controls     []int              `json:"controls,omitempty"`
	Params       map[string]float64 `json:"params,omitempty"`
	ClassicalBit *int               `json:"classical_bit,omitempty"`
}

// Kind returns the normalized (lower-case) gate kind.
func (g GateOp) Kind() string { return strings.ToLower(g.Gate) }

// Param returns a named angle parameter, defaulting to 0 when absent.
func (g GateOp) Param(name string) float64 {
	if g.Params == nil {
		return 0
	}
	return g.Params[name]
}

// MeasureBit returns the classical bit a measure op writes to. Defaults to
// the target qubit index.
func (g GateOp) MeasureBit() int {
	if g.ClassicalBit != nil {
		return *g.ClassicalBit
	}
	if g.Target != nil {
		return *g.Target
	}
	return 0
}

// Spec is a validated circuit: a qubit count and an ordered gate list.
// Treat as immutable once constructed.
type Spec struct {
	Qubits int      `json:"qubits"`
	Gates  []GateOp `json:"gates"`
}

// HasMeasure reports whether the circuit contains an explicit measure op.
func (s Spec) HasMeasure() bool {
	for _, g := range s.Gates {
		if g.Kind() == "measure" {
			return true
		}
	}
	return false
}

// ValidationError reports a malformed circuit. It is a local input problem:
// the dispatcher never retries or falls back on it.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "circuit validation error: " + e.Reason
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// New validates raw input and returns an immutable Spec. Unknown gate kinds
// and out-of-range qubit indices fail loudly; silently dropping operations
// would change circuit semantics invisibly.
func New(qubits int, gates []GateOp) (Spec, error) {
	spec := Spec{Qubits: qubits, Gates: gates}
	if err := Validate(spec); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// Validate checks a Spec against the gate table and qubit bounds.
func Validate(s Spec) error {
	if s.Qubits < 1 {
		return validationErrorf("qubits must be >= 1, got %d", s.Qubits)
	}

	checkIndex := func(pos int, kind, field string, idx int) error {
		if idx < 0 || idx >= s.Qubits {
			return validationErrorf("gate %d (%s): %s index %d out of range [0,%d)",
				pos, kind, field, idx, s.Qubits)
		}
		return nil
	}

	for i, g := range s.Gates {
		def, ok := LookupGate(g.Gate)
		if !ok {
			return validationErrorf("gate %d: unknown gate kind %q", i, g.Gate)
		}

		switch def.Arity {
		case AritySingle, ArityMeasure:
			if g.Target == nil {
				return validationErrorf("gate %d (%s): missing target", i, def.Kind)
			}
		case ArityControlled:
			if g.Target == nil {
				return validationErrorf("gate %d (%s): missing target", i, def.Kind)
			}
			if g.Control == nil {
				return validationErrorf("gate %d (%s): missing control", i, def.Kind)
			}
		case ArityDoublyControlled:
			if g.Target == nil {
				return validationErrorf("gate %d (%s): missing target", i, def.Kind)
			}
			if len(g.Controls) != 2 {
				return validationErrorf("gate %d (%s): requires exactly 2 control qubits, got %d",
					i, def.Kind, len(g.Controls))
			}
		}

		if g.Target != nil {
			if err := checkIndex(i, def.Kind, "target", *g.Target); err != nil {
				return err
			}
		}
		if g.Control != nil {
			if err := checkIndex(i, def.Kind, "control", *g.Control); err != nil {
				return err
			}
		}
		for _, c := range g.Controls {
			if err := checkIndex(i, def.Kind, "controls", c); err != nil {
				return err
			}
		}
		if def.Arity == ArityMeasure {
			if err := checkIndex(i, def.Kind, "classical_bit", g.MeasureBit()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Qubit is a convenience constructor for index pointer fields, mostly used
// by tests and the CLI.
func Qubit(i int) *int { return &i }
