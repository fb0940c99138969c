// Backend abstraction layer: one translation + execution contract for
// every provider family, local simulators and remote QPUs alike.
package backends

import (
	"context"

	"github.com/perclft/QuantumBridge/circuit"
	"github.com/perclft/QuantumBridge/credentials"
)

// ------------------------------------------------------------------
// Descriptors
// ------------------------------------------------------------------

// Family identifies a provider family. One Adapter exists per family.
type Family string

const (
	FamilyIBM        Family = "ibm"
	FamilyIonQ       Family = "ionq"
	FamilyRigetti    Family = "rigetti"
	FamilyCirq       Family = "cirq"
	FamilyPennyLane  Family = "pennylane"
	FamilyAer        Family = "aer"
	FamilyQuantinuum Family = "quantinuum"
)

// ProviderType distinguishes physical hardware from simulators. Fallback
// targets must be simulators.
type ProviderType string

const (
	TypeQPU       ProviderType = "qpu"
	TypeSimulator ProviderType = "simulator"
)

// OutputMode selects how a backend reports results.
//
// ModeAuto picks counts when the circuit contains an explicit measure op
// and statevector otherwise, which is how the Cirq and PennyLane local
// simulators behave.
type OutputMode string

const (
	ModeCounts      OutputMode = "counts"
	ModeStatevector OutputMode = "statevector"
	ModeAuto        OutputMode = "auto"
)

// ResolveMode collapses ModeAuto against a concrete circuit.
func ResolveMode(m OutputMode, hasMeasure bool) OutputMode {
	if m != ModeAuto {
		return m
	}
	if hasMeasure {
		return ModeCounts
	}
	return ModeStatevector
}

// Descriptor is the static identity of one registered backend. Immutable,
// defined at process start.
type Descriptor struct {
	Key         string       `json:"key"`
	Family      Family       `json:"family"`
	BackendName string       `json:"backend_name"`
	Type        ProviderType `json:"type"`
	Mode        OutputMode   `json:"mode"`
}

// ------------------------------------------------------------------
// Adapter contract
// ------------------------------------------------------------------

// NativeCircuit is a provider-native program produced by Translate and
// consumed by the same adapter's Execute. Opaque to everything else.
type NativeCircuit any

// NativeResult is the raw output of one execution before normalization.
// Exactly one of Counts and Statevector is set.
type NativeResult struct {
	BackendUsed string
	NumQubits   int
	Counts      map[string]int
	Statevector []complex128
}

// Adapter translates the canonical circuit into one provider family's
// native form and executes it. Execute may block for network round-trips
// and remote queueing; callers bound it with the context deadline.
type Adapter interface {
	Family() Family

	// Translate maps each gate through the shared gate table into the
	// provider's native program. A gate kind the provider lacks yields an
	// unsupported-gate Error rather than a silent skip.
	Translate(d Descriptor, spec circuit.Spec) (NativeCircuit, error)

	// Execute runs the translated program. Shots is ignored in
	// statevector mode. Failures are classified as credential,
	// connection or runtime Errors.
	Execute(ctx context.Context, d Descriptor, nc NativeCircuit, creds credentials.Bundle, shots int) (*NativeResult, error)
}

// ------------------------------------------------------------------
// Per-family gate support
// ------------------------------------------------------------------
//
// Which canonical gate kinds each family can translate. The common subset
// mirrors what the provider SDKs expose; only the Aer family covers the
// full table.

var commonKinds = []string{
	"h", "x", "y", "z", "s", "sdg", "t", "tdg",
	"rx", "ry", "rz", "cx", "ccx", "swap", "measure",
}

var familyKinds = map[Family][]string{
	FamilyAer:        circuit.GateKinds(),
	FamilyCirq:       commonKinds,
	FamilyPennyLane:  commonKinds,
	FamilyIBM:        commonKinds,
	FamilyIonQ:       commonKinds,
	FamilyRigetti:    commonKinds,
	FamilyQuantinuum: commonKinds,
}

// Supports reports whether a family can translate a gate kind.
func Supports(f Family, kind string) bool {
	for _, k := range familyKinds[f] {
		if k == kind {
			return true
		}
	}
	return false
}
