package circuit

import "strings"

// ------------------------------------------------------------------
// Gate table
// ------------------------------------------------------------------
//
// Every adapter consults this one table instead of re-implementing the
// gate dispatch per provider. Adding a gate kind means adding one row.

type Arity int

const (
	AritySingle           Arity = iota // target only
	ArityControlled                    // control + target
	ArityDoublyControlled              // controls (exactly 2) + target
	ArityMeasure                       // target + optional classical bit
)

// GateDef describes one recognized gate kind: how many qubits it touches
// and which named angle parameters it consumes.
type GateDef struct {
	Kind   string
	Arity  Arity
	Params []string
}

var gateTable = map[string]GateDef{
	// Single-qubit gates
	"h":   {Kind: "h", Arity: AritySingle},
	"x":   {Kind: "x", Arity: AritySingle},
	"y":   {Kind: "y", Arity: AritySingle},
	"z":   {Kind: "z", Arity: AritySingle},
	"s":   {Kind: "s", Arity: AritySingle},
	"sdg": {Kind: "sdg", Arity: AritySingle},
	"t":   {Kind: "t", Arity: AritySingle},
	"tdg": {Kind: "tdg", Arity: AritySingle},
	"rx":  {Kind: "rx", Arity: AritySingle, Params: []string{"theta"}},
	"ry":  {Kind: "ry", Arity: AritySingle, Params: []string{"theta"}},
	"rz":  {Kind: "rz", Arity: AritySingle, Params: []string{"theta"}},
	"p":   {Kind: "p", Arity: AritySingle, Params: []string{"theta"}},
	"u":   {Kind: "u", Arity: AritySingle, Params: []string{"theta", "phi", "lambda"}},

	// Two-qubit gates
	"cx":   {Kind: "cx", Arity: ArityControlled},
	"cy":   {Kind: "cy", Arity: ArityControlled},
	"cz":   {Kind: "cz", Arity: ArityControlled},
	"swap": {Kind: "swap", Arity: ArityControlled},
	"crx":  {Kind: "crx", Arity: ArityControlled, Params: []string{"theta"}},
	"cry":  {Kind: "cry", Arity: ArityControlled, Params: []string{"theta"}},
	"crz":  {Kind: "crz", Arity: ArityControlled, Params: []string{"theta"}},
	"cu":   {Kind: "cu", Arity: ArityControlled, Params: []string{"theta", "phi", "lambda", "gamma"}},

	// Three-qubit gates
	"ccx": {Kind: "ccx", Arity: ArityDoublyControlled},

	// Measurement
	"measure": {Kind: "measure", Arity: ArityMeasure},
}

// LookupGate resolves a gate kind, case-insensitively.
func LookupGate(kind string) (GateDef, bool) {
	def, ok := gateTable[strings.ToLower(kind)]
	return def, ok
}

// GateKinds returns every recognized gate kind. Mostly useful for
// capability listings and tests.
func GateKinds() []string {
	kinds := make([]string, 0, len(gateTable))
	for k := range gateTable {
		kinds = append(kinds, k)
	}
	return kinds
}
