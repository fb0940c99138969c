package backends

import "sort"

// ------------------------------------------------------------------
// Backend Registry
// ------------------------------------------------------------------

// Entry pairs a backend's static descriptor with the adapter that runs it.
type Entry struct {
	Descriptor Descriptor
	Adapter    Adapter
}

// Registry is the key -> backend table. Built once at process start and
// read-only afterwards, so lookups need no locking.
type Registry struct {
	entries map[string]Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

func (r *Registry) Register(d Descriptor, a Adapter) {
	r.entries[d.Key] = Entry{Descriptor: d, Adapter: a}
}

// Get resolves a backend key. An unknown key is a configuration error,
// never subject to retry or fallback.
func (r *Registry) Get(key string) (Entry, error) {
	e, ok := r.entries[key]
	if !ok {
		return Entry{}, &ConfigError{Key: key}
	}
	return e, nil
}

// List returns every registered descriptor, sorted by key.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Descriptor)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// DefaultRegistry seeds the full backend table. Every QPU family has at
// least one simulator entry usable as a fallback target.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	ibm := NewIBMAdapter()
	ionq := NewBraketAdapter(FamilyIonQ)
	rigetti := NewBraketAdapter(FamilyRigetti)
	quantinuum := NewQuantinuumAdapter()

	// IBM Quantum
	r.Register(Descriptor{Key: "ibm_qasm_simulator", Family: FamilyIBM,
		BackendName: "ibmq_qasm_simulator", Type: TypeSimulator, Mode: ModeCounts}, ibm)
	r.Register(Descriptor{Key: "ibm_brisbane", Family: FamilyIBM,
		BackendName: "ibm_brisbane", Type: TypeQPU, Mode: ModeCounts}, ibm)
	r.Register(Descriptor{Key: "ibm_osprey", Family: FamilyIBM,
		BackendName: "ibm_osprey", Type: TypeQPU, Mode: ModeCounts}, ibm)

	// AWS Braket. The local simulator key needs no credentials and runs on
	// the in-process engine.
	r.Register(Descriptor{Key: "aws_ionq", Family: FamilyIonQ,
		BackendName: "arn:aws:braket:::device/qpu/ionq/ionQdevice", Type: TypeQPU, Mode: ModeCounts}, ionq)
	r.Register(Descriptor{Key: "aws_rigetti", Family: FamilyRigetti,
		BackendName: "arn:aws:braket:::device/qpu/rigetti/Aspen-M-3", Type: TypeQPU, Mode: ModeCounts}, rigetti)
	r.Register(Descriptor{Key: "aws_sv1", Family: FamilyIonQ,
		BackendName: "arn:aws:braket:::device/quantum-simulator/amazon/sv1", Type: TypeSimulator, Mode: ModeCounts}, ionq)
	r.Register(Descriptor{Key: "aws_local", Family: FamilyIonQ,
		BackendName: "braket_local_simulator", Type: TypeSimulator, Mode: ModeCounts},
		NewSimulatorAdapter(FamilyIonQ))

	// Local simulators
	r.Register(Descriptor{Key: "google_cirq", Family: FamilyCirq,
		BackendName: "cirq_simulator", Type: TypeSimulator, Mode: ModeAuto},
		NewSimulatorAdapter(FamilyCirq))
	r.Register(Descriptor{Key: "pennylane_default", Family: FamilyPennyLane,
		BackendName: "default.qubit", Type: TypeSimulator, Mode: ModeAuto},
		NewSimulatorAdapter(FamilyPennyLane))
	r.Register(Descriptor{Key: "pennylane_lightning", Family: FamilyPennyLane,
		BackendName: "lightning.qubit", Type: TypeSimulator, Mode: ModeAuto},
		NewSimulatorAdapter(FamilyPennyLane))
	r.Register(Descriptor{Key: "aer_qasm_simulator", Family: FamilyAer,
		BackendName: "aer_simulator", Type: TypeSimulator, Mode: ModeCounts},
		NewSimulatorAdapter(FamilyAer))
	r.Register(Descriptor{Key: "aer_statevector_simulator", Family: FamilyAer,
		BackendName: "aer_simulator_statevector", Type: TypeSimulator, Mode: ModeStatevector},
		NewSimulatorAdapter(FamilyAer))

	// Quantinuum via Azure Quantum
	r.Register(Descriptor{Key: "quantinuum_h1", Family: FamilyQuantinuum,
		BackendName: "quantinuum.qpu.h1-1", Type: TypeQPU, Mode: ModeCounts}, quantinuum)
	r.Register(Descriptor{Key: "quantinuum_sim_h1", Family: FamilyQuantinuum,
		BackendName: "quantinuum.sim.h1-1e", Type: TypeSimulator, Mode: ModeCounts}, quantinuum)

	return r
}
