package backends

import (
	"context"
	"net/http"
	"time"

	"github.com/perclft/QuantumBridge/circuit"
	"github.com/perclft/QuantumBridge/credentials"
)

// ------------------------------------------------------------------
// IBM Quantum Adapter
// ------------------------------------------------------------------

const defaultIBMBaseURL = "https://api.quantum-computing.ibm.com/runtime"

// IBMAdapter runs circuits on IBM Quantum backends through the Qiskit
// Runtime service. Circuits travel as OpenQASM 3.0 programs.
type IBMAdapter struct {
	http remoteHTTP
}

func NewIBMAdapter() *IBMAdapter {
	return &IBMAdapter{
		http: remoteHTTP{
			baseURL: defaultIBMBaseURL,
			client:  &http.Client{Timeout: 30 * time.Second},
		},
	}
}

// NewIBMAdapterWithEndpoint points the adapter at a custom service URL,
// for tests.
func NewIBMAdapterWithEndpoint(baseURL string, client *http.Client) *IBMAdapter {
	return &IBMAdapter{http: remoteHTTP{baseURL: baseURL, client: client}}
}

func (a *IBMAdapter) Family() Family { return FamilyIBM }

type ibmProgram struct {
	QASM   string
	Qubits int
}

func (a *IBMAdapter) Translate(d Descriptor, spec circuit.Spec) (NativeCircuit, error) {
	qasm, err := qasmProgram(FamilyIBM, d.Key, spec)
	if err != nil {
		return nil, err
	}
	return &ibmProgram{QASM: qasm, Qubits: spec.Qubits}, nil
}

type ibmJobPayload struct {
	ProgramID string    `json:"program_id"`
	Backend   string    `json:"backend"`
	Params    ibmParams `json:"params"`
}

type ibmParams struct {
	Circuits []string `json:"circuits"`
	Shots    int      `json:"shots"`
}

func (a *IBMAdapter) Execute(ctx context.Context, d Descriptor, nc NativeCircuit, creds credentials.Bundle, shots int) (*NativeResult, error) {
	token := creds.Get("IBMQ_TOKEN")
	if token == "" {
		return nil, credentialError(d.Key, "IBMQ_TOKEN is not configured")
	}

	prog := nc.(*ibmProgram)
	payload := ibmJobPayload{
		ProgramID: "sampler",
		Backend:   d.BackendName,
		Params:    ibmParams{Circuits: []string{prog.QASM}, Shots: shots},
	}

	counts, err := a.http.runJob(ctx, d.Key, map[string]string{
		"Authorization": "Bearer " + token,
	}, payload)
	if err != nil {
		return nil, err
	}
	return &NativeResult{BackendUsed: d.BackendName, NumQubits: prog.Qubits, Counts: counts}, nil
}
