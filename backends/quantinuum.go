package backends

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/perclft/QuantumBridge/circuit"
	"github.com/perclft/QuantumBridge/credentials"
)

// ------------------------------------------------------------------
// Quantinuum Adapter (Azure Quantum)
// ------------------------------------------------------------------

const defaultAzureQuantumBaseURL = "https://quantum.azure.com/api/v1"

// QuantinuumAdapter runs circuits on Quantinuum hardware and emulators
// through an Azure Quantum workspace. Programs travel as OpenQASM 3.0, the
// same dialect the IBM family uses.
type QuantinuumAdapter struct {
	http remoteHTTP
}

func NewQuantinuumAdapter() *QuantinuumAdapter {
	return &QuantinuumAdapter{
		http: remoteHTTP{
			baseURL: defaultAzureQuantumBaseURL,
			client:  &http.Client{Timeout: 30 * time.Second},
		},
	}
}

// NewQuantinuumAdapterWithEndpoint points the adapter at a custom service
// URL, for tests.
func NewQuantinuumAdapterWithEndpoint(baseURL string, client *http.Client) *QuantinuumAdapter {
	return &QuantinuumAdapter{http: remoteHTTP{baseURL: baseURL, client: client}}
}

func (a *QuantinuumAdapter) Family() Family { return FamilyQuantinuum }

type quantinuumProgram struct {
	QASM   string
	Qubits int
}

func (a *QuantinuumAdapter) Translate(d Descriptor, spec circuit.Spec) (NativeCircuit, error) {
	qasm, err := qasmProgram(FamilyQuantinuum, d.Key, spec)
	if err != nil {
		return nil, err
	}
	return &quantinuumProgram{QASM: qasm, Qubits: spec.Qubits}, nil
}

type azureJobPayload struct {
	Workspace string `json:"workspace"`
	Target    string `json:"target"`
	Shots     int    `json:"shots"`
	Program   string `json:"program"`
}

func (a *QuantinuumAdapter) Execute(ctx context.Context, d Descriptor, nc NativeCircuit, creds credentials.Bundle, shots int) (*NativeResult, error) {
	subscription := creds.Get("AZURE_QUANTUM_SUBSCRIPTION_ID")
	workspace := creds.Get("AZURE_QUANTUM_WORKSPACE_NAME")
	resourceGroup := creds.Get("AZURE_QUANTUM_RESOURCE_GROUP")
	location := creds.Get("AZURE_QUANTUM_LOCATION")
	if subscription == "" || workspace == "" || resourceGroup == "" || location == "" {
		return nil, credentialError(d.Key,
			"Azure Quantum workspace is not configured (need AZURE_QUANTUM_SUBSCRIPTION_ID, AZURE_QUANTUM_WORKSPACE_NAME, AZURE_QUANTUM_RESOURCE_GROUP, AZURE_QUANTUM_LOCATION)")
	}

	prog := nc.(*quantinuumProgram)
	payload := azureJobPayload{
		Workspace: fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/workspaces/%s",
			subscription, resourceGroup, workspace),
		Target:  d.BackendName,
		Shots:   shots,
		Program: prog.QASM,
	}

	counts, err := a.http.runJob(ctx, d.Key, map[string]string{
		"X-Azure-Location": location,
	}, payload)
	if err != nil {
		return nil, err
	}
	return &NativeResult{BackendUsed: d.BackendName, NumQubits: prog.Qubits, Counts: counts}, nil
}
