package backends

import (
	"context"
	"net/http"
	"time"

	"github.com/perclft/QuantumBridge/circuit"
	"github.com/perclft/QuantumBridge/credentials"
)

// ------------------------------------------------------------------
// AWS Braket Adapter
// ------------------------------------------------------------------
//
// One adapter per Braket-hosted family (IonQ, Rigetti). The descriptor's
// backend name carries the full device ARN, so result envelopes report
// exactly which device ran the job.

const defaultBraketBaseURL = "https://braket.us-east-1.amazonaws.com"

type BraketAdapter struct {
	family Family
	http   remoteHTTP
}

func NewBraketAdapter(family Family) *BraketAdapter {
	return &BraketAdapter{
		family: family,
		http: remoteHTTP{
			baseURL: defaultBraketBaseURL,
			client:  &http.Client{Timeout: 30 * time.Second},
		},
	}
}

// NewBraketAdapterWithEndpoint points the adapter at a custom service URL,
// for tests.
func NewBraketAdapterWithEndpoint(family Family, baseURL string, client *http.Client) *BraketAdapter {
	return &BraketAdapter{family: family, http: remoteHTTP{baseURL: baseURL, client: client}}
}

func (a *BraketAdapter) Family() Family { return a.family }

// braketInstruction is one gate in Braket's JSON program format.
type braketInstruction struct {
	Gate     string  `json:"gate"`
	Target   int     `json:"target"`
	Controls []int   `json:"controls,omitempty"`
	Angle    float64 `json:"angle,omitempty"`
}

type braketProgram struct {
	Qubits       int                 `json:"qubit_count"`
	Instructions []braketInstruction `json:"instructions"`
}

func (a *BraketAdapter) Translate(d Descriptor, spec circuit.Spec) (NativeCircuit, error) {
	prog := &braketProgram{Qubits: spec.Qubits}
	for _, g := range spec.Gates {
		kind := g.Kind()
		if !Supports(a.family, kind) {
			return nil, unsupportedGateError(d.Key, kind)
		}
		def, _ := circuit.LookupGate(kind)

		// Braket measures every qubit implicitly at the end of a shot;
		// explicit measure ops carry no instruction.
		if def.Arity == circuit.ArityMeasure {
			continue
		}

		inst := braketInstruction{Gate: kind, Target: *g.Target}
		switch def.Arity {
		case circuit.ArityControlled:
			inst.Controls = []int{*g.Control}
		case circuit.ArityDoublyControlled:
			inst.Controls = append([]int(nil), g.Controls...)
		}
		if len(def.Params) > 0 {
			inst.Angle = g.Param("theta")
		}
		prog.Instructions = append(prog.Instructions, inst)
	}
	return prog, nil
}

type braketJobPayload struct {
	DeviceARN string         `json:"device_arn"`
	Shots     int            `json:"shots"`
	Program   *braketProgram `json:"program"`
}

func (a *BraketAdapter) Execute(ctx context.Context, d Descriptor, nc NativeCircuit, creds credentials.Bundle, shots int) (*NativeResult, error) {
	accessKey := creds.Get("AWS_ACCESS_KEY_ID")
	secretKey := creds.Get("AWS_SECRET_ACCESS_KEY")
	region := creds.Get("AWS_REGION")
	if accessKey == "" || secretKey == "" || region == "" {
		return nil, credentialError(d.Key,
			"AWS credentials are not configured (need AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_REGION)")
	}

	prog := nc.(*braketProgram)
	payload := braketJobPayload{DeviceARN: d.BackendName, Shots: shots, Program: prog}

	counts, err := a.http.runJob(ctx, d.Key, map[string]string{
		"X-Amz-Access-Key": accessKey,
		"X-Amz-Secret-Key": secretKey,
		"X-Amz-Region":     region,
	}, payload)
	if err != nil {
		return nil, err
	}
	return &NativeResult{BackendUsed: d.BackendName, NumQubits: prog.Qubits, Counts: counts}, nil
}
