package backends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/perclft/QuantumBridge/circuit"
)

// ------------------------------------------------------------------
// Remote execution plumbing
// ------------------------------------------------------------------
//
// Every hosted provider goes through the same two-step job protocol:
// submit the translated program, then block on its results. The per-family
// adapters only differ in payload shape, auth headers and credential
// checks.

type remoteHTTP struct {
	baseURL string
	client  *http.Client
}

type jobSubmission struct {
	ID string `json:"id"`
}

type jobResults struct {
	Counts map[string]int `json:"counts"`
	Error  string         `json:"error,omitempty"`
}

// runJob submits a job and waits for its counts. Errors are classified:
// transport failures are connection errors, 401/403 are credential errors,
// everything else the remote reports is a runtime error.
func (r *remoteHTTP) runJob(ctx context.Context, backendKey string, headers map[string]string, payload any) (map[string]int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, runtimeError(backendKey, "failed to encode job payload: %v", err)
	}

	var sub jobSubmission
	if err := r.do(ctx, backendKey, http.MethodPost, "/jobs", headers, bytes.NewReader(body), &sub); err != nil {
		return nil, err
	}
	if sub.ID == "" {
		return nil, runtimeError(backendKey, "service did not return a job id")
	}

	var res jobResults
	if err := r.do(ctx, backendKey, http.MethodGet, "/jobs/"+sub.ID+"/results", headers, nil, &res); err != nil {
		return nil, err
	}
	if res.Error != "" {
		return nil, runtimeError(backendKey, "remote execution failed: %s", res.Error)
	}
	return res.Counts, nil
}

func (r *remoteHTTP) do(ctx context.Context, backendKey, method, path string, headers map[string]string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return runtimeError(backendKey, "failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return connectionError(backendKey, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return credentialError(backendKey, "service rejected credentials (HTTP %d)", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return runtimeError(backendKey, "service returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return runtimeError(backendKey, "failed to decode response: %v", err)
	}
	return nil
}

// ------------------------------------------------------------------
// OpenQASM 3.0 translation
// ------------------------------------------------------------------
//
// Shared by the IBM and Quantinuum families; both speak Qiskit-flavored
// QASM. The canonical gate kinds of the common subset are already valid
// QASM names.

func qasmProgram(family Family, backendKey string, spec circuit.Spec) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "OPENQASM 3.0;\ninclude \"stdgates.inc\";\nqubit[%d] q;\nbit[%d] c;\n\n",
		spec.Qubits, spec.Qubits)

	measured := false
	for _, g := range spec.Gates {
		kind := g.Kind()
		if !Supports(family, kind) {
			return "", unsupportedGateError(backendKey, kind)
		}
		def, _ := circuit.LookupGate(kind)

		if def.Arity == circuit.ArityMeasure {
			fmt.Fprintf(&b, "c[%d] = measure q[%d];\n", g.MeasureBit(), *g.Target)
			measured = true
			continue
		}

		b.WriteString(kind)
		if len(def.Params) > 0 {
			b.WriteString("(")
			for i, p := range def.Params {
				if i > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "%g", g.Param(p))
			}
			b.WriteString(")")
		}

		switch def.Arity {
		case circuit.AritySingle:
			fmt.Fprintf(&b, " q[%d];\n", *g.Target)
		case circuit.ArityControlled:
			fmt.Fprintf(&b, " q[%d], q[%d];\n", *g.Control, *g.Target)
		case circuit.ArityDoublyControlled:
			fmt.Fprintf(&b, " q[%d], q[%d], q[%d];\n", g.Controls[0], g.Controls[1], *g.Target)
		}
	}

	// Counts-mode backends need sampled outcomes; measure everything when
	// the circuit does not say otherwise.
	if !measured {
		b.WriteString("\nc = measure q;\n")
	}
	return b.String(), nil
}
