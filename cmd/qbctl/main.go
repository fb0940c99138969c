package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	gatewayAddr string
	httpClient  = &http.Client{Timeout: 10 * time.Minute}
)

func main() {
	root := &cobra.Command{
		Use:   "qbctl",
		Short: "Command-line client for the QuantumBridge gateway",
	}
	root.PersistentFlags().StringVar(&gatewayAddr, "gateway", "http://localhost:8080", "Gateway base URL")

	root.AddCommand(newRunCmd(), newBackendsCmd(), newSaveCredentialsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

// ------------------------------------------------------------------
// run
// ------------------------------------------------------------------

func newRunCmd() *cobra.Command {
	var (
		file      string
		provider  string
		shots     int
		fallback  bool
		simChoice string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Submit a circuit JSON file for execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read circuit file: %w", err)
			}
			var circuitBody json.RawMessage
			if err := json.Unmarshal(data, &circuitBody); err != nil {
				return fmt.Errorf("invalid circuit JSON: %w", err)
			}

			payload, _ := json.Marshal(map[string]any{
				"provider":                   provider,
				"circuit":                    circuitBody,
				"shots":                      shots,
				"use_simulator_if_qpu_fails": fallback,
				"simulator_choice":           simChoice,
			})

			fmt.Printf("⚡ Submitting circuit to %s (backend %s, %d shots)\n", gatewayAddr, provider, shots)
			start := time.Now()
			body, err := post("/run", payload)
			if err != nil {
				return err
			}
			fmt.Printf("✅ Done in %s\n", time.Since(start).Round(time.Millisecond))
			printRunResult(body)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Path to circuit JSON file ({qubits, gates})")
	cmd.Flags().StringVar(&provider, "provider", "aer_qasm_simulator", "Backend key")
	cmd.Flags().IntVar(&shots, "shots", 1024, "Number of shots (counts mode)")
	cmd.Flags().BoolVar(&fallback, "fallback", false, "Fall back to a simulator if the QPU fails")
	cmd.Flags().StringVar(&simChoice, "simulator", "aer_qasm_simulator", "Fallback simulator key")
	cmd.MarkFlagRequired("file")
	return cmd
}

type runResult struct {
	BackendUsed              string             `json:"backend_used"`
	NumQubits                int                `json:"num_qubits"`
	Counts                   map[string]int     `json:"counts"`
	Probabilities            map[string]float64 `json:"probabilities"`
	OriginalBackendAttempted string             `json:"original_backend_attempted"`
	FallbackReason           string             `json:"fallback_reason"`
}

func printRunResult(body []byte) {
	var res runResult
	if err := json.Unmarshal(body, &res); err != nil {
		fmt.Println(string(body))
		return
	}

	fmt.Printf("Backend: %s (%d qubits)\n", res.BackendUsed, res.NumQubits)
	if res.FallbackReason != "" {
		fmt.Printf("⚠️ Fell back from %s: %s\n", res.OriginalBackendAttempted, res.FallbackReason)
	}

	if len(res.Counts) > 0 {
		total := 0
		for _, n := range res.Counts {
			total += n
		}
		fmt.Printf("Counts (%d shots):\n", total)
		for _, bits := range sortedKeys(res.Counts) {
			n := res.Counts[bits]
			bar := strings.Repeat("█", n*40/total)
			fmt.Printf("  |%s⟩ %6d %s\n", bits, n, bar)
		}
		return
	}

	fmt.Println("Probabilities:")
	for _, bits := range sortedKeys(res.Probabilities) {
		fmt.Printf("  |%s⟩ %.4f\n", bits, res.Probabilities[bits])
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ------------------------------------------------------------------
// backends
// ------------------------------------------------------------------

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the backends the gateway knows about",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := get("/backends")
			if err != nil {
				return err
			}
			var res struct {
				Backends []struct {
					Key    string `json:"key"`
					Family string `json:"family"`
					Type   string `json:"type"`
					Mode   string `json:"mode"`
				} `json:"backends"`
			}
			if err := json.Unmarshal(body, &res); err != nil {
				return err
			}
			for _, b := range res.Backends {
				marker := "🖥️"
				if b.Type == "qpu" {
					marker = "⚛️"
				}
				fmt.Printf("%s %-28s family=%-10s type=%-9s mode=%s\n", marker, b.Key, b.Family, b.Type, b.Mode)
			}
			return nil
		},
	}
}

// ------------------------------------------------------------------
// save-credentials
// ------------------------------------------------------------------

func newSaveCredentialsCmd() *cobra.Command {
	var (
		provider string
		fields   []string
	)
	cmd := &cobra.Command{
		Use:   "save-credentials",
		Short: "Store provider credentials in the gateway for this session",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := make(map[string]string, len(fields))
			for _, f := range fields {
				key, value, ok := strings.Cut(f, "=")
				if !ok {
					return fmt.Errorf("invalid -set value %q, want KEY=VALUE", f)
				}
				creds[key] = value
			}

			payload, _ := json.Marshal(map[string]any{
				"provider":    provider,
				"credentials": creds,
			})
			if _, err := post("/save_credentials", payload); err != nil {
				return err
			}
			fmt.Printf("✅ Credentials saved for %s (%d fields)\n", provider, len(creds))
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "Provider family (ibm, ionq, rigetti, quantinuum, pennylane)")
	cmd.Flags().StringArrayVar(&fields, "set", nil, "Credential field as KEY=VALUE (repeatable)")
	cmd.MarkFlagRequired("provider")
	cmd.MarkFlagRequired("set")
	return cmd
}

// ------------------------------------------------------------------
// HTTP helpers
// ------------------------------------------------------------------

func post(path string, payload []byte) ([]byte, error) {
	resp, err := httpClient.Post(gatewayAddr+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("gateway unreachable: %w", err)
	}
	return readResponse(resp)
}

func get(path string) ([]byte, error) {
	resp, err := httpClient.Get(gatewayAddr + path)
	if err != nil {
		return nil, fmt.Errorf("gateway unreachable: %w", err)
	}
	return readResponse(resp)
}

func readResponse(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var apiErr struct {
			Error       string `json:"error"`
			BackendUsed string `json:"backend_used"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.BackendUsed != "" {
				return nil, fmt.Errorf("%s (backend: %s)", apiErr.Error, apiErr.BackendUsed)
			}
			return nil, fmt.Errorf("%s", apiErr.Error)
		}
		return nil, fmt.Errorf("gateway returned HTTP %d", resp.StatusCode)
	}
	return body, nil
}
