// Package credentials holds provider secrets for the lifetime of the
// process. Nothing is ever persisted: the store starts empty, is populated
// by explicit save calls, and is cleared at shutdown.
package credentials

import (
	"os"
	"sync"
)

// Bundle maps named secret fields to values, scoped to one provider
// family. An empty bundle is not an error; the adapter decides whether a
// required field is missing.
type Bundle map[string]string

// Get returns a field value or "" when absent.
func (b Bundle) Get(field string) string {
	if b == nil {
		return ""
	}
	return b[field]
}

// clone guards against callers mutating stored bundles.
func (b Bundle) clone() Bundle {
	out := make(Bundle, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// ------------------------------------------------------------------
// In-memory store
// ------------------------------------------------------------------

// Store is the process-wide credential store. Concurrent requests read it
// while save calls write it, so every access goes through the mutex.
type Store struct {
	mu       sync.RWMutex
	byFamily map[string]Bundle
}

func NewStore() *Store {
	return &Store{byFamily: make(map[string]Bundle)}
}

// Save replaces the bundle for a provider family.
func (s *Store) Save(family string, b Bundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byFamily[family] = b.clone()
}

// get returns a copy of the stored bundle, if any.
func (s *Store) get(family string) (Bundle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byFamily[family]
	if !ok {
		return nil, false
	}
	return b.clone(), true
}

// Clear wipes every stored bundle. Called at process shutdown.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byFamily = make(map[string]Bundle)
}

// ------------------------------------------------------------------
// Resolver
// ------------------------------------------------------------------

// envFields lists the environment defaults per provider family.
var envFields = map[string][]string{
	"ibm":        {"IBMQ_TOKEN"},
	"ionq":       {"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_REGION"},
	"rigetti":    {"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_REGION"},
	"quantinuum": {"AZURE_QUANTUM_SUBSCRIPTION_ID", "AZURE_QUANTUM_WORKSPACE_NAME", "AZURE_QUANTUM_RESOURCE_GROUP", "AZURE_QUANTUM_LOCATION"},
	"pennylane":  {"PENNYLANE_API_KEY"},
}

// Resolver resolves a credential bundle for a provider family. A bundle
// saved through the store takes priority over environment defaults.
// Bundles are resolved fresh per request and never cached here.
type Resolver struct {
	store     *Store
	lookupEnv func(string) string
}

func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store, lookupEnv: os.Getenv}
}

// NewResolverWithEnv injects the environment lookup, for tests.
func NewResolverWithEnv(store *Store, lookupEnv func(string) string) *Resolver {
	return &Resolver{store: store, lookupEnv: lookupEnv}
}

// Resolve returns the bundle for a family. An empty bundle when nothing is
// configured; missing required fields are the adapter's call to make.
func (r *Resolver) Resolve(family string) Bundle {
	if b, ok := r.store.get(family); ok {
		return b
	}
	b := make(Bundle)
	for _, field := range envFields[family] {
		if v := r.lookupEnv(field); v != "" {
			b[field] = v
		}
	}
	return b
}
