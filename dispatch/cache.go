package dispatch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/perclft/QuantumBridge/backends"
	"github.com/perclft/QuantumBridge/circuit"
)

// ------------------------------------------------------------------
// Statevector result cache
// ------------------------------------------------------------------
//
// Statevector simulation is deterministic, so identical circuits can share
// one cached result. Counts runs are sampled and never cached. The cache
// is strictly best-effort: any redis failure is treated as a miss and
// dispatch proceeds.

type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewResultCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *ResultCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultCache{client: client, ttl: ttl, logger: logger}
}

// CacheKey hashes the circuit identity (width, ordered gates, output mode)
// into a stable redis key.
func CacheKey(spec circuit.Spec, mode backends.OutputMode) string {
	payload, _ := json.Marshal(struct {
		Qubits int                 `json:"qubits"`
		Gates  []circuit.GateOp    `json:"gates"`
		Mode   backends.OutputMode `json:"mode"`
	}{spec.Qubits, spec.Gates, mode})
	sum := sha256.Sum256(payload)
	return "qbridge:result:" + hex.EncodeToString(sum[:])
}

// Get returns the cached result for a key, or nil on miss or any error.
func (c *ResultCache) Get(ctx context.Context, key string) *Result {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("result cache read failed", "err", err)
		}
		return nil
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		c.logger.Warn("result cache entry is corrupt, dropping", "key", key, "err", err)
		c.client.Del(ctx, key)
		return nil
	}
	return &res
}

// Put stores a result under a key. Failures are logged and ignored.
func (c *ResultCache) Put(ctx context.Context, key string, res *Result) {
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("result cache write failed", "err", err)
	}
}
