// Package library persists named circuits for the front-end editor in
// PostgreSQL. The gateway runs fine without it; the server only mounts the
// /circuits routes when a store is configured.
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/perclft/QuantumBridge/circuit"
)

var ErrNotFound = errors.New("circuit not found")

// Record is one saved circuit with its metadata.
type Record struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	NumQubits   int          `json:"num_qubits"`
	NumGates    int          `json:"num_gates"`
	Circuit     circuit.Spec `json:"circuit"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Store is the circuits table access layer.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to PostgreSQL and ensures the schema exists.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &Store{db: db}
	if err := s.Init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Init creates the circuits table if it doesn't exist.
func (s *Store) Init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS circuits (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		num_qubits INTEGER NOT NULL,
		num_gates INTEGER NOT NULL,
		circuit_json JSONB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_circuits_name ON circuits(name);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error { return s.db.Close() }

// Save validates and stores a circuit, returning the completed record.
func (s *Store) Save(ctx context.Context, name, description string, spec circuit.Spec) (*Record, error) {
	if err := circuit.Validate(spec); err != nil {
		return nil, err
	}

	rec := &Record{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		NumQubits:   spec.Qubits,
		NumGates:    len(spec.Gates),
		Circuit:     spec,
		CreatedAt:   time.Now().UTC(),
	}
	rec.UpdatedAt = rec.CreatedAt

	circuitJSON, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("serialize circuit: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO circuits (id, name, description, num_qubits, num_gates, circuit_json, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rec.ID, rec.Name, rec.Description, rec.NumQubits, rec.NumGates, string(circuitJSON), rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("save circuit: %w", err)
	}
	return rec, nil
}

// Load retrieves one circuit by ID.
func (s *Store) Load(ctx context.Context, id string) (*Record, error) {
	var rec Record
	var circuitJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, num_qubits, num_gates, circuit_json, created_at, updated_at
		FROM circuits WHERE id = $1
	`, id).Scan(&rec.ID, &rec.Name, &rec.Description, &rec.NumQubits, &rec.NumGates,
		&circuitJSON, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load circuit: %w", err)
	}
	if err := json.Unmarshal([]byte(circuitJSON), &rec.Circuit); err != nil {
		return nil, fmt.Errorf("deserialize circuit %s: %w", id, err)
	}
	return &rec, nil
}

// List returns a page of circuit metadata, newest first. The circuit body
// is omitted; Load fetches it.
func (s *Store) List(ctx context.Context, page, pageSize int) ([]Record, error) {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, num_qubits, num_gates, created_at, updated_at
		FROM circuits ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list circuits: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Description, &rec.NumQubits,
			&rec.NumGates, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan circuit row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes a circuit by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM circuits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete circuit: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
