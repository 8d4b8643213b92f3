package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gomatch/domain/balance"
	"gomatch/domain/core"
	"gomatch/domain/match"
	"gomatch/ports"
)

// ResultRepositoryImpl implements ResultRepository for PostgreSQL.
// The variable-shaped parts of a result (assignment, weights, balance
// table, warnings) are stored as JSONB; the scalar summary columns are
// kept relational so results can be listed and filtered cheaply.
type ResultRepositoryImpl struct {
	db *sqlx.DB
}

// NewResultRepository creates a new PostgreSQL result repository
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &ResultRepositoryImpl{db: db}
}

// Save persists a match result, replacing any prior row with the same ID
func (r *ResultRepositoryImpl) Save(ctx context.Context, result *match.Result) error {
	configJSON, err := json.Marshal(result.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	formulaJSON, err := json.Marshal(result.Formula)
	if err != nil {
		return fmt.Errorf("failed to marshal formula: %w", err)
	}
	payloadJSON, err := json.Marshal(resultPayload{
		Scores:     result.Scores,
		Assignment: result.Assignment,
		Weights:    result.Weights,
		Discarded:  result.Discarded,
		Warnings:   result.Warnings,
		Balance:    result.Balance,
		Sizes:      result.Sizes,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO match_results (
			id, method, distance, estimand, config, formula, payload,
			estimand_shifted, total_distance, seed, runtime_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			config = EXCLUDED.config,
			formula = EXCLUDED.formula,
			payload = EXCLUDED.payload,
			estimand_shifted = EXCLUDED.estimand_shifted,
			total_distance = EXCLUDED.total_distance,
			runtime_ms = EXCLUDED.runtime_ms`,
		result.ID, string(result.Config.Method), string(result.Config.Distance),
		string(result.Config.Estimand), configJSON, formulaJSON, payloadJSON,
		result.EstimandShifted, result.TotalDistance, result.Seed,
		result.RuntimeMs, result.CreatedAt.Time())

	return err
}

// GetByID retrieves a result by its ID
func (r *ResultRepositoryImpl) GetByID(ctx context.Context, id core.ResultID) (*match.Result, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, config, formula, payload, estimand_shifted,
			   total_distance, seed, runtime_ms, created_at
		FROM match_results
		WHERE id = $1
	`, id)

	result, err := scanResult(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("match result %s: %w", id, core.ErrResultNotFound)
	}
	return result, err
}

// List returns results newest first
func (r *ResultRepositoryImpl) List(ctx context.Context, limit, offset int) ([]*match.Result, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, config, formula, payload, estimand_shifted,
			   total_distance, seed, runtime_ms, created_at
		FROM match_results
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*match.Result
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// Delete removes a result by ID
func (r *ResultRepositoryImpl) Delete(ctx context.Context, id core.ResultID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM match_results WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("match result %s: %w", id, core.ErrResultNotFound)
	}
	return nil
}

// resultPayload bundles the JSONB-stored parts of a result
type resultPayload struct {
	Scores     map[core.UnitID]float64 `json:"scores,omitempty"`
	Assignment *match.Assignment       `json:"assignment"`
	Weights    match.Weights           `json:"weights"`
	Discarded  []core.UnitID           `json:"discarded,omitempty"`
	Warnings   []match.Warning         `json:"warnings,omitempty"`
	Balance    *balance.Table          `json:"balance,omitempty"`
	Sizes      match.SampleSizes       `json:"sizes"`
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanResult(row scannable) (*match.Result, error) {
	var result match.Result
	var configJSON, formulaJSON, payloadJSON []byte
	var createdAt sql.NullTime

	err := row.Scan(
		&result.ID, &configJSON, &formulaJSON, &payloadJSON,
		&result.EstimandShifted, &result.TotalDistance, &result.Seed,
		&result.RuntimeMs, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(configJSON, &result.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := json.Unmarshal(formulaJSON, &result.Formula); err != nil {
		return nil, fmt.Errorf("failed to unmarshal formula: %w", err)
	}
	var payload resultPayload
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	result.Scores = payload.Scores
	result.Assignment = payload.Assignment
	result.Weights = payload.Weights
	result.Discarded = payload.Discarded
	result.Warnings = payload.Warnings
	result.Balance = payload.Balance
	result.Sizes = payload.Sizes
	if createdAt.Valid {
		result.CreatedAt = core.NewTimestamp(createdAt.Time)
	}
	return &result, nil
}
