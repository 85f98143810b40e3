package qualitygate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/orgforge/pkg/storage/postgres"
)

// ErrBuiltInMissing is returned when the server holds no built-in quality gate
var ErrBuiltInMissing = errors.New("built-in quality gate is missing")

// QualityGate is a set of conditions a project must meet
type QualityGate struct {
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	IsBuiltIn bool      `json:"is_built_in"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store handles persistence of quality gates and their organization links
type Store struct{}

// NewStore creates a new Store
func NewStore() *Store {
	return &Store{}
}

// SelectBuiltIn retrieves the built-in quality gate
func (s *Store) SelectBuiltIn(ctx context.Context, q postgres.Querier) (*QualityGate, error) {
	query := `
		SELECT uuid, name, is_built_in, created_at, updated_at
		FROM quality_gates
		WHERE is_built_in = TRUE
		ORDER BY created_at ASC
		LIMIT 1
	`
	gate := &QualityGate{}
	err := q.QueryRowContext(ctx, query).Scan(&gate.UUID, &gate.Name, &gate.IsBuiltIn, &gate.CreatedAt, &gate.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrBuiltInMissing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get built-in quality gate: %w", err)
	}
	return gate, nil
}

// Insert creates a quality gate
func (s *Store) Insert(ctx context.Context, q postgres.Querier, gate *QualityGate) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO quality_gates (uuid, name, is_built_in, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		gate.UUID, gate.Name, gate.IsBuiltIn, gate.CreatedAt, gate.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create quality gate: %w", err)
	}
	return nil
}

// Associate makes a quality gate available to an organization
func (s *Store) Associate(ctx context.Context, q postgres.Querier, uuid, organizationUUID, gateUUID string) error {
	query := `
		INSERT INTO org_quality_gates (uuid, organization_uuid, quality_gate_uuid)
		VALUES ($1, $2, $3)
	`
	if _, err := q.ExecContext(ctx, query, uuid, organizationUUID, gateUUID); err != nil {
		return fmt.Errorf("failed to associate quality gate: %w", err)
	}
	return nil
}

// SetDefault records the default quality gate of an organization
func (s *Store) SetDefault(ctx context.Context, q postgres.Querier, organizationUUID, gateUUID string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE organizations SET default_quality_gate_uuid = $1 WHERE uuid = $2`,
		gateUUID, organizationUUID)
	if err != nil {
		return fmt.Errorf("failed to set default quality gate: %w", err)
	}
	return nil
}

// SelectDefault retrieves the default quality gate of an organization
func (s *Store) SelectDefault(ctx context.Context, q postgres.Querier, organizationUUID string) (*QualityGate, error) {
	query := `
		SELECT qg.uuid, qg.name, qg.is_built_in, qg.created_at, qg.updated_at
		FROM organizations o
		JOIN quality_gates qg ON qg.uuid = o.default_quality_gate_uuid
		WHERE o.uuid = $1
	`
	gate := &QualityGate{}
	err := q.QueryRowContext(ctx, query, organizationUUID).Scan(&gate.UUID, &gate.Name, &gate.IsBuiltIn, &gate.CreatedAt, &gate.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("default quality gate of organization %s: %w", organizationUUID, postgres.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default quality gate: %w", err)
	}
	return gate, nil
}
