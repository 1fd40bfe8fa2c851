package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/xxkhanxx77/aura-poc-llm/internal/repository"
)

// TenantRepo implements repository.TenantRepository
type TenantRepo struct {
	db *DB
}

// NewTenantRepo creates a new tenant repository
func NewTenantRepo(db *DB) *TenantRepo {
	return &TenantRepo{db: db}
}

// Create creates a new tenant
func (r *TenantRepo) Create(ctx context.Context, tenant *repository.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, plan, api_key, llm_budget, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Pool.Exec(ctx, query,
		tenant.ID, tenant.Name, tenant.Plan, tenant.APIKey, tenant.LLMBudget, tenant.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

// GetByID retrieves a tenant by ID
func (r *TenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*repository.Tenant, error) {
	query := `
		SELECT id, name, plan, api_key, llm_budget, created_at
		FROM tenants
		WHERE id = $1
	`
	return r.scanTenant(ctx, query, id)
}

// GetByAPIKey retrieves a tenant by API key
func (r *TenantRepo) GetByAPIKey(ctx context.Context, apiKey string) (*repository.Tenant, error) {
	query := `
		SELECT id, name, plan, api_key, llm_budget, created_at
		FROM tenants
		WHERE api_key = $1
	`
	return r.scanTenant(ctx, query, apiKey)
}

func (r *TenantRepo) scanTenant(ctx context.Context, query string, args ...any) (*repository.Tenant, error) {
	var tenant repository.Tenant

	err := r.db.Pool.QueryRow(ctx, query, args...).Scan(
		&tenant.ID, &tenant.Name, &tenant.Plan, &tenant.APIKey,
		&tenant.LLMBudget, &tenant.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return &tenant, nil
}

// UpdateBudget changes a tenant's monthly call budget, typically on a plan
// change. The new budget applies to the next reservation, not retroactively.
func (r *TenantRepo) UpdateBudget(ctx context.Context, id uuid.UUID, budget int64) error {
	result, err := r.db.Pool.Exec(ctx,
		`UPDATE tenants SET llm_budget = $2 WHERE id = $1`,
		id, budget)
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}
	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateAPIKey rotates a tenant's API key
func (r *TenantRepo) UpdateAPIKey(ctx context.Context, id uuid.UUID, newAPIKey string) error {
	result, err := r.db.Pool.Exec(ctx,
		`UPDATE tenants SET api_key = $2 WHERE id = $1`,
		id, newAPIKey)
	if err != nil {
		return fmt.Errorf("failed to update API key: %w", err)
	}
	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Ensure TenantRepo implements the interface
var _ repository.TenantRepository = (*TenantRepo)(nil)
