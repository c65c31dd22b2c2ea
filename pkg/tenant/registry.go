package tenant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/peoplekit/peoplekit/pkg/pg"
)

// DB is the query surface the registry needs. The tenantdb executor
// satisfies it; tests supply fakes.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRows(ctx context.Context, sql string, args []any, fn func(pgx.Rows) error) error
}

// Registry is the authoritative catalog of tenants, stored in the shared
// "public" schema. All registry operations run with no tenant in scope so
// they always hit the shared schema regardless of the caller's request scope.
type Registry struct {
	db DB
}

// NewRegistry creates a registry backed by db.
func NewRegistry(db DB) *Registry {
	return &Registry{db: db}
}

const tenantColumns = "id, name, status, plan, billing_email, created_at, updated_at"

func scanTenant(rows pgx.Rows) (*Tenant, error) {
	var t Tenant
	if err := rows.Scan(&t.ID, &t.Name, &t.Status, &t.Plan, &t.BillingEmail, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// FindByID returns the tenant with the given identifier, or ErrTenantNotFound.
func (r *Registry) FindByID(ctx context.Context, id string) (*Tenant, error) {
	ctx = ClearTenant(ctx)

	var found *Tenant
	err := r.db.QueryRows(ctx,
		"SELECT "+tenantColumns+" FROM public.tenants WHERE id = $1",
		[]any{id},
		func(rows pgx.Rows) error {
			for rows.Next() {
				t, err := scanTenant(rows)
				if err != nil {
					return err
				}
				found = t
			}
			return rows.Err()
		})
	if err != nil {
		return nil, fmt.Errorf("registry: find tenant %q: %w", id, err)
	}
	if found == nil {
		return nil, ErrTenantNotFound
	}
	return found, nil
}

// FindAll returns every registered tenant, oldest first.
func (r *Registry) FindAll(ctx context.Context) ([]Tenant, error) {
	ctx = ClearTenant(ctx)

	var tenants []Tenant
	err := r.db.QueryRows(ctx,
		"SELECT "+tenantColumns+" FROM public.tenants ORDER BY created_at",
		nil,
		func(rows pgx.Rows) error {
			for rows.Next() {
				t, err := scanTenant(rows)
				if err != nil {
					return err
				}
				tenants = append(tenants, *t)
			}
			return rows.Err()
		})
	if err != nil {
		return nil, fmt.Errorf("registry: list tenants: %w", err)
	}
	return tenants, nil
}

// Create registers a new active tenant. The identifier must already satisfy
// ValidateID; callers provisioning a partition should prefer the lifecycle
// manager, which creates the schema and the registry row atomically.
func (r *Registry) Create(ctx context.Context, id, name string) (*Tenant, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	ctx = ClearTenant(ctx)

	now := time.Now().UTC()
	_, err := r.db.Exec(ctx,
		"INSERT INTO public.tenants (id, name, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)",
		id, name, StatusActive, now)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return nil, ErrTenantAlreadyExists
		}
		return nil, fmt.Errorf("registry: create tenant %q: %w", id, err)
	}

	return &Tenant{ID: id, Name: name, Status: StatusActive, CreatedAt: now, UpdatedAt: now}, nil
}

// Patch is a partial update of mutable tenant fields. The identifier itself
// is immutable; it names the physical schema.
type Patch struct {
	Name         *string `json:"name,omitempty"`
	Status       *Status `json:"status,omitempty"`
	Plan         *string `json:"plan,omitempty"`
	BillingEmail *string `json:"billing_email,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Status == nil && p.Plan == nil && p.BillingEmail == nil
}

// Update applies a partial patch to the tenant record and returns the
// updated record.
func (r *Registry) Update(ctx context.Context, id string, patch Patch) (*Tenant, error) {
	if patch.Empty() {
		return r.FindByID(ctx, id)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, fmt.Errorf("registry: status %q: %w", *patch.Status, ErrInvalidStatus)
	}
	ctx = ClearTenant(ctx)

	sets := []string{"updated_at = now()"}
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.Plan != nil {
		add("plan", *patch.Plan)
	}
	if patch.BillingEmail != nil {
		add("billing_email", *patch.BillingEmail)
	}

	query := "UPDATE public.tenants SET " + strings.Join(sets, ", ") +
		" WHERE id = $1 RETURNING " + tenantColumns

	var updated *Tenant
	err := r.db.QueryRows(ctx, query, args, func(rows pgx.Rows) error {
		for rows.Next() {
			t, err := scanTenant(rows)
			if err != nil {
				return err
			}
			updated = t
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("registry: update tenant %q: %w", id, err)
	}
	if updated == nil {
		return nil, ErrTenantNotFound
	}
	return updated, nil
}

// GetByIdentifier implements Provider for the resolution middleware.
func (r *Registry) GetByIdentifier(ctx context.Context, identifier string) (*Tenant, error) {
	if err := ValidateID(identifier); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, identifier)
}
