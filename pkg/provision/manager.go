package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/peoplekit/peoplekit/pkg/pg"
	"github.com/peoplekit/peoplekit/pkg/tenant"
	"github.com/peoplekit/peoplekit/pkg/tenantdb"
	"github.com/peoplekit/peoplekit/pkg/totp"
)

const minPasswordLength = 8

// Manager provisions and de-provisions tenant partitions. Every mutation of
// physical schemas happens here, transactionally with the matching registry
// change, so a schema and its registry row can never diverge.
//
// Manager operations are operator actions. They run with no tenant in
// scope and qualify or switch schemas explicitly.
type Manager struct {
	db         *tenantdb.Executor
	registry   *tenant.Registry
	otpSecret  string
	bcryptCost int
	log        *slog.Logger
}

// ManagerOption configures the manager.
type ManagerOption func(*Manager)

// WithBcryptCost sets the bcrypt cost for administrator credential hashing.
func WithBcryptCost(cost int) ManagerOption {
	return func(m *Manager) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			m.bcryptCost = cost
		}
	}
}

// WithLogger sets the manager's logger.
func WithLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager creates a lifecycle manager. otpSecret is the operator's TOTP
// secret used to confirm destructive operations.
func NewManager(db *tenantdb.Executor, registry *tenant.Registry, otpSecret string, opts ...ManagerOption) *Manager {
	m := &Manager{
		db:         db,
		registry:   registry,
		otpSecret:  otpSecret,
		bcryptCost: bcrypt.DefaultCost,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateParams are the inputs for provisioning a new tenant.
type CreateParams struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`
}

// Create provisions a tenant: schema, seeded base tables, one administrator
// identity, and the registry row, all in one transaction. Any failure rolls
// the whole thing back.
//
// The identifier is validated before anything touches storage; it is the
// sole defense against identifier-driven injection since schema names
// cannot be bound as parameters.
func (m *Manager) Create(ctx context.Context, params CreateParams) (*tenant.Tenant, error) {
	if err := tenant.ValidateID(params.ID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		name = params.ID
	}
	if len(params.AdminPassword) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.AdminPassword), m.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("provision: hash password: %w", err)
	}

	ctx = tenant.ClearTenant(ctx)

	if _, err := m.registry.FindByID(ctx, params.ID); err == nil {
		return nil, tenant.ErrTenantAlreadyExists
	} else if !errors.Is(err, tenant.ErrTenantNotFound) {
		return nil, errors.Join(ErrProvisioningFailed, err)
	}

	ident := pgx.Identifier{params.ID}.Sanitize()
	now := time.Now().UTC()

	err = m.db.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "CREATE SCHEMA "+ident); err != nil {
			return err
		}
		// SET LOCAL scopes the search_path to this transaction only, so the
		// seed DDL lands in the new schema and the connection comes back on
		// the default path at commit or rollback either way.
		if _, err := tx.Exec(ctx, "SET LOCAL search_path TO "+ident); err != nil {
			return err
		}
		for _, stmt := range seedStatements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx,
			"INSERT INTO users (id, email, password_hash, role) VALUES ($1, $2, $3, 'admin')",
			uuid.New(), params.AdminEmail, string(hash)); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			"INSERT INTO public.tenants (id, name, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)",
			params.ID, name, tenant.StatusActive, now); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		// A duplicate registry row and a pre-existing schema both mean the
		// identifier is taken; the latter shows up when a schema survived an
		// earlier partial teardown.
		if pg.IsDuplicateKeyError(err) || pg.IsDuplicateSchemaError(err) {
			return nil, tenant.ErrTenantAlreadyExists
		}
		return nil, errors.Join(ErrProvisioningFailed, err)
	}

	m.log.InfoContext(ctx, "tenant provisioned", slog.String("tenant_id", params.ID))

	return &tenant.Tenant{
		ID:        params.ID,
		Name:      name,
		Status:    tenant.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// UpdateParams are the inputs for patching a tenant.
type UpdateParams struct {
	tenant.Patch
	// AdminEmail, when set, also updates the administrator identity inside
	// the tenant's own schema.
	AdminEmail *string `json:"admin_email,omitempty"`
}

// Update patches the tenant record and, when requested, the administrator
// email inside the tenant partition, atomically.
func (m *Manager) Update(ctx context.Context, id string, params UpdateParams) (*tenant.Tenant, error) {
	if err := tenant.ValidateID(id); err != nil {
		return nil, err
	}
	if params.Status != nil && !params.Status.Valid() {
		return nil, fmt.Errorf("provision: status %q: %w", *params.Status, tenant.ErrInvalidStatus)
	}
	ctx = tenant.ClearTenant(ctx)

	if params.AdminEmail == nil {
		return m.registry.Update(ctx, id, params.Patch)
	}

	ident := pgx.Identifier{id}.Sanitize()

	var updated tenant.Tenant
	err := m.db.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			fmt.Sprintf("UPDATE %s.users SET email = $1, updated_at = now() WHERE role = 'admin'", ident),
			*params.AdminEmail)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrAdminNotFound
		}

		row := tx.QueryRow(ctx, `
			UPDATE public.tenants SET
				name = COALESCE($2::text, name),
				status = COALESCE($3::text, status),
				plan = COALESCE($4::text, plan),
				billing_email = COALESCE($5::text, billing_email),
				updated_at = now()
			WHERE id = $1
			RETURNING id, name, status, plan, billing_email, created_at, updated_at`,
			id, params.Name, params.Status, params.Plan, params.BillingEmail)
		return row.Scan(&updated.ID, &updated.Name, &updated.Status,
			&updated.Plan, &updated.BillingEmail, &updated.CreatedAt, &updated.UpdatedAt)
	})
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, tenant.ErrTenantNotFound
		}
		if errors.Is(err, ErrAdminNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("provision: update tenant %q: %w", id, err)
	}
	return &updated, nil
}

// Delete destroys a tenant: the schema with everything in it, and the
// registry row, in one transaction. Destruction is irreversible, so it
// requires a valid second-factor code over and above ordinary
// authorization; without one, nothing is touched.
func (m *Manager) Delete(ctx context.Context, id, otpCode string) error {
	if err := tenant.ValidateID(id); err != nil {
		return err
	}
	if strings.TrimSpace(otpCode) == "" {
		return ErrSecondFactorRequired
	}
	ok, err := totp.ValidateTOTP(m.otpSecret, otpCode)
	if err != nil || !ok {
		return ErrInvalidSecondFactor
	}

	ctx = tenant.ClearTenant(ctx)

	// Resolve through the registry so the schema we drop is one we own.
	t, err := m.registry.FindByID(ctx, id)
	if err != nil {
		return err
	}
	ident := pgx.Identifier{t.ID}.Sanitize()

	err = m.db.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DROP SCHEMA "+ident+" CASCADE"); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "DELETE FROM public.tenants WHERE id = $1", t.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return errors.Join(ErrDeprovisioningFailed, err)
	}

	m.log.InfoContext(ctx, "tenant deprovisioned", slog.String("tenant_id", id))
	return nil
}

// ResetAdminPassword replaces the administrator credential hash inside the
// tenant's partition. This is an operator action and bypasses the normal
// per-request tenant scoping entirely.
func (m *Manager) ResetAdminPassword(ctx context.Context, id, newPassword string) error {
	if err := tenant.ValidateID(id); err != nil {
		return err
	}
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	ctx = tenant.ClearTenant(ctx)

	t, err := m.registry.FindByID(ctx, id)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), m.bcryptCost)
	if err != nil {
		return fmt.Errorf("provision: hash password: %w", err)
	}

	ident := pgx.Identifier{t.ID}.Sanitize()
	tag, err := m.db.Exec(ctx,
		fmt.Sprintf("UPDATE %s.users SET password_hash = $1, updated_at = now() WHERE role = 'admin'", ident),
		string(hash))
	if err != nil {
		return fmt.Errorf("provision: reset admin password for %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAdminNotFound
	}
	return nil
}
