package tenant

import (
	"time"
)

// Status describes the lifecycle state of a tenant.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Tenant represents one customer organization. The ID doubles as the name of
// the PostgreSQL schema holding the tenant's data, which is why it is
// validated against the safe-identifier grammar before it ever reaches DDL.
type Tenant struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Status       Status    `json:"status"`
	Plan         string    `json:"plan,omitempty"`
	BillingEmail string    `json:"billing_email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Active reports whether the tenant may serve requests.
func (t *Tenant) Active() bool {
	return t != nil && t.Status == StatusActive
}
