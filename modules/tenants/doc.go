// Package tenants exposes the administrative HTTP endpoints for tenant
// management: provisioning, listing, metadata updates, administrator
// password resets, and second-factor-gated destruction.
package tenants
