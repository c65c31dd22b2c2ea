// Package provision manages the lifecycle of tenant partitions: creation,
// metadata updates, administrator password resets, and destruction.
//
// Creation and destruction pair a physical schema change with the matching
// registry change inside a single transaction. Partial provisioning is
// structurally impossible: either the schema, its seed tables, the
// administrator identity, and the registry row all exist, or none do.
//
// Destruction is gated behind a TOTP second factor in addition to whatever
// authorization the caller performed, because dropping a schema cascades
// away every object a tenant owns and cannot be undone.
package provision
