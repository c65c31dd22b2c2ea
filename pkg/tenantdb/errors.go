package tenantdb

import "errors"

var (
	// ErrPoolExhausted is returned when no connection becomes available
	// within the acquisition timeout. It is a capacity condition; callers
	// may retry.
	ErrPoolExhausted = errors.New("connection pool exhausted")

	// ErrPartitionBind is returned when switching a connection's
	// search_path to the tenant's schema fails before query execution.
	ErrPartitionBind = errors.New("failed to bind connection to tenant partition")
)
