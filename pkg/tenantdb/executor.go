package tenantdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/peoplekit/peoplekit/pkg/tenant"
)

// DefaultSchema is the neutral schema a connection is bound to when no
// tenant is in scope, and to which every connection must return before
// being released back to the pool.
const DefaultSchema = "public"

const resetSearchPath = "SET search_path TO " + DefaultSchema

// Executor runs SQL against the schema of whichever tenant is in the
// caller's context. With no tenant in scope, statements run against the
// neutral default schema; registry and operator paths rely on that.
//
// Every borrowed connection is bound to the tenant's schema immediately
// before use and reset to the default before release. A connection whose
// reset fails is destroyed, never returned to the pool.
type Executor struct {
	pool           Pool
	acquireTimeout time.Duration
	log            *slog.Logger
	onDiscard      func(schema string, cause error)
}

// ExecutorOption configures the executor.
type ExecutorOption func(*Executor)

// WithAcquireTimeout bounds how long a caller blocks waiting for a free
// connection before the call fails with ErrPoolExhausted.
func WithAcquireTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.acquireTimeout = d
		}
	}
}

// WithLogger sets the logger used to record discarded connections.
func WithLogger(log *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if log != nil {
			e.log = log
		}
	}
}

// WithDiscardHook registers a callback invoked whenever a connection is
// destroyed because its search_path reset failed. Intended for metrics.
func WithDiscardHook(fn func(schema string, cause error)) ExecutorOption {
	return func(e *Executor) {
		e.onDiscard = fn
	}
}

// NewExecutor creates an executor on top of pool.
func NewExecutor(pool Pool, opts ...ExecutorOption) *Executor {
	e := &Executor{
		pool:           pool,
		acquireTimeout: 5 * time.Second,
		log:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// schemaFor resolves the schema for the current scope. Identifiers are
// re-validated even though they come from the registry: this line is where
// text reaches SQL without parameter binding.
func schemaFor(ctx context.Context) (string, error) {
	t, ok := tenant.FromContext(ctx)
	if !ok {
		return DefaultSchema, nil
	}
	if err := tenant.ValidateID(t.ID); err != nil {
		return "", err
	}
	return t.ID, nil
}

// WithConn runs fn on a connection bound to the current scope's schema.
//
// The lifecycle is fixed: acquire (bounded by the acquisition timeout),
// bind, fn, reset, release. The reset runs regardless of fn's outcome, on a
// context detached from the caller's cancellation. If the reset fails the
// connection is destroyed instead of released; fn's own result still stands.
// A panic in fn destroys the connection too, then propagates: the slot must
// reopen even when the borrower never returns.
func (e *Executor) WithConn(ctx context.Context, fn func(ctx context.Context, conn Conn) error) error {
	acquireCtx, cancel := context.WithTimeout(ctx, e.acquireTimeout)
	defer cancel()

	conn, err := e.pool.Acquire(acquireCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return errors.Join(ErrPoolExhausted, err)
		}
		return fmt.Errorf("tenantdb: acquire connection: %w", err)
	}

	schema, err := schemaFor(ctx)
	if err != nil {
		conn.Release()
		return err
	}

	if schema != DefaultSchema {
		// The bind has not happened yet on failure, so the handle is still
		// on the default schema and safe to return.
		if _, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{schema}.Sanitize()); err != nil {
			conn.Release()
			return errors.Join(ErrPartitionBind, err)
		}
	}

	// The cleanup runs deferred so a panic inside fn cannot abandon the
	// borrow: a panicked callback may have left the connection mid-statement
	// and still bound to the tenant schema, so it is destroyed rather than
	// released, the slot reopens, and the panic continues up the stack.
	completed := false
	defer func() {
		if !completed {
			e.discard(ctx, conn, schema, errAbandonedBorrow)
		}
	}()

	fnErr := fn(ctx, conn)
	completed = true

	if schema != DefaultSchema {
		// Cleanup must run even if the request was canceled mid-query.
		if _, err := conn.Exec(context.WithoutCancel(ctx), resetSearchPath); err != nil {
			// Returning a handle still bound to a tenant schema would let
			// the next borrower read that tenant's data. Destroy it; the
			// pool opens a replacement. The query outcome is unaffected.
			e.discard(ctx, conn, schema, err)
			return fnErr
		}
	}

	conn.Release()
	return fnErr
}

var errAbandonedBorrow = errors.New("tenantdb: scoped work panicked before cleanup")

// discard takes a connection out of rotation instead of returning it to the
// pool, recording why.
func (e *Executor) discard(ctx context.Context, conn Conn, schema string, cause error) {
	e.log.ErrorContext(ctx, "discarding connection",
		slog.String("schema", schema),
		slog.Any("error", cause),
	)
	if e.onDiscard != nil {
		e.onDiscard(schema, cause)
	}
	conn.Destroy(context.WithoutCancel(ctx))
}

// Exec runs a statement in the current tenant scope.
func (e *Executor) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	var tag pgconn.CommandTag
	err := e.WithConn(ctx, func(ctx context.Context, conn Conn) error {
		var err error
		tag, err = conn.Exec(ctx, sql, args...)
		return err
	})
	return tag, err
}

// QueryRows runs a query in the current tenant scope and hands the result
// set to fn. The rows are only valid inside fn; the connection goes through
// the usual reset-and-release once fn returns.
func (e *Executor) QueryRows(ctx context.Context, sql string, args []any, fn func(rows pgx.Rows) error) error {
	return e.WithConn(ctx, func(ctx context.Context, conn Conn) error {
		rows, err := conn.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		return fn(rows)
	})
}

// WithTx runs fn inside a transaction on a connection bound to the current
// tenant scope. The transaction commits when fn returns nil and rolls back
// otherwise; the connection then goes through the same reset-or-destroy
// discipline as every other borrow.
func (e *Executor) WithTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return e.WithConn(ctx, func(ctx context.Context, conn Conn) error {
		tx, err := conn.Begin(ctx)
		if err != nil {
			return fmt.Errorf("tenantdb: begin transaction: %w", err)
		}

		if err := fn(ctx, tx); err != nil {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				return errors.Join(err, rbErr)
			}
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("tenantdb: commit transaction: %w", err)
		}
		return nil
	})
}

// Close drains the underlying pool.
func (e *Executor) Close() {
	e.pool.Close()
}
