package tenantdb

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool lends and reclaims physical database connections. The pgxpool-backed
// implementation is the production one; tests substitute fakes to exercise
// the bind/reset discipline without a database.
type Pool interface {
	// Acquire borrows a connection, blocking until one is available or ctx
	// is done.
	Acquire(ctx context.Context) (Conn, error)

	// Close drains the pool and closes all connections.
	Close()
}

// Conn is a borrowed physical connection. Exactly one of Release or Destroy
// must be called when the borrower is done with it.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)

	// Release returns the connection to the pool for reuse.
	Release()

	// Destroy permanently removes the connection from the pool and closes
	// it. Used when the connection's state can no longer be trusted; the
	// pool opens a replacement on the next demand.
	Destroy(ctx context.Context)
}

type pgxPool struct {
	pool *pgxpool.Pool
}

// NewPgxPool wraps a pgxpool.Pool in the Pool interface.
func NewPgxPool(pool *pgxpool.Pool) Pool {
	return &pgxPool{pool: pool}
}

func (p *pgxPool) Acquire(ctx context.Context) (Conn, error) {
	c, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxConn{conn: c}, nil
}

func (p *pgxPool) Close() {
	p.pool.Close()
}

type pgxConn struct {
	conn *pgxpool.Conn
}

func (c *pgxConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return c.conn.Exec(ctx, sql, args...)
}

func (c *pgxConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return c.conn.Query(ctx, sql, args...)
}

func (c *pgxConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return c.conn.QueryRow(ctx, sql, args...)
}

func (c *pgxConn) Begin(ctx context.Context) (pgx.Tx, error) {
	return c.conn.Begin(ctx)
}

func (c *pgxConn) Release() {
	c.conn.Release()
}

// Destroy hijacks the underlying connection out of the pool and closes it,
// so the pool can never hand it to another borrower.
func (c *pgxConn) Destroy(ctx context.Context) {
	conn := c.conn.Hijack()
	_ = conn.Close(ctx)
}
