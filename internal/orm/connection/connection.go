// Package connection manages named database connections, the SQL dialects
// they speak, and the units of work fixtures run inside.
package connection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Connection is a named database handle paired with its dialect
type Connection struct {
	name    string
	db      *sql.DB
	dialect Dialect
}

// New wraps an open database handle
func New(name string, db *sql.DB, dialect Dialect) *Connection {
	return &Connection{name: name, db: db, dialect: dialect}
}

// Open opens a connection from its configuration and verifies it with a ping.
func Open(ctx context.Context, name string, cfg Config) (*Connection, error) {
	dialect, err := NewDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn := cfg.DSN
	if dialect.Name() == "sqlite" {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", name, err)
	}

	if dialect.Name() == "sqlite" {
		// SQLite: single writer, and in-memory databases live per connection
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", name, err)
	}

	return New(name, db, dialect), nil
}

// sqliteDSN enables foreign keys for every connection the pool opens, unless
// the DSN already sets them.
func sqliteDSN(dsn string) string {
	query := ""
	if i := strings.IndexByte(dsn, '?'); i >= 0 {
		query = dsn[i+1:]
	}
	for _, param := range strings.Split(query, "&") {
		key, _, _ := strings.Cut(param, "=")
		if key == "_foreign_keys" || key == "_fk" {
			return dsn
		}
	}

	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=1"
	}
	return dsn + "?_foreign_keys=1"
}

// Name returns the configured connection name
func (c *Connection) Name() string {
	return c.name
}

// DB returns the underlying database handle
func (c *Connection) DB() *sql.DB {
	return c.db
}

// Dialect returns the SQL dialect of the connection
func (c *Connection) Dialect() Dialect {
	return c.dialect
}

// Close closes the underlying database handle
func (c *Connection) Close() error {
	return c.db.Close()
}

// Transactional runs fn inside a transaction on a single pinned connection.
// The transaction commits when fn returns nil and rolls back on error or panic.
func (c *Connection) Transactional(ctx context.Context, fn func(q Querier) error) error {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection %s: %w", c.name, err)
	}
	defer conn.Close()

	return runInTx(ctx, conn, nil, fn)
}

// WithoutConstraints runs fn inside a transaction with foreign key checks
// suspended. Checks are restored before the connection is released, even
// when fn fails.
func (c *Connection) WithoutConstraints(ctx context.Context, fn func(q Querier) error) (err error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection %s: %w", c.name, err)
	}
	defer conn.Close()

	disable := c.dialect.DisableConstraintsSQL()
	if c.dialect.ConstraintsScopedToTransaction() {
		return runInTx(ctx, conn, disable, fn)
	}

	if err := execAll(ctx, conn, disable); err != nil {
		return fmt.Errorf("disable constraints on %s: %w", c.name, err)
	}
	defer func() {
		// restore even when ctx was canceled
		if enableErr := execAll(context.WithoutCancel(ctx), conn, c.dialect.EnableConstraintsSQL()); enableErr != nil {
			err = errors.Join(err, fmt.Errorf("enable constraints on %s: %w", c.name, enableErr))
		}
	}()

	return runInTx(ctx, conn, nil, fn)
}

func runInTx(ctx context.Context, conn *sql.Conn, setup []string, fn func(q Querier) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-throw panic after rollback
		}
	}()

	if err := execAll(ctx, tx, setup); err != nil {
		tx.Rollback()
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func execAll(ctx context.Context, q Querier, statements []string) error {
	for _, stmt := range statements {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}
