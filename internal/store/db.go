package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PoolOptions tunes the shared connection pool.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
}

// driverName is the database/sql driver used by NewDB.
var driverName = "pgx"

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB opens the process-wide pool and verifies connectivity. The pgx
// stdlib driver pings connections that sat idle before handing them out,
// and ConnMaxLifetime recycles old ones.
func NewDB(ctx context.Context, connString string, opts PoolOptions) (*DB, error) {
	dsn, err := withConnectTimeout(connString, opts.ConnectTimeout)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)

	d := &DB{Client: db}
	if err := d.Ping(ctx); err != nil {
		return d, err
	}
	return d, nil
}

// Open connects and ensures the schema. Unlike NewDB it fails when the
// database is unreachable, so the process never serves requests against
// missing tables.
func Open(ctx context.Context, connString string, opts PoolOptions) (*DB, error) {
	d, err := NewDB(ctx, connString, opts)
	if err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := d.EnsureSchema(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// Ping checks that the database answers a trivial query.
func (d *DB) Ping(ctx context.Context) error {
	if d == nil || d.Client == nil {
		return fmt.Errorf("database not configured")
	}
	var one int
	return d.Client.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}

// withConnectTimeout adds connect_timeout to a URL-style connection string
// unless it is already present.
func withConnectTimeout(connString string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		return connString, nil
	}
	u, err := url.Parse(connString)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	q := u.Query()
	if q.Get("connect_timeout") == "" {
		secs := int(timeout.Round(time.Second) / time.Second)
		if secs < 1 {
			secs = 1
		}
		q.Set("connect_timeout", strconv.Itoa(secs))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
