// Package sqldb opens the relational store shared by the incident and report
// repositories. Postgres is reached through pgx's database/sql driver, SQLite
// through modernc.org/sqlite.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DB is a *sql.DB that knows which placeholder style its driver expects.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open picks the driver from the DSN: postgres:// and postgresql:// URLs use
// pgx, "sqlite:" prefixed paths (or a bare ":memory:") use SQLite.
func Open(ctx context.Context, dsn string) (*DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("sqldb: dsn is required")
	}
	var (
		driver  string
		dialect Dialect
		source  = dsn
	)
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		driver, dialect = "pgx", Postgres
	case strings.HasPrefix(dsn, "sqlite:"):
		driver, dialect = "sqlite", SQLite
		source = strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite:"), "//")
	case dsn == ":memory:":
		driver, dialect = "sqlite", SQLite
	default:
		return nil, fmt.Errorf("sqldb: unsupported dsn %q", redact(dsn))
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("sqldb: open %s: %w", dialect, err)
	}
	if dialect == SQLite {
		// every connection to :memory: would be a separate database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqldb: ping %s: %w", dialect, err)
	}
	return &DB{DB: db, Dialect: dialect}, nil
}

var placeholder = regexp.MustCompile(`\$\d+`)

// Rebind rewrites $1-style placeholders for drivers that expect '?'.
// Queries must reference their arguments in order.
func (db *DB) Rebind(query string) string {
	if db.Dialect == SQLite {
		return placeholder.ReplaceAllString(query, "?")
	}
	return query
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.DB.ExecContext(ctx, db.Rebind(query), args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, db.Rebind(query), args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.DB.QueryRowContext(ctx, db.Rebind(query), args...)
}

func redact(dsn string) string {
	if i := strings.Index(dsn, "@"); i >= 0 {
		if j := strings.Index(dsn, "://"); j >= 0 && j < i {
			return dsn[:j+3] + "***" + dsn[i:]
		}
	}
	return dsn
}
