package db

import (
	"context"
	"database/sql"
	"fmt"

	// Cloud SQL dialer registers the "cloudsqlpostgres" driver.
	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/postgres"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/writewithwrabit/calorietrack/logging"
)

// Dialect selects the DDL flavour used by migrations.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DB wraps a *sql.DB so every statement is logged with its arguments before
// it runs.
type DB struct {
	*sql.DB
	dialect Dialect
	log     logging.Logger
}

// Wrap adopts an already opened connection pool, e.g. one from sqlmock.
func Wrap(conn *sql.DB, dialect Dialect, logger logging.Logger) *DB {
	if logger == nil {
		logger = logging.Nop()
	}
	return &DB{DB: conn, dialect: dialect, log: logger}
}

// Open connects with one of the supported drivers: postgres, cloudsqlpostgres
// or sqlite. The connection is pinged before it is returned.
func Open(ctx context.Context, driver, dsn string, logger logging.Logger) (*DB, error) {
	var dialect Dialect
	switch driver {
	case "postgres", "cloudsqlpostgres":
		dialect = Postgres
	case "sqlite":
		dialect = SQLite
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if dialect == SQLite {
		// SQLite allows a single writer; serialize through one connection.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}

	return Wrap(conn, dialect, logger), nil
}

// Dialect reports which DDL flavour the connection speaks.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

func (db *DB) LogAndQuery(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	db.log.Debug("query", "sql", query, "args", args)
	return db.QueryContext(ctx, query, args...)
}

func (db *DB) LogAndQueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	db.log.Debug("query row", "sql", query, "args", args)
	return db.QueryRowContext(ctx, query, args...)
}

func (db *DB) LogAndExec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	db.log.Debug("exec", "sql", query, "args", args)
	return db.ExecContext(ctx, query, args...)
}
