// Package sqlstore is the self-hosted persistence adapter: Postgres through
// lib/pq in production, SQLite through modernc.org/sqlite for single-node
// installs and tests. Queries are written with '?' and rebound per driver.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var tracer = otel.Tracer("sqlstore")

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Store implements port.Store on a SQL database.
type Store struct {
	db     *sqlx.DB
	driver string
	logger *zap.Logger
}

// Open connects to the database, applies the schema and returns the store.
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (*Store, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		// one writer at a time
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	s := &Store{db: db, driver: driver, logger: logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &domain.ErrExternalService{Service: "database", Err: err}
	}
	return nil
}

func (s *Store) get(ctx context.Context, q sqlx.QueryerContext, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, q, dest, s.db.Rebind(query), args...)
}

func (s *Store) selectAll(ctx context.Context, q sqlx.QueryerContext, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, q, dest, s.db.Rebind(query), args...)
}

func (s *Store) exec(ctx context.Context, e sqlx.ExecerContext, query string, args ...any) (sql.Result, error) {
	return e.ExecContext(ctx, s.db.Rebind(query), args...)
}

// notFound maps sql.ErrNoRows to ErrNotFound and everything else through dbError.
func (s *Store) notFound(err error, resource, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.ErrNotFound{Resource: resource, ID: id}
	}
	return s.dbError(err)
}

// dbError turns driver errors into domain errors.
func (s *Store) dbError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return &domain.ErrConflict{Message: "resource already exists"}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.ErrTimeout{Operation: "database"}
	}
	s.logger.Error("sqlstore: query failed", zap.String("driver", s.driver), zap.Error(err))
	return &domain.ErrExternalService{Service: "database", Err: err}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
			strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}

// inTx runs fn in a transaction, committing only when fn returns nil.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return s.dbError(err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return s.dbError(err)
	}
	return nil
}
