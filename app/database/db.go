package database

import (
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrStorageUnavailable marks catalog store failures that must abort the run.
var ErrStorageUnavailable = errors.New("catalog store unavailable")

// wrapStorageErr classifies a repository error. Constraint violations are
// data errors and pass through untagged; anything else means the store
// itself failed and carries ErrStorageUnavailable so callers abort the run.
func wrapStorageErr(op string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}

// DB wraps the catalog database handle. A single connection is used because
// the store is a local SQLite file and write transactions must not interleave.
type DB struct {
	*sql.DB
	Path string
}

// Open opens (creating if needed) the catalog database at path and applies
// pending schema migrations.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", ErrStorageUnavailable, err)
	}

	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("%w: failed to connect to database: %v", ErrStorageUnavailable, err)
	}

	if err := RunMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return &DB{DB: sqlDB, Path: path}, nil
}
