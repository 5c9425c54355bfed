// Package sqlite implements the repository interfaces on an embedded SQLite
// database used as a document store.
//
// DOCUMENTS IN SQLITE:
// Each restaurant is one row whose doc column holds the whole restaurant as
// JSON, comments included. The columns next to it (name, cuisine, borough,
// lng, lat) are copies of document fields that the listing queries filter
// and sort on. They are written together with doc, so they never drift.
//
// A comment mutation reads the document, changes it in Go and writes it back
// inside one IMMEDIATE transaction. SQLite takes the write lock at BEGIN, so
// two concurrent comment writes on the same restaurant serialize instead of
// losing one of the appends.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// modernc.org/sqlite is a pure Go translation of SQLite. No C compiler is
// needed, and it lets us register Go functions as SQL functions, which is how
// the neighborhood filter runs inside the query (see geo.go).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	// Registers the "sqlite3" goqu dialect used by the query builders.
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"

	"github.com/sakif/restaurant-guide/internal/repository"
)

// dialect builds every dynamic query in this package.
var dialect = goqu.Dialect("sqlite3")

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/restaurants.db" → file-based database (persistent)
//   - ":memory:"            → in-memory database (tests)
//
// PRAGMAS IN THE DSN:
// database/sql keeps a pool of connections, and a PRAGMA executed with Exec
// only reaches one of them. Passing pragmas as _pragma DSN parameters makes
// the driver apply them to every connection it opens.
func New(dbPath string) (*DB, error) {
	if err := registerFunctions(); err != nil {
		return nil, fmt.Errorf("sqlite: registering functions: %w", err)
	}

	memory := dbPath == ":memory:"
	conn, err := sql.Open("sqlite", dsn(dbPath, memory))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is a separate, empty database.
	// One connection keeps the whole pool on the same data.
	if memory {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func dsn(dbPath string, memory bool) string {
	params := []string{
		"_pragma=foreign_keys(1)",
		"_txlock=immediate",
	}
	if !memory {
		params = append(params,
			"_pragma=journal_mode(WAL)",
			"_pragma=busy_timeout(5000)",
		)
	}
	return dbPath + "?" + strings.Join(params, "&")
}

// Ping checks that the database still answers.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS restaurants (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			cuisine    TEXT NOT NULL DEFAULT '',
			borough    TEXT NOT NULL DEFAULT '',
			lng        REAL,
			lat        REAL,
			doc        TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_restaurants_name ON restaurants(name, id);
		CREATE INDEX IF NOT EXISTS idx_restaurants_cuisine ON restaurants(cuisine, borough);
	`)
	if err != nil {
		return fmt.Errorf("creating restaurants table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS neighborhoods (
			name     TEXT PRIMARY KEY,
			geometry TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating neighborhoods table: %w", err)
	}

	// username is UNIQUE: registration relies on the constraint, not on a
	// racy lookup-then-insert.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			avatar        TEXT NOT NULL DEFAULT '',
			role          TEXT NOT NULL DEFAULT 'user',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS user_favorites (
			user_id       TEXT NOT NULL REFERENCES users(id),
			restaurant_id TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, restaurant_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users tables: %w", err)
	}

	return nil
}
