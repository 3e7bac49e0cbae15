// Package db opens connections for the supported dialects, normalizes
// connection URLs into driver DSNs, converts driver-specific errors into
// portable sentinels, and provides transaction management.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/strata-db/strata/dialect"
)

// Open connects using the given dialect's driver, translating a portable
// connection URL into the driver's DSN shape, and verifies the connection
// with a ping.
func Open(ctx context.Context, d dialect.Dialect, connURL string) (*sql.DB, error) {
	dsn, err := DSN(d, connURL)
	if err != nil {
		return nil, err
	}
	conn, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", d.Name(), err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging %s: %w", d.Name(), err)
	}
	return conn, nil
}

// DSN converts a portable connection URL into the dialect driver's DSN.
// PostgreSQL URLs pass through; sqlite:// prefixes are stripped to a path;
// mysql:// URLs are rewritten into the go-sql-driver form with parseTime on
// so DATETIME columns scan as time.Time.
func DSN(d dialect.Dialect, connURL string) (string, error) {
	switch d.Name() {
	case dialect.Postgres:
		return connURL, nil
	case dialect.SQLite:
		return strings.TrimPrefix(connURL, "sqlite://"), nil
	case dialect.MySQL:
		return mysqlDSN(connURL)
	default:
		return "", fmt.Errorf("unknown dialect: %s", d.Name())
	}
}

func mysqlDSN(connURL string) (string, error) {
	if !strings.HasPrefix(connURL, "mysql://") {
		// Already in go-sql-driver form.
		return connURL, nil
	}
	u, err := url.Parse(connURL)
	if err != nil {
		return "", fmt.Errorf("parsing mysql url: %w", err)
	}

	var creds string
	if u.User != nil {
		creds = u.User.Username()
		if pass, ok := u.User.Password(); ok {
			creds += ":" + pass
		}
		creds += "@"
	}
	host := u.Host
	if host == "" {
		host = "127.0.0.1:3306"
	}
	dbName := strings.TrimPrefix(u.Path, "/")

	params := u.Query()
	if params.Get("parseTime") == "" {
		params.Set("parseTime", "true")
	}
	return fmt.Sprintf("%stcp(%s)/%s?%s", creds, host, dbName, params.Encode()), nil
}

// Manager runs functions inside database transactions.
type Manager struct {
	db *sql.DB
}

// NewManager creates a transaction manager over db.
func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db}
}

// WithTransaction runs fn inside a transaction, committing on success and
// rolling back on error or panic. A panic is re-raised after rollback.
func (m *Manager) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
