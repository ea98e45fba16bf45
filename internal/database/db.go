package database // package database owns the MySQL connection and schema bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver, registered for database/sql
)

// Pool carries the connection-pool tuning knobs.  Zero values fall back to
// defaults sized for a single service instance; deployments override them
// through the DB_* pool variables in config.
type Pool struct {
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

const (
	defaultMaxOpenConns = 25
	defaultMaxIdleConns = 25
	defaultConnLifetime = 30 * time.Minute
)

// withDefaults fills unset knobs.  Idle connections are capped at the open
// limit; an idle pool larger than the open pool is never usable.
func (p Pool) withDefaults() Pool {
	if p.MaxOpenConns <= 0 {
		p.MaxOpenConns = defaultMaxOpenConns
	}
	if p.MaxIdleConns <= 0 {
		p.MaxIdleConns = defaultMaxIdleConns
	}
	if p.MaxIdleConns > p.MaxOpenConns {
		p.MaxIdleConns = p.MaxOpenConns
	}
	if p.ConnLifetime <= 0 {
		p.ConnLifetime = defaultConnLifetime
	}
	return p
}

// dsn builds the connection string.  parseTime maps DATETIME columns onto
// time.Time and loc=UTC keeps every timestamp in the ledger's canonical zone;
// cell dates are compared as strings, so the zone must never drift.
func dsn(user, pass, host, port, name string) string {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)
}

// Open connects to MySQL, applies the pool settings and verifies the
// connection with a bounded ping.
func Open(user, pass, host, port, name string, pool Pool) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn(user, pass, host, port, name))
	if err != nil {
		return nil, err
	}

	pool = pool.withDefaults()
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}
