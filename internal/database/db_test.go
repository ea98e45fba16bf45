package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	assert.Equal(t,
		"app:secret@tcp(db:3306)/campus?charset=utf8mb4&parseTime=true&loc=UTC",
		dsn("app", "secret", "db", "3306", "campus"))

	// An empty password drops the colon entirely.
	assert.Equal(t,
		"app@tcp(localhost:3306)/campus?charset=utf8mb4&parseTime=true&loc=UTC",
		dsn("app", "", "localhost", "3306", "campus"))
}

func TestPoolDefaults(t *testing.T) {
	p := Pool{}.withDefaults()
	assert.Equal(t, 25, p.MaxOpenConns)
	assert.Equal(t, 25, p.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, p.ConnLifetime)

	// Explicit values survive untouched.
	p = Pool{MaxOpenConns: 50, MaxIdleConns: 10, ConnLifetime: time.Hour}.withDefaults()
	assert.Equal(t, 50, p.MaxOpenConns)
	assert.Equal(t, 10, p.MaxIdleConns)
	assert.Equal(t, time.Hour, p.ConnLifetime)

	// Idle can never exceed open.
	p = Pool{MaxOpenConns: 5, MaxIdleConns: 40}.withDefaults()
	assert.Equal(t, 5, p.MaxIdleConns)
}
