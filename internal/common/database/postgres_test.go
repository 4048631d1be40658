package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostgresConfig_DSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: "5432", User: "booking", Password: "s3cret", DBName: "bookings", SSLMode: "disable"}

	dsn := cfg.DSN()
	assert.True(t, strings.HasPrefix(dsn, "host=db port=5432 user=booking"))
	assert.Contains(t, dsn, "TimeZone=UTC")

	assert.Equal(t, "postgres://booking:s3cret@db:5432/bookings?sslmode=disable", cfg.DatabaseURL())
}

func TestPostgresConfig_DatabaseURLEscapesPassword(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: "5432", User: "u", Password: "p@ss/word", DBName: "d", SSLMode: "require"}
	assert.Equal(t, "postgres://u:p%40ss%2Fword@db:5432/d?sslmode=require", cfg.DatabaseURL())
}
