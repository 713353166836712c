package database

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrDuplicate is returned when an insert violates a unique constraint
var ErrDuplicate = errors.New("duplicate record")

// Dialect hides the differences between the supported SQL backends.
// Repositories write queries with ? placeholders and portable types only.
type Dialect interface {
	DriverName() string

	// DSN turns the configured path or URL into a driver data source
	DSN(source string) string

	RewriteQuery(query string) string

	// ConfigureConnection sizes the pool and applies session settings
	ConfigureConnection(db *sql.DB) error

	MigrationsSubdir() string

	// CreateMigrationsTableQuery creates schema_migrations if it is missing
	CreateMigrationsTableQuery() string

	IsUniqueViolation(err error) bool
}

// poolLimits sizes a connection pool
type poolLimits struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
	maxIdleTime time.Duration
}

// serverPool suits the networked databases; the practice workload is one
// learner plus dashboard reads, so a small pool is plenty.
var serverPool = poolLimits{maxOpen: 10, maxIdle: 4, maxLifetime: 30 * time.Minute, maxIdleTime: 5 * time.Minute}

func (p poolLimits) apply(db *sql.DB) {
	db.SetMaxOpenConns(p.maxOpen)
	db.SetMaxIdleConns(p.maxIdle)
	db.SetConnMaxLifetime(p.maxLifetime)
	db.SetConnMaxIdleTime(p.maxIdleTime)
}

// numberPlaceholders rewrites ? to $1, $2, ... leaving quoted literals alone
func numberPlaceholders(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
