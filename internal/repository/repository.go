package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"mathdrill/internal/database"
)

// ListOptions controls ordering and size of a listing.
// Sort names a field; a leading "-" sorts descending.
type ListOptions struct {
	Sort  string
	Limit int
}

// newID generates a record id
func newID() string {
	return uuid.NewString()
}

// orderClause maps a sort key onto a whitelisted column
func orderClause(sort string, columns map[string]string, fallback string) string {
	desc := strings.HasPrefix(sort, "-")
	column, ok := columns[strings.TrimPrefix(sort, "-")]
	if !ok {
		return " ORDER BY " + fallback
	}
	if desc {
		return " ORDER BY " + column + " DESC"
	}
	return " ORDER BY " + column + " ASC"
}

// limitClause renders a LIMIT for positive limits
func limitClause(limit int, args []interface{}) (string, []interface{}) {
	if limit <= 0 {
		return "", args
	}
	return " LIMIT ?", append(args, limit)
}

// inClause renders "(?, ?, ?)" for a set of string values
func inClause(values []string) (string, []interface{}) {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ") + ")", args
}

// inTx runs fn in a transaction unless db already is one
func inTx(ctx context.Context, db database.DBTX, fn func(database.DBTX) error) error {
	switch conn := db.(type) {
	case *database.DB:
		return conn.WithTx(ctx, func(tx *database.Tx) error { return fn(tx) })
	default:
		return fn(db)
	}
}

// mapInsertErr converts dialect unique violations into database.ErrDuplicate
func mapInsertErr(db database.DBTX, err error) error {
	if err != nil && db.GetDialect().IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", database.ErrDuplicate, err)
	}
	return err
}
