package postgres

import (
	"context"
	"fmt"
)

// nextPaddedID draws the next value from a Postgres sequence and
// formats it as a zero-padded, prefixed string. This is the §9
// collision-risk resolution: a DB sequence plus a unique index on the
// ID column, not time.Now()-derived IDs.
func nextPaddedID(ctx context.Context, db dbtx, seqName, prefix string) (string, error) {
	var n int64
	if err := db.QueryRow(ctx, `SELECT nextval($1)`, seqName).Scan(&n); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%012d", prefix, n), nil
}
