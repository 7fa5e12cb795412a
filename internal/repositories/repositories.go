// package repositories provides persistence layer implementations for the token store.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// execAffected runs a write statement and returns the number of affected rows.
func execAffected(ctx context.Context, db *sql.DB, query string, args ...any) (int64, error) {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}
