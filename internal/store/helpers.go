package store

import (
	"database/sql"
	"errors"
)

// handleNotFound processes a query result, converting sql.ErrNoRows to a nil
// result without error. A missing row is a valid state for every Find in this
// package, never an error condition.
func handleNotFound[T any](result *T, err error) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
