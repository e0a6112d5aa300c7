package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// DB wraps the sql connection pool shared by the repositories
type DB struct {
	*sql.DB
}

// NewDB opens a Postgres connection pool and verifies it
func NewDB(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{DB: db}, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
