// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access methods for all Blogpress
// entities. Each store struct wraps a *sql.DB and exposes typed query methods.
// Finders return (nil, nil) when no row matches.
package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Uniqueness conflicts surfaced to callers as field errors.
var (
	ErrSlugTaken       = errors.New("post slug already exists")
	ErrCategoryExists  = errors.New("category name or slug already exists")
	ErrEmailTaken      = errors.New("email already registered")
	ErrInvalidCategory = errors.New("category does not exist")
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// constraintError returns the violated constraint name when err is a
// PostgreSQL error with the given SQLSTATE code.
func constraintError(err error, code string) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == code {
		return pgErr.ConstraintName, true
	}
	return "", false
}

func isUniqueViolation(err error) bool {
	_, ok := constraintError(err, pgUniqueViolation)
	return ok
}
