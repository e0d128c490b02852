package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a uniqueness rule would be violated.
	ErrConflict = errors.New("conflict")
	// ErrAlreadyReviewed is returned when reviewing an upgrade request that left pending.
	ErrAlreadyReviewed = errors.New("upgrade request already reviewed")
	// ErrRoleChanged is returned when approving an upgrade whose requester no longer
	// holds the role the request was filed from.
	ErrRoleChanged = errors.New("requester role changed")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidText         = "22P02"
)

// translatePgError maps driver errors onto the repository sentinels.
func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case pgForeignKeyViolation, pgInvalidText:
			return ErrNotFound
		}
	}
	return err
}
