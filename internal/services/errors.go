package services

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrSelfRelation      = errors.New("cannot relate a user to themselves")
	ErrDuplicateRelation = errors.New("relation already exists")
	ErrAlreadyFriends    = errors.New("users are already friends")
	ErrBlocked           = errors.New("interaction blocked")
	ErrInvalidState      = errors.New("friend request is not pending")
	ErrNotFound          = errors.New("not found")

	ErrMessageTooLong     = errors.New("friend request message is too long")
	ErrInvalidBlockReason = errors.New("invalid block reason")
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
