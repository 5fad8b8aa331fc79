package services

import (
	"context"
	"fmt"
)

type RelationKind string

const (
	RelationFriendship RelationKind = "friendship"
	RelationRequest    RelationKind = "request"
	RelationBlock      RelationKind = "block"
)

// CanonicalizePair orders two user IDs ascending.
func CanonicalizePair(u1, u2 int64) (lo, hi int64) {
	if u1 <= u2 {
		return u1, u2
	}
	return u2, u1
}

func ValidateSelfRelation(u1, u2 int64) error {
	if u1 == u2 {
		return ErrSelfRelation
	}
	return nil
}

// ValidateNoDuplicate fails with ErrDuplicateRelation when a row equivalent
// to (u1, u2) exists. Friendships are undirected; requests and blocks are
// keyed by direction.
func ValidateNoDuplicate(ctx context.Context, r relationReader, kind RelationKind, u1, u2 int64) error {
	var (
		exists bool
		err    error
	)
	switch kind {
	case RelationFriendship:
		exists, err = r.FriendshipExists(ctx, u1, u2)
	case RelationRequest:
		exists, err = r.RequestExists(ctx, u1, u2)
	case RelationBlock:
		exists, err = r.BlockExists(ctx, u1, u2)
	default:
		return fmt.Errorf("unknown relation kind %q", kind)
	}
	if err != nil {
		return fmt.Errorf("checking %s: %w", kind, err)
	}
	if exists {
		return ErrDuplicateRelation
	}
	return nil
}

func ValidateNotAlreadyFriends(ctx context.Context, r relationReader, u1, u2 int64) error {
	exists, err := r.FriendshipExists(ctx, u1, u2)
	if err != nil {
		return fmt.Errorf("checking friendship: %w", err)
	}
	if exists {
		return ErrAlreadyFriends
	}
	return nil
}
