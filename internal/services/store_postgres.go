package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/HammerMeetNail/friendgraph/internal/models"
)

const requestColumns = `id, from_user_id, to_user_id, status, message, created_at, updated_at, viewed_at, responded_at`

const suggestionColumns = `id, user_id, suggested_user_id, reason, score, is_dismissed, created_at, dismissed_at`

// friendIDsOf selects the counterpart IDs of $1.
const friendIDsOf = `SELECT user_b_id AS id FROM friendships WHERE user_a_id = $1
		 UNION ALL
		 SELECT user_a_id AS id FROM friendships WHERE user_b_id = $1`

// PostgresStore implements RelationshipStore with raw SQL.
type PostgresStore struct {
	pgQueries
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{pgQueries: pgQueries{q: db}, db: db}
}

// pgQueries holds the statements shared by the pool and transactions.
type pgQueries struct {
	q Querier
}

type pgTx struct {
	pgQueries
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(tx RelationshipTx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(&pgTx{pgQueries{q: tx}}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// pairLockKey derives the advisory lock key for an unordered pair.
func pairLockKey(u1, u2 int64) int64 {
	lo, hi := CanonicalizePair(u1, u2)
	return int64(xxhash.Sum64String(fmt.Sprintf("friend-pair:%d:%d", lo, hi)))
}

func (t *pgTx) LockPair(ctx context.Context, u1, u2 int64) error {
	if _, err := t.q.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", pairLockKey(u1, u2)); err != nil {
		return fmt.Errorf("locking pair: %w", err)
	}
	return nil
}

func (q pgQueries) exists(ctx context.Context, sql string, args ...any) (bool, error) {
	var exists bool
	if err := q.q.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (q pgQueries) FriendshipExists(ctx context.Context, u1, u2 int64) (bool, error) {
	lo, hi := CanonicalizePair(u1, u2)
	exists, err := q.exists(ctx,
		`SELECT EXISTS(SELECT 1 FROM friendships WHERE user_a_id = $1 AND user_b_id = $2)`,
		lo, hi,
	)
	if err != nil {
		return false, fmt.Errorf("checking friendship existence: %w", err)
	}
	return exists, nil
}

func (q pgQueries) AreFriends(ctx context.Context, u1, u2 int64) (bool, error) {
	return q.FriendshipExists(ctx, u1, u2)
}

func (q pgQueries) RequestExists(ctx context.Context, fromID, toID int64) (bool, error) {
	exists, err := q.exists(ctx,
		`SELECT EXISTS(SELECT 1 FROM friend_requests WHERE from_user_id = $1 AND to_user_id = $2)`,
		fromID, toID,
	)
	if err != nil {
		return false, fmt.Errorf("checking request existence: %w", err)
	}
	return exists, nil
}

func (q pgQueries) BlockExists(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	exists, err := q.exists(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_blocks WHERE blocker_id = $1 AND blocked_id = $2)`,
		blockerID, blockedID,
	)
	if err != nil {
		return false, fmt.Errorf("checking block status: %w", err)
	}
	return exists, nil
}

func (q pgQueries) IsBlocked(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	return q.BlockExists(ctx, blockerID, blockedID)
}

func (q pgQueries) AnyBlockBetween(ctx context.Context, u1, u2 int64) (bool, error) {
	exists, err := q.exists(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM user_blocks
			WHERE (blocker_id = $1 AND blocked_id = $2)
			   OR (blocker_id = $2 AND blocked_id = $1)
		)`,
		u1, u2,
	)
	if err != nil {
		return false, fmt.Errorf("checking block status: %w", err)
	}
	return exists, nil
}

func (q pgQueries) IsBlockedEither(ctx context.Context, u1, u2 int64) (bool, error) {
	return q.AnyBlockBetween(ctx, u1, u2)
}

func (q pgQueries) InsertBlock(ctx context.Context, blockerID, blockedID int64, reason models.BlockReason, at time.Time) (*models.BlockedUser, error) {
	rows, err := q.q.Query(ctx,
		`INSERT INTO user_blocks (blocker_id, blocked_id, reason, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (blocker_id, blocked_id) DO NOTHING
		 RETURNING id, blocker_id, blocked_id, reason, created_at`,
		blockerID, blockedID, string(reason), at,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting block: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("inserting block: %w", err)
		}
		return nil, ErrDuplicateRelation
	}
	var (
		b      models.BlockedUser
		stored string
	)
	if err := rows.Scan(&b.ID, &b.BlockerID, &b.BlockedID, &stored, &b.CreatedAt); err != nil {
		return nil, fmt.Errorf("scanning block: %w", err)
	}
	b.Reason = models.BlockReason(stored)
	return &b, nil
}

func (q pgQueries) DeleteBlock(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	result, err := q.q.Exec(ctx,
		"DELETE FROM user_blocks WHERE blocker_id = $1 AND blocked_id = $2",
		blockerID, blockedID,
	)
	if err != nil {
		return false, fmt.Errorf("deleting block: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (q pgQueries) ListBlocked(ctx context.Context, blockerID int64) ([]models.BlockedUserWithName, error) {
	rows, err := q.q.Query(ctx,
		`SELECT ub.id, ub.blocker_id, ub.blocked_id, ub.reason, ub.created_at, u.username
		 FROM user_blocks ub
		 JOIN users u ON ub.blocked_id = u.id
		 WHERE ub.blocker_id = $1
		 ORDER BY u.username`,
		blockerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing blocked users: %w", err)
	}
	defer rows.Close()

	blocked := []models.BlockedUserWithName{}
	for rows.Next() {
		var (
			b      models.BlockedUserWithName
			reason string
		)
		if err := rows.Scan(&b.ID, &b.BlockerID, &b.BlockedID, &reason, &b.CreatedAt, &b.Username); err != nil {
			return nil, fmt.Errorf("scanning blocked user: %w", err)
		}
		b.Reason = models.BlockReason(reason)
		blocked = append(blocked, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing blocked users: %w", err)
	}
	return blocked, nil
}

func (q pgQueries) BlockedEitherIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := q.q.Query(ctx,
		`SELECT blocked_id FROM user_blocks WHERE blocker_id = $1
		 UNION
		 SELECT blocker_id FROM user_blocks WHERE blocked_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing block counterparts: %w", err)
	}
	return collectIDs(rows)
}

func (q pgQueries) GetFriendship(ctx context.Context, u1, u2 int64) (*models.Friendship, error) {
	lo, hi := CanonicalizePair(u1, u2)
	var f models.Friendship
	err := q.q.QueryRow(ctx,
		`SELECT id, user_a_id, user_b_id, created_at
		 FROM friendships WHERE user_a_id = $1 AND user_b_id = $2`,
		lo, hi,
	).Scan(&f.ID, &f.UserAID, &f.UserBID, &f.CreatedAt)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting friendship: %w", err)
	}
	return &f, nil
}

func (q pgQueries) InsertFriendship(ctx context.Context, u1, u2 int64, at time.Time) (*models.Friendship, bool, error) {
	lo, hi := CanonicalizePair(u1, u2)
	var f models.Friendship
	err := q.q.QueryRow(ctx,
		`INSERT INTO friendships (user_a_id, user_b_id, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_a_id, user_b_id) DO NOTHING
		 RETURNING id, user_a_id, user_b_id, created_at`,
		lo, hi, at,
	).Scan(&f.ID, &f.UserAID, &f.UserBID, &f.CreatedAt)
	if isNoRows(err) {
		existing, getErr := q.GetFriendship(ctx, lo, hi)
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("creating friendship: %w", err)
	}
	return &f, true, nil
}

func (q pgQueries) DeleteFriendship(ctx context.Context, u1, u2 int64) (bool, error) {
	lo, hi := CanonicalizePair(u1, u2)
	result, err := q.q.Exec(ctx,
		"DELETE FROM friendships WHERE user_a_id = $1 AND user_b_id = $2",
		lo, hi,
	)
	if err != nil {
		return false, fmt.Errorf("removing friendship: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (q pgQueries) ListFriends(ctx context.Context, userID int64) ([]models.Friend, error) {
	rows, err := q.q.Query(ctx,
		`SELECT u.id, u.username, u.full_name, f.created_at
		 FROM friendships f
		 JOIN users u ON u.id = CASE WHEN f.user_a_id = $1 THEN f.user_b_id ELSE f.user_a_id END
		 WHERE f.user_a_id = $1 OR f.user_b_id = $1
		 ORDER BY u.username`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}
	defer rows.Close()

	friends := []models.Friend{}
	for rows.Next() {
		var f models.Friend
		if err := rows.Scan(&f.UserID, &f.Username, &f.FullName, &f.FriendsSince); err != nil {
			return nil, fmt.Errorf("scanning friend: %w", err)
		}
		friends = append(friends, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}
	return friends, nil
}

func (q pgQueries) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := q.q.Query(ctx, friendIDsOf, userID)
	if err != nil {
		return nil, fmt.Errorf("listing friend ids: %w", err)
	}
	return collectIDs(rows)
}

func (q pgQueries) CountFriends(ctx context.Context, userID int64) (int, error) {
	var n int
	err := q.q.QueryRow(ctx,
		"SELECT COUNT(*) FROM friendships WHERE user_a_id = $1 OR user_b_id = $1",
		userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting friends: %w", err)
	}
	return n, nil
}

func (q pgQueries) MutualFriendIDs(ctx context.Context, u1, u2 int64) ([]int64, error) {
	rows, err := q.q.Query(ctx,
		`SELECT a.id FROM (`+friendIDsOf+`) a
		 JOIN (
		   SELECT user_b_id AS id FROM friendships WHERE user_a_id = $2
		   UNION ALL
		   SELECT user_a_id AS id FROM friendships WHERE user_b_id = $2
		 ) b ON a.id = b.id
		 ORDER BY a.id`,
		u1, u2,
	)
	if err != nil {
		return nil, fmt.Errorf("listing mutual friends: %w", err)
	}
	return collectIDs(rows)
}

func (q pgQueries) MutualFriendCounts(ctx context.Context, userID int64) (map[int64]int, error) {
	rows, err := q.q.Query(ctx,
		`WITH mine AS (`+friendIDsOf+`)
		 SELECT CASE WHEN f.user_a_id = m.id THEN f.user_b_id ELSE f.user_a_id END AS candidate,
		        COUNT(*) AS mutual
		 FROM friendships f
		 JOIN mine m ON f.user_a_id = m.id OR f.user_b_id = m.id
		 WHERE f.user_a_id <> $1 AND f.user_b_id <> $1
		 GROUP BY candidate`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("counting mutual friends: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scanning mutual count: %w", err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("counting mutual friends: %w", err)
	}
	return counts, nil
}

func scanRequest(row Row) (*models.FriendRequest, error) {
	var (
		r      models.FriendRequest
		status string
	)
	if err := row.Scan(&r.ID, &r.FromUserID, &r.ToUserID, &status, &r.Message,
		&r.CreatedAt, &r.UpdatedAt, &r.ViewedAt, &r.RespondedAt); err != nil {
		return nil, err
	}
	r.Status = models.RequestStatus(status)
	return &r, nil
}

func (q pgQueries) GetRequest(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error) {
	r, err := scanRequest(q.q.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM friend_requests WHERE id = $1`,
		id,
	))
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting friend request: %w", err)
	}
	return r, nil
}

func (q pgQueries) GetRequestByPair(ctx context.Context, fromID, toID int64) (*models.FriendRequest, error) {
	r, err := scanRequest(q.q.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM friend_requests WHERE from_user_id = $1 AND to_user_id = $2`,
		fromID, toID,
	))
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting friend request: %w", err)
	}
	return r, nil
}

func (q pgQueries) InsertRequest(ctx context.Context, fromID, toID int64, message string, at time.Time) (*models.FriendRequest, error) {
	r, err := scanRequest(q.q.QueryRow(ctx,
		`INSERT INTO friend_requests (from_user_id, to_user_id, status, message, created_at, updated_at)
		 VALUES ($1, $2, 'pending', $3, $4, $4)
		 RETURNING `+requestColumns,
		fromID, toID, message, at,
	))
	if isUniqueViolation(err) {
		return nil, ErrDuplicateRelation
	}
	if err != nil {
		return nil, fmt.Errorf("creating friend request: %w", err)
	}
	return r, nil
}

func (q pgQueries) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	result, err := q.q.Exec(ctx, "DELETE FROM friend_requests WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting friend request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q pgQueries) ResolveRequest(ctx context.Context, id uuid.UUID, status models.RequestStatus, at time.Time) (bool, error) {
	result, err := q.q.Exec(ctx,
		`UPDATE friend_requests
		 SET status = $2, responded_at = $3, updated_at = $3
		 WHERE id = $1 AND status = 'pending'`,
		id, string(status), at,
	)
	if err != nil {
		return false, fmt.Errorf("updating friend request: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (q pgQueries) CancelPendingBetween(ctx context.Context, u1, u2 int64, at time.Time) ([]models.FriendRequest, error) {
	rows, err := q.q.Query(ctx,
		`UPDATE friend_requests
		 SET status = 'cancelled', responded_at = $3, updated_at = $3
		 WHERE status = 'pending'
		   AND ((from_user_id = $1 AND to_user_id = $2) OR (from_user_id = $2 AND to_user_id = $1))
		 RETURNING `+requestColumns,
		u1, u2, at,
	)
	if err != nil {
		return nil, fmt.Errorf("cancelling pending requests: %w", err)
	}
	defer rows.Close()

	var cancelled []models.FriendRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning friend request: %w", err)
		}
		cancelled = append(cancelled, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cancelling pending requests: %w", err)
	}
	return cancelled, nil
}

func (q pgQueries) listRequestsWithUser(ctx context.Context, sql string, userID int64) ([]models.FriendRequestWithUser, error) {
	rows, err := q.q.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("listing friend requests: %w", err)
	}
	defer rows.Close()

	requests := []models.FriendRequestWithUser{}
	for rows.Next() {
		var (
			r      models.FriendRequestWithUser
			status string
		)
		if err := rows.Scan(&r.ID, &r.FromUserID, &r.ToUserID, &status, &r.Message,
			&r.CreatedAt, &r.UpdatedAt, &r.ViewedAt, &r.RespondedAt,
			&r.OtherUsername, &r.OtherFullName); err != nil {
			return nil, fmt.Errorf("scanning friend request: %w", err)
		}
		r.Status = models.RequestStatus(status)
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing friend requests: %w", err)
	}
	return requests, nil
}

func (q pgQueries) ListReceivedRequests(ctx context.Context, userID int64) ([]models.FriendRequestWithUser, error) {
	return q.listRequestsWithUser(ctx,
		`SELECT r.id, r.from_user_id, r.to_user_id, r.status, r.message,
		        r.created_at, r.updated_at, r.viewed_at, r.responded_at,
		        u.username, u.full_name
		 FROM friend_requests r
		 JOIN users u ON u.id = r.from_user_id
		 WHERE r.to_user_id = $1 AND r.status = 'pending'
		 ORDER BY r.created_at DESC`,
		userID,
	)
}

func (q pgQueries) ListSentRequests(ctx context.Context, userID int64) ([]models.FriendRequestWithUser, error) {
	return q.listRequestsWithUser(ctx,
		`SELECT r.id, r.from_user_id, r.to_user_id, r.status, r.message,
		        r.created_at, r.updated_at, r.viewed_at, r.responded_at,
		        u.username, u.full_name
		 FROM friend_requests r
		 JOIN users u ON u.id = r.to_user_id
		 WHERE r.from_user_id = $1 AND r.status = 'pending'
		 ORDER BY r.created_at DESC`,
		userID,
	)
}

func (q pgQueries) CountPendingRequests(ctx context.Context, userID int64) (int, error) {
	var n int
	err := q.q.QueryRow(ctx,
		"SELECT COUNT(*) FROM friend_requests WHERE to_user_id = $1 AND status = 'pending'",
		userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting pending requests: %w", err)
	}
	return n, nil
}

func (q pgQueries) MarkRequestViewed(ctx context.Context, id uuid.UUID, at time.Time) (*models.FriendRequest, error) {
	r, err := scanRequest(q.q.QueryRow(ctx,
		`UPDATE friend_requests SET viewed_at = COALESCE(viewed_at, $2)
		 WHERE id = $1
		 RETURNING `+requestColumns,
		id, at,
	))
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("marking request viewed: %w", err)
	}
	return r, nil
}

func (q pgQueries) DeleteTerminalRequestsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := q.q.Exec(ctx,
		`DELETE FROM friend_requests
		 WHERE status IN ('rejected', 'cancelled') AND updated_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting expired requests: %w", err)
	}
	return result.RowsAffected(), nil
}

func (q pgQueries) DeleteSuggestionsBetween(ctx context.Context, u1, u2 int64) (int64, error) {
	result, err := q.q.Exec(ctx,
		`DELETE FROM friend_suggestions
		 WHERE (user_id = $1 AND suggested_user_id = $2)
		    OR (user_id = $2 AND suggested_user_id = $1)`,
		u1, u2,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting suggestions: %w", err)
	}
	return result.RowsAffected(), nil
}

func (q pgQueries) DismissedSuggestionTargets(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := q.q.Query(ctx,
		"SELECT suggested_user_id FROM friend_suggestions WHERE user_id = $1 AND is_dismissed",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing dismissed suggestions: %w", err)
	}
	return collectIDs(rows)
}

func (q pgQueries) InsertSuggestions(ctx context.Context, userID int64, candidates []SuggestionCandidate, at time.Time) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}
	ids := make([]int64, len(candidates))
	reasons := make([]string, len(candidates))
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.UserID
		reasons[i] = string(c.Reason)
		scores[i] = c.Score
	}

	result, err := q.q.Exec(ctx,
		`INSERT INTO friend_suggestions (user_id, suggested_user_id, reason, score, created_at)
		 SELECT $1, t.id, t.reason, t.score, $5
		 FROM unnest($2::bigint[], $3::text[], $4::float8[]) AS t(id, reason, score)
		 ON CONFLICT (user_id, suggested_user_id) DO NOTHING`,
		userID, ids, reasons, scores, at,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting suggestions: %w", err)
	}
	return int(result.RowsAffected()), nil
}

func scanSuggestion(row Row) (*models.FriendSuggestion, error) {
	var (
		s      models.FriendSuggestion
		reason string
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.SuggestedUserID, &reason, &s.Score,
		&s.IsDismissed, &s.CreatedAt, &s.DismissedAt); err != nil {
		return nil, err
	}
	s.Reason = models.SuggestionReason(reason)
	return &s, nil
}

func (q pgQueries) ListSuggestions(ctx context.Context, userID int64, limit int) ([]models.FriendSuggestion, error) {
	rows, err := q.q.Query(ctx,
		`SELECT `+suggestionColumns+`
		 FROM friend_suggestions
		 WHERE user_id = $1 AND NOT is_dismissed
		 ORDER BY score DESC, created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing suggestions: %w", err)
	}
	defer rows.Close()

	suggestions := []models.FriendSuggestion{}
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning suggestion: %w", err)
		}
		suggestions = append(suggestions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing suggestions: %w", err)
	}
	return suggestions, nil
}

func (q pgQueries) DismissSuggestion(ctx context.Context, userID int64, id uuid.UUID, at time.Time) (*models.FriendSuggestion, error) {
	s, err := scanSuggestion(q.q.QueryRow(ctx,
		`UPDATE friend_suggestions
		 SET is_dismissed = TRUE, dismissed_at = COALESCE(dismissed_at, $3)
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+suggestionColumns,
		id, userID, at,
	))
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dismissing suggestion: %w", err)
	}
	return s, nil
}

func collectIDs(rows Rows) ([]int64, error) {
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading ids: %w", err)
	}
	return ids, nil
}
