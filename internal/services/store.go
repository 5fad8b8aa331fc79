package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/friendgraph/internal/models"
)

// relationReader answers existence questions used by the invariant checks.
type relationReader interface {
	FriendshipExists(ctx context.Context, u1, u2 int64) (bool, error)
	RequestExists(ctx context.Context, fromID, toID int64) (bool, error)
	BlockExists(ctx context.Context, blockerID, blockedID int64) (bool, error)
}

// RelationshipTx is the write surface of the relationship store. Every method
// runs inside the transaction opened by RelationshipStore.InTx.
type RelationshipTx interface {
	relationReader

	// LockPair serializes all writers touching the unordered pair until the
	// transaction ends.
	LockPair(ctx context.Context, u1, u2 int64) error

	AnyBlockBetween(ctx context.Context, u1, u2 int64) (bool, error)
	InsertBlock(ctx context.Context, blockerID, blockedID int64, reason models.BlockReason, at time.Time) (*models.BlockedUser, error)
	DeleteBlock(ctx context.Context, blockerID, blockedID int64) (bool, error)

	GetFriendship(ctx context.Context, u1, u2 int64) (*models.Friendship, error)
	// InsertFriendship stores the canonical row. created is false when the
	// pair already had one; the existing row is returned in that case.
	InsertFriendship(ctx context.Context, u1, u2 int64, at time.Time) (f *models.Friendship, created bool, err error)
	DeleteFriendship(ctx context.Context, u1, u2 int64) (bool, error)

	GetRequest(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error)
	GetRequestByPair(ctx context.Context, fromID, toID int64) (*models.FriendRequest, error)
	InsertRequest(ctx context.Context, fromID, toID int64, message string, at time.Time) (*models.FriendRequest, error)
	DeleteRequest(ctx context.Context, id uuid.UUID) error
	// ResolveRequest moves a pending request to a terminal status. It reports
	// false without error when the request is no longer pending.
	ResolveRequest(ctx context.Context, id uuid.UUID, status models.RequestStatus, at time.Time) (bool, error)
	CancelPendingBetween(ctx context.Context, u1, u2 int64, at time.Time) ([]models.FriendRequest, error)

	DeleteSuggestionsBetween(ctx context.Context, u1, u2 int64) (int64, error)
}

// RelationshipStore owns Friendship, FriendRequest, BlockedUser and
// FriendSuggestion rows.
type RelationshipStore interface {
	InTx(ctx context.Context, fn func(tx RelationshipTx) error) error

	AreFriends(ctx context.Context, u1, u2 int64) (bool, error)
	ListFriends(ctx context.Context, userID int64) ([]models.Friend, error)
	FriendIDs(ctx context.Context, userID int64) ([]int64, error)
	CountFriends(ctx context.Context, userID int64) (int, error)
	MutualFriendIDs(ctx context.Context, u1, u2 int64) ([]int64, error)
	// MutualFriendCounts maps every friend-of-a-friend of userID to the
	// number of friends they share with userID.
	MutualFriendCounts(ctx context.Context, userID int64) (map[int64]int, error)

	GetRequest(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error)
	ListReceivedRequests(ctx context.Context, userID int64) ([]models.FriendRequestWithUser, error)
	ListSentRequests(ctx context.Context, userID int64) ([]models.FriendRequestWithUser, error)
	CountPendingRequests(ctx context.Context, userID int64) (int, error)
	// MarkRequestViewed sets viewed_at only when it is still null and returns
	// the stored request.
	MarkRequestViewed(ctx context.Context, id uuid.UUID, at time.Time) (*models.FriendRequest, error)
	DeleteTerminalRequestsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	IsBlocked(ctx context.Context, blockerID, blockedID int64) (bool, error)
	IsBlockedEither(ctx context.Context, u1, u2 int64) (bool, error)
	ListBlocked(ctx context.Context, blockerID int64) ([]models.BlockedUserWithName, error)
	BlockedEitherIDs(ctx context.Context, userID int64) ([]int64, error)

	DismissedSuggestionTargets(ctx context.Context, userID int64) ([]int64, error)
	InsertSuggestions(ctx context.Context, userID int64, candidates []SuggestionCandidate, at time.Time) (int, error)
	ListSuggestions(ctx context.Context, userID int64, limit int) ([]models.FriendSuggestion, error)
	DismissSuggestion(ctx context.Context, userID int64, id uuid.UUID, at time.Time) (*models.FriendSuggestion, error)
}

// SuggestionCandidate is a scored user ready to be stored as a suggestion.
type SuggestionCandidate struct {
	UserID int64
	Reason models.SuggestionReason
	Score  float64
}
