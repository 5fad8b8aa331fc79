package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/friendgraph/internal/models"
)

// FriendServiceInterface defines the contract for friend request and friendship operations.
type FriendServiceInterface interface {
	SendRequest(ctx context.Context, fromID, toID int64, message string) (*models.FriendRequest, error)
	AcceptRequest(ctx context.Context, userID int64, requestID uuid.UUID) (*models.Friendship, error)
	RejectRequest(ctx context.Context, userID int64, requestID uuid.UUID) (*models.FriendRequest, error)
	CancelRequest(ctx context.Context, userID int64, requestID uuid.UUID) (*models.FriendRequest, error)
	MarkViewed(ctx context.Context, userID int64, requestID uuid.UUID) (*models.FriendRequest, error)
	Unfriend(ctx context.Context, userID, otherUserID int64) (bool, error)
	AreFriends(ctx context.Context, userID, otherUserID int64) (bool, error)
	ListFriends(ctx context.Context, userID int64) ([]models.Friend, error)
	FriendCount(ctx context.Context, userID int64) (int, error)
	ListPendingRequests(ctx context.Context, userID int64) ([]models.FriendRequestWithUser, error)
	ListSentRequests(ctx context.Context, userID int64) ([]models.FriendRequestWithUser, error)
	PendingRequestCount(ctx context.Context, userID int64) (int, error)
	MutualFriends(ctx context.Context, userID, otherUserID int64) ([]int64, error)
}

// BlockServiceInterface defines the contract for blocking operations.
type BlockServiceInterface interface {
	Block(ctx context.Context, blockerID, blockedID int64, reason models.BlockReason) (*models.BlockedUser, error)
	Unblock(ctx context.Context, blockerID, blockedID int64) (bool, error)
	IsBlocked(ctx context.Context, blockerID, blockedID int64) (bool, error)
	IsBlockedEither(ctx context.Context, userID, otherUserID int64) (bool, error)
	ListBlocked(ctx context.Context, blockerID int64) ([]models.BlockedUserWithName, error)
}

// SuggestionServiceInterface defines the contract for friend suggestions.
type SuggestionServiceInterface interface {
	Generate(ctx context.Context, userID int64, limit int) (int, error)
	ListSuggestions(ctx context.Context, userID int64) ([]models.FriendSuggestion, error)
	Dismiss(ctx context.Context, userID int64, suggestionID uuid.UUID) (*models.FriendSuggestion, error)
}

var (
	_ FriendServiceInterface     = (*FriendService)(nil)
	_ BlockServiceInterface      = (*BlockService)(nil)
	_ SuggestionServiceInterface = (*SuggestionService)(nil)
)

// RelationshipEvents receives committed state transitions. Implementations
// must not fail the caller.
type RelationshipEvents interface {
	FriendshipCreated(ctx context.Context, f *models.Friendship, req *models.FriendRequest)
	FriendshipDeleted(ctx context.Context, u1, u2 int64)
	RequestCreated(ctx context.Context, req *models.FriendRequest)
	RequestsResolved(ctx context.Context, reqs ...models.FriendRequest)
}

type noopEvents struct{}

func (noopEvents) FriendshipCreated(context.Context, *models.Friendship, *models.FriendRequest) {}
func (noopEvents) FriendshipDeleted(context.Context, int64, int64)                              {}
func (noopEvents) RequestCreated(context.Context, *models.FriendRequest)                        {}
func (noopEvents) RequestsResolved(context.Context, ...models.FriendRequest)                    {}

// Cache is the key/value collaborator used for friend lists and counters.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Notifier hands notifications to the delivery collaborator.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// ProfileAggregates stores per-user derived counters.
type ProfileAggregates interface {
	SetFriendCount(ctx context.Context, userID int64, n int) error
}

// UserDirectory reads identity data owned by the account service.
type UserDirectory interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	IsUserActive(ctx context.Context, userID int64) (bool, error)
	ListByAttribute(ctx context.Context, attr UserAttribute, value any, exclude []int64, limit int) ([]int64, error)
}

// RegenLimiter throttles suggestion regeneration per key.
type RegenLimiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
}
