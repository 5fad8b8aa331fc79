package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/friendgraph/internal/logging"
	"github.com/HammerMeetNail/friendgraph/internal/models"
)

const defaultFriendListCacheTTL = 15 * time.Minute

// FriendService runs the friend request state machine. Every transition is
// one store transaction holding the pair lock; events fire after commit.
type FriendService struct {
	store    RelationshipStore
	events   RelationshipEvents
	cache    Cache
	cacheTTL time.Duration
	now      func() time.Time
}

func NewFriendService(store RelationshipStore, events RelationshipEvents, cache Cache) *FriendService {
	if events == nil {
		events = noopEvents{}
	}
	return &FriendService{
		store:    store,
		events:   events,
		cache:    cache,
		cacheTTL: defaultFriendListCacheTTL,
		now:      time.Now,
	}
}

func (s *FriendService) SetCacheTTL(ttl time.Duration) {
	s.cacheTTL = ttl
}

func (s *FriendService) SetClock(now func() time.Time) {
	s.now = now
}

func normalizeMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) > models.MaxRequestMessageLength {
		return "", ErrMessageTooLong
	}
	return message, nil
}

// SendRequest creates a pending request from fromID to toID. When toID
// already has a pending request to fromID, that request is accepted instead
// and returned in its accepted state.
func (s *FriendService) SendRequest(ctx context.Context, fromID, toID int64, message string) (*models.FriendRequest, error) {
	if err := ValidateSelfRelation(fromID, toID); err != nil {
		return nil, err
	}
	message, err := normalizeMessage(message)
	if err != nil {
		return nil, err
	}

	var (
		created    *models.FriendRequest
		accepted   *models.FriendRequest
		friendship *models.Friendship
		newPair    bool
	)
	now := s.now()
	err = s.store.InTx(ctx, func(tx RelationshipTx) error {
		if err := tx.LockPair(ctx, fromID, toID); err != nil {
			return err
		}

		blocked, err := tx.AnyBlockBetween(ctx, fromID, toID)
		if err != nil {
			return err
		}
		if blocked {
			return ErrBlocked
		}

		if err := ValidateNotAlreadyFriends(ctx, tx, fromID, toID); err != nil {
			return err
		}

		reverse, err := tx.GetRequestByPair(ctx, toID, fromID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if reverse != nil && reverse.Status == models.RequestStatusPending {
			friendship, newPair, err = s.acceptLocked(ctx, tx, reverse, now)
			if err != nil {
				return err
			}
			accepted = reverse
			return nil
		}

		existing, err := tx.GetRequestByPair(ctx, fromID, toID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		// An accepted row outlives its friendship after an unfriend or block.
		if existing != nil && existing.Status == models.RequestStatusAccepted {
			if err := tx.DeleteRequest(ctx, existing.ID); err != nil {
				return err
			}
		}

		if err := ValidateNoDuplicate(ctx, tx, RelationRequest, fromID, toID); err != nil {
			return err
		}

		created, err = tx.InsertRequest(ctx, fromID, toID, message, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	if accepted != nil {
		s.afterAccept(ctx, accepted, friendship, newPair)
		return accepted, nil
	}
	s.events.RequestCreated(ctx, created)
	return created, nil
}

// acceptLocked resolves req as accepted and creates the friendship. The
// caller must hold the pair lock. A friendship that already exists is
// returned with created=false.
func (s *FriendService) acceptLocked(ctx context.Context, tx RelationshipTx, req *models.FriendRequest, now time.Time) (*models.Friendship, bool, error) {
	ok, err := tx.ResolveRequest(ctx, req.ID, models.RequestStatusAccepted, now)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, ErrInvalidState
	}
	req.Status = models.RequestStatusAccepted
	req.RespondedAt = &now
	req.UpdatedAt = now

	friendship, created, err := tx.InsertFriendship(ctx, req.FromUserID, req.ToUserID, now)
	if err != nil {
		return nil, false, err
	}
	if !created {
		logging.Warn("Friendship already existed on accept", map[string]interface{}{
			"request_id": req.ID.String(),
			"user_a_id":  friendship.UserAID,
			"user_b_id":  friendship.UserBID,
		})
	}

	if _, err := tx.DeleteSuggestionsBetween(ctx, req.FromUserID, req.ToUserID); err != nil {
		return nil, false, err
	}
	return friendship, created, nil
}

func (s *FriendService) afterAccept(ctx context.Context, req *models.FriendRequest, f *models.Friendship, created bool) {
	s.events.RequestsResolved(ctx, *req)
	if created {
		s.events.FriendshipCreated(ctx, f, req)
	}
}

// loadForTransition reads the request, checks that actor may act on it and
// takes the pair lock. The request is re-read under the lock.
func loadForTransition(ctx context.Context, tx RelationshipTx, requestID uuid.UUID, allowed func(*models.FriendRequest) bool) (*models.FriendRequest, error) {
	req, err := tx.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !allowed(req) {
		return nil, ErrNotFound
	}
	if err := tx.LockPair(ctx, req.FromUserID, req.ToUserID); err != nil {
		return nil, err
	}
	req, err = tx.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		return nil, ErrInvalidState
	}
	return req, nil
}

func isRecipient(userID int64) func(*models.FriendRequest) bool {
	return func(r *models.FriendRequest) bool { return r.ToUserID == userID }
}

func isSender(userID int64) func(*models.FriendRequest) bool {
	return func(r *models.FriendRequest) bool { return r.FromUserID == userID }
}

// AcceptRequest lets the recipient accept a pending request.
func (s *FriendService) AcceptRequest(ctx context.Context, userID int64, requestID uuid.UUID) (*models.Friendship, error) {
	var (
		req        *models.FriendRequest
		friendship *models.Friendship
		created    bool
	)
	now := s.now()
	err := s.store.InTx(ctx, func(tx RelationshipTx) error {
		var err error
		req, err = loadForTransition(ctx, tx, requestID, isRecipient(userID))
		if err != nil {
			return err
		}
		friendship, created, err = s.acceptLocked(ctx, tx, req, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterAccept(ctx, req, friendship, created)
	return friendship, nil
}

func (s *FriendService) RejectRequest(ctx context.Context, userID int64, requestID uuid.UUID) (*models.FriendRequest, error) {
	return s.resolve(ctx, requestID, isRecipient(userID), models.RequestStatusRejected)
}

func (s *FriendService) CancelRequest(ctx context.Context, userID int64, requestID uuid.UUID) (*models.FriendRequest, error) {
	return s.resolve(ctx, requestID, isSender(userID), models.RequestStatusCancelled)
}

func (s *FriendService) resolve(ctx context.Context, requestID uuid.UUID, allowed func(*models.FriendRequest) bool, status models.RequestStatus) (*models.FriendRequest, error) {
	var req *models.FriendRequest
	now := s.now()
	err := s.store.InTx(ctx, func(tx RelationshipTx) error {
		var err error
		req, err = loadForTransition(ctx, tx, requestID, allowed)
		if err != nil {
			return err
		}
		ok, err := tx.ResolveRequest(ctx, req.ID, status, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidState
		}
		req.Status = status
		req.RespondedAt = &now
		req.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.RequestsResolved(ctx, *req)
	return req, nil
}

// MarkViewed records when the recipient first saw the request. Later calls
// keep the original timestamp.
func (s *FriendService) MarkViewed(ctx context.Context, userID int64, requestID uuid.UUID) (*models.FriendRequest, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ToUserID != userID {
		return nil, ErrNotFound
	}
	if req.ViewedAt != nil {
		return req, nil
	}
	updated, err := s.store.MarkRequestViewed(ctx, requestID, s.now())
	if err != nil {
		return nil, err
	}
	dropCached(ctx, s.cache, pendingRequestsKey(userID))
	return updated, nil
}

// Unfriend removes the friendship between the two users and reports whether
// one existed. Request history is left alone.
func (s *FriendService) Unfriend(ctx context.Context, userID, otherUserID int64) (bool, error) {
	if err := ValidateSelfRelation(userID, otherUserID); err != nil {
		return false, err
	}

	var deleted bool
	err := s.store.InTx(ctx, func(tx RelationshipTx) error {
		if err := tx.LockPair(ctx, userID, otherUserID); err != nil {
			return err
		}
		var err error
		deleted, err = tx.DeleteFriendship(ctx, userID, otherUserID)
		return err
	})
	if err != nil {
		return false, err
	}

	if deleted {
		s.events.FriendshipDeleted(ctx, userID, otherUserID)
	}
	return deleted, nil
}

func (s *FriendService) AreFriends(ctx context.Context, userID, otherUserID int64) (bool, error) {
	if userID == otherUserID {
		return false, nil
	}
	return s.store.AreFriends(ctx, userID, otherUserID)
}

func (s *FriendService) ListFriends(ctx context.Context, userID int64) ([]models.Friend, error) {
	return cacheAside(ctx, s.cache, friendsListKey(userID), s.cacheTTL, func() ([]models.Friend, error) {
		return s.store.ListFriends(ctx, userID)
	})
}

func (s *FriendService) FriendCount(ctx context.Context, userID int64) (int, error) {
	return cacheAside(ctx, s.cache, friendsCountKey(userID), s.cacheTTL, func() (int, error) {
		return s.store.CountFriends(ctx, userID)
	})
}

// ListPendingRequests returns pending requests addressed to userID.
func (s *FriendService) ListPendingRequests(ctx context.Context, userID int64) ([]models.FriendRequestWithUser, error) {
	return cacheAside(ctx, s.cache, pendingRequestsKey(userID), s.cacheTTL, func() ([]models.FriendRequestWithUser, error) {
		return s.store.ListReceivedRequests(ctx, userID)
	})
}

func (s *FriendService) ListSentRequests(ctx context.Context, userID int64) ([]models.FriendRequestWithUser, error) {
	return cacheAside(ctx, s.cache, sentRequestsKey(userID), s.cacheTTL, func() ([]models.FriendRequestWithUser, error) {
		return s.store.ListSentRequests(ctx, userID)
	})
}

func (s *FriendService) PendingRequestCount(ctx context.Context, userID int64) (int, error) {
	return s.store.CountPendingRequests(ctx, userID)
}

func (s *FriendService) MutualFriends(ctx context.Context, userID, otherUserID int64) ([]int64, error) {
	if userID == otherUserID {
		return []int64{}, nil
	}
	return s.store.MutualFriendIDs(ctx, userID, otherUserID)
}
