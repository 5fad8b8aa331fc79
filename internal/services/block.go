package services

import (
	"context"
	"time"

	"github.com/HammerMeetNail/friendgraph/internal/models"
)

type BlockService struct {
	store  RelationshipStore
	events RelationshipEvents
	now    func() time.Time
}

func NewBlockService(store RelationshipStore, events RelationshipEvents) *BlockService {
	if events == nil {
		events = noopEvents{}
	}
	return &BlockService{store: store, events: events, now: time.Now}
}

func (s *BlockService) SetClock(now func() time.Time) {
	s.now = now
}

// Block records that blockerID blocks blockedID. In the same transaction it
// removes their friendship, cancels pending requests in both directions and
// drops suggestions between them.
func (s *BlockService) Block(ctx context.Context, blockerID, blockedID int64, reason models.BlockReason) (*models.BlockedUser, error) {
	if err := ValidateSelfRelation(blockerID, blockedID); err != nil {
		return nil, err
	}
	if !reason.Valid() {
		return nil, ErrInvalidBlockReason
	}

	var (
		block      *models.BlockedUser
		unfriended bool
		cancelled  []models.FriendRequest
	)
	now := s.now()
	err := s.store.InTx(ctx, func(tx RelationshipTx) error {
		if err := tx.LockPair(ctx, blockerID, blockedID); err != nil {
			return err
		}
		if err := ValidateNoDuplicate(ctx, tx, RelationBlock, blockerID, blockedID); err != nil {
			return err
		}

		var err error
		if unfriended, err = tx.DeleteFriendship(ctx, blockerID, blockedID); err != nil {
			return err
		}
		if cancelled, err = tx.CancelPendingBetween(ctx, blockerID, blockedID, now); err != nil {
			return err
		}
		if block, err = tx.InsertBlock(ctx, blockerID, blockedID, reason, now); err != nil {
			return err
		}
		_, err = tx.DeleteSuggestionsBetween(ctx, blockerID, blockedID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if unfriended {
		s.events.FriendshipDeleted(ctx, blockerID, blockedID)
	}
	if len(cancelled) > 0 {
		s.events.RequestsResolved(ctx, cancelled...)
	}
	return block, nil
}

// Unblock removes the block and reports whether one existed.
func (s *BlockService) Unblock(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	if err := ValidateSelfRelation(blockerID, blockedID); err != nil {
		return false, err
	}

	var deleted bool
	err := s.store.InTx(ctx, func(tx RelationshipTx) error {
		if err := tx.LockPair(ctx, blockerID, blockedID); err != nil {
			return err
		}
		var err error
		deleted, err = tx.DeleteBlock(ctx, blockerID, blockedID)
		return err
	})
	return deleted, err
}

// IsBlocked reports whether blockerID blocks blockedID.
func (s *BlockService) IsBlocked(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	return s.store.IsBlocked(ctx, blockerID, blockedID)
}

// IsBlockedEither reports whether either user blocks the other.
func (s *BlockService) IsBlockedEither(ctx context.Context, userID, otherUserID int64) (bool, error) {
	return s.store.IsBlockedEither(ctx, userID, otherUserID)
}

func (s *BlockService) ListBlocked(ctx context.Context, blockerID int64) ([]models.BlockedUserWithName, error) {
	return s.store.ListBlocked(ctx, blockerID)
}
