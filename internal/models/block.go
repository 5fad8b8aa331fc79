package models

import (
	"time"

	"github.com/google/uuid"
)

type BlockReason string

const (
	BlockReasonNone          BlockReason = ""
	BlockReasonSpam          BlockReason = "spam"
	BlockReasonHarassment    BlockReason = "harassment"
	BlockReasonInappropriate BlockReason = "inappropriate"
	BlockReasonFake          BlockReason = "fake"
	BlockReasonOther         BlockReason = "other"
)

func (r BlockReason) Valid() bool {
	switch r {
	case BlockReasonNone, BlockReasonSpam, BlockReasonHarassment,
		BlockReasonInappropriate, BlockReasonFake, BlockReasonOther:
		return true
	}
	return false
}

type BlockedUser struct {
	ID        uuid.UUID   `json:"id"`
	BlockerID int64       `json:"blocker_id"`
	BlockedID int64       `json:"blocked_id"`
	Reason    BlockReason `json:"reason,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

type BlockedUserWithName struct {
	BlockedUser
	Username string `json:"username"`
}
