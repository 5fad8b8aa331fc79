package models

import (
	"time"

	"github.com/google/uuid"
)

type SuggestionReason string

const (
	SuggestionReasonMutualFriends          SuggestionReason = "mutual_friends"
	SuggestionReasonSameAttribute          SuggestionReason = "same_attribute"
	SuggestionReasonSameSecondaryAttribute SuggestionReason = "same_secondary_attribute"
)

type FriendSuggestion struct {
	ID              uuid.UUID        `json:"id"`
	UserID          int64            `json:"user_id"`
	SuggestedUserID int64            `json:"suggested_user_id"`
	Reason          SuggestionReason `json:"reason"`
	Score           float64          `json:"score"`
	IsDismissed     bool             `json:"is_dismissed"`
	CreatedAt       time.Time        `json:"created_at"`
	DismissedAt     *time.Time       `json:"dismissed_at,omitempty"`
}
