package models

import (
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusAccepted  RequestStatus = "accepted"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s RequestStatus) Terminal() bool {
	return s != RequestStatusPending
}

// MaxRequestMessageLength is measured in runes.
const MaxRequestMessageLength = 200

type FriendRequest struct {
	ID          uuid.UUID     `json:"id"`
	FromUserID  int64         `json:"from_user_id"`
	ToUserID    int64         `json:"to_user_id"`
	Status      RequestStatus `json:"status"`
	Message     string        `json:"message"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	ViewedAt    *time.Time    `json:"viewed_at,omitempty"`
	RespondedAt *time.Time    `json:"responded_at,omitempty"`
}

// FriendRequestWithUser carries the counterpart's public fields for listings.
type FriendRequestWithUser struct {
	FriendRequest
	OtherUsername string `json:"other_username"`
	OtherFullName string `json:"other_full_name"`
}
