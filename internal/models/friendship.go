package models

import (
	"time"

	"github.com/google/uuid"
)

// Friendship is stored once per pair with UserAID < UserBID.
type Friendship struct {
	ID        uuid.UUID `json:"id"`
	UserAID   int64     `json:"user_a_id"`
	UserBID   int64     `json:"user_b_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Involves reports whether userID is one of the two endpoints.
func (f *Friendship) Involves(userID int64) bool {
	return f.UserAID == userID || f.UserBID == userID
}

// Other returns the endpoint that is not userID.
func (f *Friendship) Other(userID int64) int64 {
	if f.UserAID == userID {
		return f.UserBID
	}
	return f.UserAID
}

type Friend struct {
	UserID       int64     `json:"user_id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	FriendsSince time.Time `json:"friends_since"`
}
