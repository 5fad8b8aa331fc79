package models

type NotificationKind string

const (
	NotificationKindFriendRequest NotificationKind = "friend_request"
	NotificationKindFriendAccept  NotificationKind = "friend_accept"
)

type Notification struct {
	RecipientID int64            `json:"recipient_id"`
	SenderID    int64            `json:"sender_id"`
	Kind        NotificationKind `json:"kind"`
	Text        string           `json:"text"`
	Link        string           `json:"link"`
}
