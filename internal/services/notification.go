package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/HammerMeetNail/friendgraph/internal/models"
)

const friendRequestsLink = "/friends/requests/"

func profileLink(username string) string {
	return fmt.Sprintf("/profiles/%s/", username)
}

func friendRequestNotification(req *models.FriendRequest, sender *models.User) models.Notification {
	return models.Notification{
		RecipientID: req.ToUserID,
		SenderID:    req.FromUserID,
		Kind:        models.NotificationKindFriendRequest,
		Text:        fmt.Sprintf("%s sent you a friend request", sender.DisplayName()),
		Link:        friendRequestsLink,
	}
}

// friendAcceptNotification tells the original sender that accepter took
// the request.
func friendAcceptNotification(req *models.FriendRequest, accepter *models.User) models.Notification {
	return models.Notification{
		RecipientID: req.FromUserID,
		SenderID:    req.ToUserID,
		Kind:        models.NotificationKindFriendAccept,
		Text:        fmt.Sprintf("%s accepted your friend request", accepter.DisplayName()),
		Link:        profileLink(accepter.Username),
	}
}

// RedisNotifier appends notifications to a Redis stream consumed by the
// delivery service.
type RedisNotifier struct {
	redis  *redis.Client
	stream string
}

func NewRedisNotifier(client *redis.Client, stream string) *RedisNotifier {
	return &RedisNotifier{redis: client, stream: stream}
}

func (n *RedisNotifier) Notify(ctx context.Context, notification models.Notification) error {
	err := n.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		Values: map[string]interface{}{
			"recipient_id": strconv.FormatInt(notification.RecipientID, 10),
			"sender_id":    strconv.FormatInt(notification.SenderID, 10),
			"kind":         string(notification.Kind),
			"text":         notification.Text,
			"link":         notification.Link,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publishing notification: %w", err)
	}
	return nil
}
