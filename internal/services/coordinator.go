package services

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/HammerMeetNail/friendgraph/internal/logging"
	"github.com/HammerMeetNail/friendgraph/internal/models"
)

const defaultRegenLimit = 5

// SuggestionGenerator produces suggestions for a single user.
type SuggestionGenerator interface {
	Generate(ctx context.Context, userID int64, limit int) (int, error)
}

// Coordinator applies the derived effects of committed relationship changes:
// friend counters, cache invalidation, notifications and suggestion
// regeneration. Failures are logged and never returned.
type Coordinator struct {
	store    RelationshipStore
	profiles ProfileAggregates
	cache    Cache
	notifier Notifier
	users    UserDirectory

	suggestions SuggestionGenerator
	limiter     RegenLimiter
	regenLimit  int
	group       singleflight.Group

	async    func(fn func())
	asyncCtx context.Context
	logger   *logging.Logger
}

// CoordinatorConfig wires the collaborators. A nil Notifier disables
// notifications; a nil Limiter disables throttling.
type CoordinatorConfig struct {
	Store       RelationshipStore
	Profiles    ProfileAggregates
	Cache       Cache
	Notifier    Notifier
	Users       UserDirectory
	Suggestions SuggestionGenerator
	Limiter     RegenLimiter
	RegenLimit  int
	Logger      *logging.Logger
}

func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	regenLimit := cfg.RegenLimit
	if regenLimit <= 0 {
		regenLimit = defaultRegenLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default
	}
	return &Coordinator{
		store:       cfg.Store,
		profiles:    cfg.Profiles,
		cache:       cfg.Cache,
		notifier:    cfg.Notifier,
		users:       cfg.Users,
		suggestions: cfg.Suggestions,
		limiter:     cfg.Limiter,
		regenLimit:  regenLimit,
		async: func(fn func()) {
			go fn()
		},
		asyncCtx: context.Background(),
		logger:   logger.WithField("component", "relationship_effects"),
	}
}

func (c *Coordinator) SetAsync(fn func(fn func())) {
	c.async = fn
}

func (c *Coordinator) SetAsyncContext(ctx context.Context) {
	if ctx == nil {
		c.asyncCtx = context.Background()
		return
	}
	c.asyncCtx = ctx
}

func (c *Coordinator) FriendshipCreated(ctx context.Context, f *models.Friendship, req *models.FriendRequest) {
	for _, userID := range []int64{f.UserAID, f.UserBID} {
		c.refreshFriendCount(ctx, userID)
	}
	c.invalidate(ctx, friendshipKeys(f.UserAID, f.UserBID)...)

	if req != nil {
		accepter, err := c.lookupUser(ctx, req.ToUserID)
		if err == nil {
			c.notify(ctx, friendAcceptNotification(req, accepter))
		}
	}

	c.scheduleRegeneration(ctx, f.UserAID)
	c.scheduleRegeneration(ctx, f.UserBID)
}

func (c *Coordinator) FriendshipDeleted(ctx context.Context, u1, u2 int64) {
	for _, userID := range []int64{u1, u2} {
		c.refreshFriendCount(ctx, userID)
	}
	c.invalidate(ctx, friendshipKeys(u1, u2)...)
}

func (c *Coordinator) RequestCreated(ctx context.Context, req *models.FriendRequest) {
	c.invalidate(ctx, requestKeys(*req)...)

	sender, err := c.lookupUser(ctx, req.FromUserID)
	if err == nil {
		c.notify(ctx, friendRequestNotification(req, sender))
	}
}

func (c *Coordinator) RequestsResolved(ctx context.Context, reqs ...models.FriendRequest) {
	var keys []string
	for _, req := range reqs {
		keys = append(keys, requestKeys(req)...)
	}
	c.invalidate(ctx, keys...)
}

func friendshipKeys(u1, u2 int64) []string {
	return []string{
		friendsListKey(u1), friendsCountKey(u1),
		friendsListKey(u2), friendsCountKey(u2),
	}
}

func requestKeys(req models.FriendRequest) []string {
	return []string{pendingRequestsKey(req.ToUserID), sentRequestsKey(req.FromUserID)}
}

func (c *Coordinator) refreshFriendCount(ctx context.Context, userID int64) {
	if c.profiles == nil {
		return
	}
	n, err := c.store.CountFriends(ctx, userID)
	if err != nil {
		c.logger.Error("Failed to count friends", map[string]interface{}{"error": err, "user_id": userID})
		return
	}
	if err := c.profiles.SetFriendCount(ctx, userID, n); err != nil {
		c.logger.Error("Failed to update friend count", map[string]interface{}{"error": err, "user_id": userID, "count": n})
	}
}

func (c *Coordinator) invalidate(ctx context.Context, keys ...string) {
	if c.cache == nil || len(keys) == 0 {
		return
	}
	if err := c.cache.Delete(ctx, keys...); err != nil {
		c.logger.Error("Failed to invalidate cache", map[string]interface{}{"error": err, "keys": keys})
	}
}

func (c *Coordinator) lookupUser(ctx context.Context, userID int64) (*models.User, error) {
	if c.notifier == nil || c.users == nil {
		return nil, ErrNotFound
	}
	user, err := c.users.GetUser(ctx, userID)
	if err != nil {
		c.logger.Error("Failed to load notification sender", map[string]interface{}{"error": err, "user_id": userID})
		return nil, err
	}
	return user, nil
}

func (c *Coordinator) notify(ctx context.Context, n models.Notification) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Notify(ctx, n); err != nil {
		c.logger.Error("Failed to dispatch notification", map[string]interface{}{
			"error":        err,
			"kind":         string(n.Kind),
			"recipient_id": n.RecipientID,
			"sender_id":    n.SenderID,
		})
	}
}

// scheduleRegeneration queues a suggestion refresh for userID unless the
// per-user limit is exhausted. Concurrent refreshes for one user collapse
// into one.
func (c *Coordinator) scheduleRegeneration(ctx context.Context, userID int64) {
	if c.suggestions == nil {
		return
	}
	key := strconv.FormatInt(userID, 10)

	if c.limiter != nil {
		allowed, _, err := c.limiter.Allow(ctx, key)
		if err != nil {
			c.logger.Warn("Suggestion rate limiter unavailable", map[string]interface{}{"error": err, "user_id": userID})
		}
		if !allowed {
			c.logger.Debug("Suggestion regeneration throttled", map[string]interface{}{"user_id": userID})
			return
		}
	}

	c.async(func() {
		_, err, _ := c.group.Do(key, func() (interface{}, error) {
			return c.suggestions.Generate(c.asyncCtx, userID, c.regenLimit)
		})
		if err != nil {
			c.logger.Error("Failed to regenerate suggestions", map[string]interface{}{"error": err, "user_id": userID})
		}
	})
}

func logCacheError(msg, key string, err error) {
	logging.Warn(msg, map[string]interface{}{"error": err, "key": key})
}
