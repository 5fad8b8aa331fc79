package services

import (
	"github.com/redis/go-redis/v9"

	"github.com/HammerMeetNail/friendgraph/internal/config"
	"github.com/HammerMeetNail/friendgraph/internal/logging"
	"github.com/HammerMeetNail/friendgraph/internal/ratelimit"
)

// Subsystem bundles the relationship services with their side effects wired
// to Postgres and Redis.
type Subsystem struct {
	Store       *PostgresStore
	Friends     *FriendService
	Blocks      *BlockService
	Suggestions *SuggestionService
	Effects     *Coordinator
	Sweeper     *RetentionSweeper
	Regen       *ratelimit.Limiter
}

type SubsystemConfig struct {
	DB       DB
	Redis    *redis.Client // optional
	Settings config.RelationshipsConfig
	Logger   *logging.Logger
}

// NewSubsystem builds every component from cfg. Without a Redis client the
// friend-list cache and notifications are disabled and regeneration is
// throttled in-process, with idle limiter state dropped by the sweeper.
func NewSubsystem(cfg SubsystemConfig) *Subsystem {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default
	}
	settings := cfg.Settings

	store := NewPostgresStore(cfg.DB)
	users := NewPostgresUserDirectory(cfg.DB)

	var (
		cache    Cache
		notifier Notifier
	)
	if cfg.Redis != nil {
		cache = NewRedisCache(cfg.Redis)
		if settings.NotificationsEnabled {
			notifier = NewRedisNotifier(cfg.Redis, settings.NotificationStream)
		}
	}

	suggestions := NewSuggestionService(store, users, settings.SuggestionLimit)
	regen := ratelimit.NewSuggestionLimiter(cfg.Redis, settings.SuggestionRegenLimit, settings.SuggestionRegenWindow)
	effects := NewCoordinator(CoordinatorConfig{
		Store:       store,
		Profiles:    NewPostgresProfiles(cfg.DB),
		Cache:       cache,
		Notifier:    notifier,
		Users:       users,
		Suggestions: suggestions,
		Limiter:     regen,
		Logger:      logger,
	})

	friends := NewFriendService(store, effects, cache)
	if settings.FriendListCacheTTL > 0 {
		friends.SetCacheTTL(settings.FriendListCacheTTL)
	}

	sweeper := NewRetentionSweeper(store, settings.RequestRetention, logger)
	sweeper.AddPruner("suggestion_limiter", regen, regen.IdleAfter())

	return &Subsystem{
		Store:       store,
		Friends:     friends,
		Blocks:      NewBlockService(store, effects),
		Suggestions: suggestions,
		Effects:     effects,
		Sweeper:     sweeper,
		Regen:       regen,
	}
}
