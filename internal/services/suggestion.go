package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/friendgraph/internal/models"
)

const (
	defaultSuggestionLimit = 20

	mutualFriendsCap     = 10
	attributeMatchCap    = 5
	mutualFriendsDivisor = 10.0
	sameAttributeScore   = 0.7
	sameSecondaryScore   = 0.6
)

// SuggestionService scores friend candidates. Each candidate gets the score
// of the first rule it matches: mutual friends, then same career, then same
// semester.
type SuggestionService struct {
	store RelationshipStore
	users UserDirectory
	limit int
	now   func() time.Time
}

func NewSuggestionService(store RelationshipStore, users UserDirectory, limit int) *SuggestionService {
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}
	return &SuggestionService{store: store, users: users, limit: limit, now: time.Now}
}

func (s *SuggestionService) SetClock(now func() time.Time) {
	s.now = now
}

func mutualFriendScore(m int) float64 {
	return min(1.0, float64(m)/mutualFriendsDivisor)
}

// Generate stores up to limit new suggestions for userID and returns how
// many rows were inserted. Pairs that already have a suggestion are left
// untouched, so repeated calls are safe.
func (s *SuggestionService) Generate(ctx context.Context, userID int64, limit int) (int, error) {
	if limit <= 0 {
		limit = s.limit
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("loading user %d: %w", userID, err)
	}

	excluded, err := s.excludedFor(ctx, userID)
	if err != nil {
		return 0, err
	}

	candidates, err := s.mutualFriendCandidates(ctx, userID, excluded, min(limit, mutualFriendsCap))
	if err != nil {
		return 0, err
	}
	for _, c := range candidates {
		excluded[c.UserID] = struct{}{}
	}

	if remaining := limit - len(candidates); remaining > 0 && user.Career != "" {
		matched, err := s.attributeCandidates(ctx, AttributeCareer, user.Career, excluded,
			min(remaining, attributeMatchCap), models.SuggestionReasonSameAttribute, sameAttributeScore)
		if err != nil {
			return 0, err
		}
		candidates = append(candidates, matched...)
	}

	if remaining := limit - len(candidates); remaining > 0 && user.Semester != nil && *user.Semester > 0 {
		matched, err := s.attributeCandidates(ctx, AttributeSemester, *user.Semester, excluded,
			min(remaining, attributeMatchCap), models.SuggestionReasonSameSecondaryAttribute, sameSecondaryScore)
		if err != nil {
			return 0, err
		}
		candidates = append(candidates, matched...)
	}

	return s.store.InsertSuggestions(ctx, userID, candidates, s.now())
}

// excludedFor returns the IDs that may never be suggested to userID.
func (s *SuggestionService) excludedFor(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	excluded := map[int64]struct{}{userID: {}}

	friends, err := s.store.FriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	blocked, err := s.store.BlockedEitherIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	dismissed, err := s.store.DismissedSuggestionTargets(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, ids := range [][]int64{friends, blocked, dismissed} {
		for _, id := range ids {
			excluded[id] = struct{}{}
		}
	}
	return excluded, nil
}

func (s *SuggestionService) mutualFriendCandidates(ctx context.Context, userID int64, excluded map[int64]struct{}, limit int) ([]SuggestionCandidate, error) {
	counts, err := s.store.MutualFriendCounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		id     int64
		mutual int
	}
	var pool []ranked
	for id, m := range counts {
		if _, skip := excluded[id]; skip || m < 1 {
			continue
		}
		pool = append(pool, ranked{id: id, mutual: m})
	}
	sort.Slice(pool, func(i, j int) bool {
		if pool[i].mutual != pool[j].mutual {
			return pool[i].mutual > pool[j].mutual
		}
		return pool[i].id < pool[j].id
	})

	var out []SuggestionCandidate
	for _, c := range pool {
		if len(out) == limit {
			break
		}
		active, err := s.users.IsUserActive(ctx, c.id)
		if err != nil {
			return nil, err
		}
		if !active {
			continue
		}
		out = append(out, SuggestionCandidate{
			UserID: c.id,
			Reason: models.SuggestionReasonMutualFriends,
			Score:  mutualFriendScore(c.mutual),
		})
	}
	return out, nil
}

func (s *SuggestionService) attributeCandidates(ctx context.Context, attr UserAttribute, value any, excluded map[int64]struct{}, limit int, reason models.SuggestionReason, score float64) ([]SuggestionCandidate, error) {
	ids, err := s.users.ListByAttribute(ctx, attr, value, sortedIDs(excluded), limit)
	if err != nil {
		return nil, err
	}
	out := make([]SuggestionCandidate, 0, len(ids))
	for _, id := range ids {
		if _, skip := excluded[id]; skip {
			continue
		}
		excluded[id] = struct{}{}
		out = append(out, SuggestionCandidate{UserID: id, Reason: reason, Score: score})
	}
	return out, nil
}

func sortedIDs(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ListSuggestions returns the user's open suggestions, generating a batch
// first when there are none.
func (s *SuggestionService) ListSuggestions(ctx context.Context, userID int64) ([]models.FriendSuggestion, error) {
	suggestions, err := s.store.ListSuggestions(ctx, userID, s.limit)
	if err != nil {
		return nil, err
	}
	if len(suggestions) > 0 {
		return suggestions, nil
	}

	inserted, err := s.Generate(ctx, userID, s.limit)
	if err != nil {
		return nil, err
	}
	if inserted == 0 {
		return suggestions, nil
	}
	return s.store.ListSuggestions(ctx, userID, s.limit)
}

// Dismiss hides a suggestion from its owner. Dismissing twice keeps the
// first dismissal time.
func (s *SuggestionService) Dismiss(ctx context.Context, userID int64, suggestionID uuid.UUID) (*models.FriendSuggestion, error) {
	return s.store.DismissSuggestion(ctx, userID, suggestionID, s.now())
}
