package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/friendgraph/internal/models"
)

type pairKey [2]int64

func canonicalKey(u1, u2 int64) pairKey {
	lo, hi := CanonicalizePair(u1, u2)
	return pairKey{lo, hi}
}

type memState struct {
	friendships map[pairKey]models.Friendship
	requests    map[uuid.UUID]models.FriendRequest
	blocks      map[pairKey]models.BlockedUser // keyed by (blocker, blocked)
	suggestions map[uuid.UUID]models.FriendSuggestion
}

func (s *memState) clone() *memState {
	c := &memState{
		friendships: make(map[pairKey]models.Friendship, len(s.friendships)),
		requests:    make(map[uuid.UUID]models.FriendRequest, len(s.requests)),
		blocks:      make(map[pairKey]models.BlockedUser, len(s.blocks)),
		suggestions: make(map[uuid.UUID]models.FriendSuggestion, len(s.suggestions)),
	}
	for k, v := range s.friendships {
		c.friendships[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = v
	}
	for k, v := range s.blocks {
		c.blocks[k] = v
	}
	for k, v := range s.suggestions {
		c.suggestions[k] = v
	}
	return c
}

// memStore is an in-memory RelationshipStore. InTx holds a single mutex for
// the whole transaction and restores the previous state when fn fails.
type memStore struct {
	mu    sync.Mutex
	state *memState
	users map[int64]models.User

	txCount int
}

func newMemStore() *memStore {
	return &memStore{
		state: &memState{
			friendships: map[pairKey]models.Friendship{},
			requests:    map[uuid.UUID]models.FriendRequest{},
			blocks:      map[pairKey]models.BlockedUser{},
			suggestions: map[uuid.UUID]models.FriendSuggestion{},
		},
		users: map[int64]models.User{},
	}
}

func (m *memStore) addUser(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

// befriend inserts a friendship directly, bypassing the state machine.
func (m *memStore) befriend(u1, u2 int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lo, hi := CanonicalizePair(u1, u2)
	m.state.friendships[pairKey{lo, hi}] = models.Friendship{ID: uuid.New(), UserAID: lo, UserBID: hi, CreatedAt: time.Now()}
}

func (m *memStore) friendshipRows(u1, u2 int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, f := range m.state.friendships {
		if (f.UserAID == u1 && f.UserBID == u2) || (f.UserAID == u2 && f.UserBID == u1) {
			n++
		}
	}
	return n
}

func (m *memStore) requestsBetween(u1, u2 int64) []models.FriendRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.FriendRequest
	for _, r := range m.state.requests {
		if (r.FromUserID == u1 && r.ToUserID == u2) || (r.FromUserID == u2 && r.ToUserID == u1) {
			out = append(out, r)
		}
	}
	return out
}

func (m *memStore) deleteRequest(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state.requests, id)
}

func (m *memStore) addSuggestion(userID, target int64, dismissed bool) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.state.suggestions[id] = models.FriendSuggestion{
		ID: id, UserID: userID, SuggestedUserID: target,
		Reason: models.SuggestionReasonMutualFriends, Score: 0.5,
		IsDismissed: dismissed, CreatedAt: time.Now(),
	}
	return id
}

func (m *memStore) suggestionsFor(userID int64) []models.FriendSuggestion {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.FriendSuggestion
	for _, s := range m.state.suggestions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SuggestedUserID < out[j].SuggestedUserID })
	return out
}

func (m *memStore) InTx(ctx context.Context, fn func(tx RelationshipTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCount++

	snapshot := m.state.clone()
	if err := fn(&memTx{s: m.state}); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (m *memStore) reader() *memTx {
	return &memTx{s: m.state}
}

type memTx struct {
	s *memState
}

func (t *memTx) LockPair(ctx context.Context, u1, u2 int64) error { return nil }

func (t *memTx) FriendshipExists(ctx context.Context, u1, u2 int64) (bool, error) {
	_, ok := t.s.friendships[canonicalKey(u1, u2)]
	return ok, nil
}

func (t *memTx) RequestExists(ctx context.Context, fromID, toID int64) (bool, error) {
	_, err := t.GetRequestByPair(ctx, fromID, toID)
	return err == nil, nil
}

func (t *memTx) BlockExists(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	_, ok := t.s.blocks[pairKey{blockerID, blockedID}]
	return ok, nil
}

func (t *memTx) AnyBlockBetween(ctx context.Context, u1, u2 int64) (bool, error) {
	_, a := t.s.blocks[pairKey{u1, u2}]
	_, b := t.s.blocks[pairKey{u2, u1}]
	return a || b, nil
}

func (t *memTx) InsertBlock(ctx context.Context, blockerID, blockedID int64, reason models.BlockReason, at time.Time) (*models.BlockedUser, error) {
	k := pairKey{blockerID, blockedID}
	if _, ok := t.s.blocks[k]; ok {
		return nil, ErrDuplicateRelation
	}
	b := models.BlockedUser{ID: uuid.New(), BlockerID: blockerID, BlockedID: blockedID, Reason: reason, CreatedAt: at}
	t.s.blocks[k] = b
	return &b, nil
}

func (t *memTx) DeleteBlock(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	k := pairKey{blockerID, blockedID}
	_, ok := t.s.blocks[k]
	delete(t.s.blocks, k)
	return ok, nil
}

func (t *memTx) GetFriendship(ctx context.Context, u1, u2 int64) (*models.Friendship, error) {
	f, ok := t.s.friendships[canonicalKey(u1, u2)]
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}

func (t *memTx) InsertFriendship(ctx context.Context, u1, u2 int64, at time.Time) (*models.Friendship, bool, error) {
	k := canonicalKey(u1, u2)
	if f, ok := t.s.friendships[k]; ok {
		return &f, false, nil
	}
	f := models.Friendship{ID: uuid.New(), UserAID: k[0], UserBID: k[1], CreatedAt: at}
	t.s.friendships[k] = f
	return &f, true, nil
}

func (t *memTx) DeleteFriendship(ctx context.Context, u1, u2 int64) (bool, error) {
	k := canonicalKey(u1, u2)
	_, ok := t.s.friendships[k]
	delete(t.s.friendships, k)
	return ok, nil
}

func (t *memTx) GetRequest(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error) {
	r, ok := t.s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (t *memTx) GetRequestByPair(ctx context.Context, fromID, toID int64) (*models.FriendRequest, error) {
	for _, r := range t.s.requests {
		if r.FromUserID == fromID && r.ToUserID == toID {
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) InsertRequest(ctx context.Context, fromID, toID int64, message string, at time.Time) (*models.FriendRequest, error) {
	if ok, _ := t.RequestExists(ctx, fromID, toID); ok {
		return nil, ErrDuplicateRelation
	}
	r := models.FriendRequest{
		ID: uuid.New(), FromUserID: fromID, ToUserID: toID,
		Status: models.RequestStatusPending, Message: message,
		CreatedAt: at, UpdatedAt: at,
	}
	t.s.requests[r.ID] = r
	return &r, nil
}

func (t *memTx) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	if _, ok := t.s.requests[id]; !ok {
		return ErrNotFound
	}
	delete(t.s.requests, id)
	return nil
}

func (t *memTx) ResolveRequest(ctx context.Context, id uuid.UUID, status models.RequestStatus, at time.Time) (bool, error) {
	r, ok := t.s.requests[id]
	if !ok || r.Status != models.RequestStatusPending {
		return false, nil
	}
	r.Status = status
	r.RespondedAt = &at
	r.UpdatedAt = at
	t.s.requests[id] = r
	return true, nil
}

func (t *memTx) CancelPendingBetween(ctx context.Context, u1, u2 int64, at time.Time) ([]models.FriendRequest, error) {
	var out []models.FriendRequest
	for id, r := range t.s.requests {
		between := (r.FromUserID == u1 && r.ToUserID == u2) || (r.FromUserID == u2 && r.ToUserID == u1)
		if !between || r.Status != models.RequestStatusPending {
			continue
		}
		r.Status = models.RequestStatusCancelled
		r.RespondedAt = &at
		r.UpdatedAt = at
		t.s.requests[id] = r
		out = append(out, r)
	}
	return out, nil
}

func (t *memTx) DeleteSuggestionsBetween(ctx context.Context, u1, u2 int64) (int64, error) {
	var n int64
	for id, s := range t.s.suggestions {
		if (s.UserID == u1 && s.SuggestedUserID == u2) || (s.UserID == u2 && s.SuggestedUserID == u1) {
			delete(t.s.suggestions, id)
			n++
		}
	}
	return n, nil
}

func (t *memTx) friendIDs(userID int64) []int64 {
	ids := []int64{}
	for _, f := range t.s.friendships {
		if f.Involves(userID) {
			ids = append(ids, f.Other(userID))
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *memStore) AreFriends(ctx context.Context, u1, u2 int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reader().FriendshipExists(ctx, u1, u2)
}

func (m *memStore) ListFriends(ctx context.Context, userID int64) ([]models.Friend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	friends := []models.Friend{}
	for _, f := range m.state.friendships {
		if !f.Involves(userID) {
			continue
		}
		u := m.users[f.Other(userID)]
		friends = append(friends, models.Friend{UserID: f.Other(userID), Username: u.Username, FullName: u.FullName, FriendsSince: f.CreatedAt})
	}
	sort.Slice(friends, func(i, j int) bool { return friends[i].Username < friends[j].Username })
	return friends, nil
}

func (m *memStore) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reader().friendIDs(userID), nil
}

func (m *memStore) CountFriends(ctx context.Context, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reader().friendIDs(userID)), nil
}

func (m *memStore) MutualFriendIDs(ctx context.Context, u1, u2 int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.reader()
	other := map[int64]bool{}
	for _, id := range r.friendIDs(u2) {
		other[id] = true
	}
	out := []int64{}
	for _, id := range r.friendIDs(u1) {
		if other[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *memStore) MutualFriendCounts(ctx context.Context, userID int64) (map[int64]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.reader()
	counts := map[int64]int{}
	for _, friend := range r.friendIDs(userID) {
		for _, candidate := range r.friendIDs(friend) {
			if candidate != userID {
				counts[candidate]++
			}
		}
	}
	return counts, nil
}

func (m *memStore) GetRequest(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reader().GetRequest(ctx, id)
}

func (m *memStore) listRequests(match func(models.FriendRequest) bool, other func(models.FriendRequest) int64) []models.FriendRequestWithUser {
	out := []models.FriendRequestWithUser{}
	for _, r := range m.state.requests {
		if r.Status != models.RequestStatusPending || !match(r) {
			continue
		}
		u := m.users[other(r)]
		out = append(out, models.FriendRequestWithUser{FriendRequest: r, OtherUsername: u.Username, OtherFullName: u.FullName})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memStore) ListReceivedRequests(ctx context.Context, userID int64) ([]models.FriendRequestWithUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listRequests(
		func(r models.FriendRequest) bool { return r.ToUserID == userID },
		func(r models.FriendRequest) int64 { return r.FromUserID },
	), nil
}

func (m *memStore) ListSentRequests(ctx context.Context, userID int64) ([]models.FriendRequestWithUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listRequests(
		func(r models.FriendRequest) bool { return r.FromUserID == userID },
		func(r models.FriendRequest) int64 { return r.ToUserID },
	), nil
}

func (m *memStore) CountPendingRequests(ctx context.Context, userID int64) (int, error) {
	reqs, _ := m.ListReceivedRequests(ctx, userID)
	return len(reqs), nil
}

func (m *memStore) MarkRequestViewed(ctx context.Context, id uuid.UUID, at time.Time) (*models.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.state.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.ViewedAt == nil {
		r.ViewedAt = &at
		m.state.requests[id] = r
	}
	return &r, nil
}

func (m *memStore) DeleteTerminalRequestsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, r := range m.state.requests {
		terminal := r.Status == models.RequestStatusRejected || r.Status == models.RequestStatusCancelled
		if terminal && r.UpdatedAt.Before(cutoff) {
			delete(m.state.requests, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) IsBlocked(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reader().BlockExists(ctx, blockerID, blockedID)
}

func (m *memStore) IsBlockedEither(ctx context.Context, u1, u2 int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reader().AnyBlockBetween(ctx, u1, u2)
}

func (m *memStore) ListBlocked(ctx context.Context, blockerID int64) ([]models.BlockedUserWithName, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.BlockedUserWithName{}
	for _, b := range m.state.blocks {
		if b.BlockerID == blockerID {
			out = append(out, models.BlockedUserWithName{BlockedUser: b, Username: m.users[b.BlockedID].Username})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *memStore) BlockedEitherIDs(ctx context.Context, userID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []int64{}
	for _, b := range m.state.blocks {
		switch userID {
		case b.BlockerID:
			ids = append(ids, b.BlockedID)
		case b.BlockedID:
			ids = append(ids, b.BlockerID)
		}
	}
	return ids, nil
}

func (m *memStore) DismissedSuggestionTargets(ctx context.Context, userID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []int64{}
	for _, s := range m.state.suggestions {
		if s.UserID == userID && s.IsDismissed {
			ids = append(ids, s.SuggestedUserID)
		}
	}
	return ids, nil
}

func (m *memStore) InsertSuggestions(ctx context.Context, userID int64, candidates []SuggestionCandidate, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := map[int64]bool{}
	for _, s := range m.state.suggestions {
		if s.UserID == userID {
			existing[s.SuggestedUserID] = true
		}
	}
	inserted := 0
	for _, c := range candidates {
		if existing[c.UserID] {
			continue
		}
		id := uuid.New()
		m.state.suggestions[id] = models.FriendSuggestion{
			ID: id, UserID: userID, SuggestedUserID: c.UserID,
			Reason: c.Reason, Score: c.Score, CreatedAt: at,
		}
		existing[c.UserID] = true
		inserted++
	}
	return inserted, nil
}

func (m *memStore) ListSuggestions(ctx context.Context, userID int64, limit int) ([]models.FriendSuggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.FriendSuggestion{}
	for _, s := range m.state.suggestions {
		if s.UserID == userID && !s.IsDismissed {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].SuggestedUserID < out[j].SuggestedUserID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) DismissSuggestion(ctx context.Context, userID int64, id uuid.UUID, at time.Time) (*models.FriendSuggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.state.suggestions[id]
	if !ok || s.UserID != userID {
		return nil, ErrNotFound
	}
	if !s.IsDismissed {
		s.IsDismissed = true
		s.DismissedAt = &at
		m.state.suggestions[id] = s
	}
	return &s, nil
}

// memUsers is an in-memory UserDirectory over memStore users.
type memUsers struct {
	store *memStore
}

func (u memUsers) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	user, ok := u.store.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (u memUsers) IsUserActive(ctx context.Context, userID int64) (bool, error) {
	user, err := u.GetUser(ctx, userID)
	if err != nil {
		return false, nil
	}
	return user.IsActive, nil
}

func (u memUsers) ListByAttribute(ctx context.Context, attr UserAttribute, value any, exclude []int64, limit int) ([]int64, error) {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	skip := map[int64]bool{}
	for _, id := range exclude {
		skip[id] = true
	}
	var ids []int64
	for id, user := range u.store.users {
		if !user.IsActive || skip[id] {
			continue
		}
		switch attr {
		case AttributeCareer:
			if user.Career != value {
				continue
			}
		case AttributeSemester:
			if user.Semester == nil || *user.Semester != value {
				continue
			}
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}
