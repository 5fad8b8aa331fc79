package services

import (
	"context"
	"sync"
	"time"

	"github.com/HammerMeetNail/friendgraph/internal/models"
)

type recordedEvents struct {
	mu       sync.Mutex
	created  []models.Friendship
	deleted  [][2]int64
	requests []models.FriendRequest
	resolved []models.FriendRequest
}

func (e *recordedEvents) FriendshipCreated(ctx context.Context, f *models.Friendship, req *models.FriendRequest) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.created = append(e.created, *f)
}

func (e *recordedEvents) FriendshipDeleted(ctx context.Context, u1, u2 int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deleted = append(e.deleted, [2]int64{u1, u2})
}

func (e *recordedEvents) RequestCreated(ctx context.Context, req *models.FriendRequest) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requests = append(e.requests, *req)
}

func (e *recordedEvents) RequestsResolved(ctx context.Context, reqs ...models.FriendRequest) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resolved = append(e.resolved, reqs...)
}

// stepClock returns a clock that advances by step on every call.
func stepClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := current
		current = current.Add(step)
		return now
	}
}

var testEpoch = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

func newFriendFixture() (*FriendService, *memStore, *recordedEvents) {
	store := newMemStore()
	events := &recordedEvents{}
	svc := NewFriendService(store, events, nil)
	svc.SetClock(stepClock(testEpoch, time.Minute))
	return svc, store, events
}
