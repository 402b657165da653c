package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"persona-quiz-service/internal/domain"
)

func TestProgressStoreRoundTrip(t *testing.T) {
	mr, client := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewProgressStore(client, time.Minute)

	_, found, err := store.Get(ctx, "u1", "quiz-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Fatalf("expected absent record")
	}

	answers := map[string]domain.Answer{"q1": domain.Pick(0), "q2": domain.Skip()}
	if _, err := store.Upsert(ctx, "u1", "quiz-1", 2, answers); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	record, found, err := store.Get(ctx, "u1", "quiz-1")
	if err != nil {
		t.Fatalf("get after upsert: %v", err)
	}
	if !found || record.CurrentQuestion != 2 {
		t.Fatalf("unexpected record: %+v (found=%v)", record, found)
	}
	if a := record.Answers["q2"]; !a.Skipped {
		t.Fatalf("expected q2 skipped, got %+v", a)
	}
	if !mr.Exists("quiz:progress:u1:quiz-1") {
		t.Fatalf("expected redis key to be set")
	}
	if mr.TTL("quiz:progress:u1:quiz-1") <= 0 {
		t.Fatalf("expected TTL on progress key")
	}
}

func TestProgressStoreUpsertIsIdempotent(t *testing.T) {
	mr, client := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewProgressStore(client, time.Minute)
	store.clock = func() time.Time { return time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC) }

	answers := map[string]domain.Answer{"q1": domain.Pick(1)}
	first, err := store.Upsert(ctx, "u1", "quiz-1", 1, answers)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second, err := store.Upsert(ctx, "u1", "quiz-1", 1, answers)
	if err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("CreatedAt changed on retry: %v vs %v", first.CreatedAt, second.CreatedAt)
	}

	keys := mr.Keys()
	if len(keys) != 1 {
		t.Fatalf("expected exactly one key, got %v", keys)
	}
}

func TestProgressStorePreservesCreatedAt(t *testing.T) {
	mr, client := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewProgressStore(client, time.Minute)
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return now }

	first, err := store.Upsert(ctx, "u1", "quiz-1", 0, map[string]domain.Answer{"q1": domain.Pick(0)})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	now = now.Add(time.Minute)
	second, err := store.Upsert(ctx, "u1", "quiz-1", 1, map[string]domain.Answer{"q1": domain.Pick(0), "q2": domain.Pick(1)})
	if err != nil {
		t.Fatalf("upsert 2: %v", err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("CreatedAt must survive updates: %v vs %v", first.CreatedAt, second.CreatedAt)
	}
	if !second.LastUpdated.After(first.LastUpdated) {
		t.Fatalf("LastUpdated must advance: %v vs %v", first.LastUpdated, second.LastUpdated)
	}
}

func TestProgressStoreCreatedAtSurvivesConcurrentFirstWrites(t *testing.T) {
	mr, client := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	base := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	latest := base.Add(3 * time.Second)

	// Racing first writes: whichever write commits first fixes CreatedAt;
	// the losers must adopt it instead of starting the record over.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		stamp := base.Add(time.Duration(i) * time.Second)
		store := NewProgressStore(client, time.Minute)
		store.clock = func() time.Time { return stamp }
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Upsert(ctx, "u1", "quiz-1", 0, map[string]domain.Answer{"q1": domain.Pick(0)}); err != nil {
				t.Errorf("upsert: %v", err)
			}
		}()
	}
	wg.Wait()

	store := NewProgressStore(client, time.Minute)
	record, found, err := store.Get(ctx, "u1", "quiz-1")
	if err != nil || !found {
		t.Fatalf("get after races: %v (found=%v)", err, found)
	}
	created := record.CreatedAt
	if created.Before(base) || created.After(latest) {
		t.Fatalf("CreatedAt outside the first-write window: %v", created)
	}

	// A much later update still preserves it.
	store.clock = func() time.Time { return base.Add(time.Hour) }
	updated, err := store.Upsert(ctx, "u1", "quiz-1", 1, map[string]domain.Answer{"q1": domain.Pick(0), "q2": domain.Pick(1)})
	if err != nil {
		t.Fatalf("later upsert: %v", err)
	}
	if !updated.CreatedAt.Equal(created) {
		t.Fatalf("CreatedAt reset by a later writer: %v vs %v", updated.CreatedAt, created)
	}
}

func TestProgressStoreStorageUnavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	mr.Close() // kill the backend before the call

	store := NewProgressStore(client, time.Minute)
	_, err := store.Upsert(context.Background(), "u1", "quiz-1", 0, nil)
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}
