package quiz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ttl), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t, time.Hour)

	want := State{Index: 1, Answers: map[int][]string{1: {"A"}, 2: {"B", "C"}}, Completed: true}
	if err := store.Save(ctx, "s1", want); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists(redisKeyPrefix + "s1") {
		t.Fatalf("key %q not written", redisKeyPrefix+"s1")
	}
	got, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Index != 1 || !got.Completed || len(got.Answers) != 2 ||
		got.Answers[1][0] != "A" || len(got.Answers[2]) != 2 || got.Answers[2][1] != "C" {
		t.Fatalf("state = %+v", got)
	}
}

func TestRedisStoreMissingSession(t *testing.T) {
	store, _ := newTestRedisStore(t, time.Hour)
	if _, err := store.Load(context.Background(), "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestRedisStoreSaveRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t, time.Minute)
	key := redisKeyPrefix + "s1"

	if err := store.Save(ctx, "s1", State{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := mr.TTL(key); ttl != time.Minute {
		t.Fatalf("ttl = %v, want 1m", ttl)
	}

	mr.FastForward(40 * time.Second)
	if err := store.Save(ctx, "s1", State{Index: 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := mr.TTL(key); ttl != time.Minute {
		t.Fatalf("ttl after save = %v, want 1m", ttl)
	}

	mr.FastForward(40 * time.Second)
	if _, err := store.Load(ctx, "s1"); err != nil {
		t.Fatalf("load within refreshed ttl: %v", err)
	}
	mr.FastForward(time.Minute)
	if _, err := store.Load(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound after expiry", err)
	}
}

func TestRedisStoreDelete(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t, time.Hour)

	if err := store.Save(ctx, "s1", State{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists(redisKeyPrefix + "s1") {
		t.Fatal("key still present after delete")
	}
	if _, err := store.Load(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestServiceOverRedisStore(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t, time.Hour)
	c := twoQuestionCatalog(t,
		Destination{Name: "D1", Matches: map[int][]string{1: {"A"}, 2: {"B"}}},
		Destination{Name: "D2", Matches: map[int][]string{1: {"A", "B"}, 2: {"C"}}},
	)
	svc := NewService(c, store)

	id, _, err := svc.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	steps := []func() (Snapshot, error){
		func() (Snapshot, error) { return svc.Toggle(ctx, id, 1, "A") },
		func() (Snapshot, error) { return svc.Next(ctx, id) },
		func() (Snapshot, error) { return svc.Toggle(ctx, id, 2, "C") },
	}
	for i, step := range steps {
		if _, err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	snap, err := svc.Next(ctx, id)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !snap.Completed || snap.Result == nil || snap.Result.Destination.Name != "D2" || snap.Result.Score != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if err := svc.End(ctx, id); err != nil {
		t.Fatalf("end: %v", err)
	}
	if _, err := svc.Get(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}
