package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestCacheHelperRoundTrip(t *testing.T) {
	_, client := newTestCache(t)
	helper := NewCacheHelper(client, "question:")
	ctx := context.Background()

	type payload struct {
		ID   uint   `json:"id"`
		Text string `json:"text"`
	}

	if err := helper.Set(ctx, "id:1", payload{ID: 1, Text: "Why this school?"}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got payload
	if err := helper.Get(ctx, "id:1", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != 1 || got.Text != "Why this school?" {
		t.Errorf("Get() = %+v, want stored payload", got)
	}

	exists, err := helper.Exists(ctx, "id:1")
	if err != nil || !exists {
		t.Errorf("Exists() = %v, %v, want true", exists, err)
	}
}

func TestCacheHelperMiss(t *testing.T) {
	_, client := newTestCache(t)
	helper := NewCacheHelper(client, "question:")

	var got struct{}
	if err := helper.Get(context.Background(), "id:404", &got); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("Get() error = %v, want ErrCacheNotFound", err)
	}
}

func TestCacheHelperNilClient(t *testing.T) {
	helper := NewCacheHelper(nil, "question:")
	ctx := context.Background()

	if err := helper.Set(ctx, "id:1", "x", time.Minute); err != nil {
		t.Errorf("Set() with nil client error = %v, want graceful no-op", err)
	}
	var got string
	if err := helper.Get(ctx, "id:1", &got); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("Get() with nil client error = %v, want ErrCacheNotAvailable", err)
	}
	if err := helper.Delete(ctx, "id:1"); err != nil {
		t.Errorf("Delete() with nil client error = %v, want graceful no-op", err)
	}
}

func TestCacheHelperDelete(t *testing.T) {
	mr, client := newTestCache(t)
	helper := NewCacheHelper(client, "video:")
	ctx := context.Background()

	for _, key := range []string{"id:1", "id:2", "id:3"} {
		if err := helper.Set(ctx, key, key, time.Minute); err != nil {
			t.Fatalf("Set(%s) error = %v", key, err)
		}
	}

	if err := helper.Delete(ctx, "id:1", "id:2"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if mr.Exists("video:id:1") || mr.Exists("video:id:2") {
		t.Error("deleted keys still present")
	}
	if !mr.Exists("video:id:3") {
		t.Error("untouched key was removed")
	}
}

func TestInvalidatePattern(t *testing.T) {
	mr, client := newTestCache(t)
	helper := NewCacheHelper(client, "question:")
	ctx := context.Background()

	seed := map[string]string{
		"school:1:list":   "a",
		"school:1:active": "b",
		"school:2:list":   "c",
	}
	for key, value := range seed {
		if err := helper.Set(ctx, key, value, time.Minute); err != nil {
			t.Fatalf("Set(%s) error = %v", key, err)
		}
	}

	if err := helper.InvalidatePattern(ctx, "school:1:*"); err != nil {
		t.Fatalf("InvalidatePattern() error = %v", err)
	}
	if mr.Exists("question:school:1:list") || mr.Exists("question:school:1:active") {
		t.Error("matching keys survived invalidation")
	}
	if !mr.Exists("question:school:2:list") {
		t.Error("non-matching key was removed")
	}
}

func TestCacheOrExecute(t *testing.T) {
	_, client := newTestCache(t)
	helper := NewCacheHelper(client, "fast:")
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return map[string]int{"count": 7}, nil
	}

	var first map[string]int
	if err := helper.CacheOrExecute(ctx, "stats", &first, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute() error = %v", err)
	}
	if calls != 1 || first["count"] != 7 {
		t.Fatalf("first call = %d fetches, %v", calls, first)
	}

	// The write-behind goroutine fills the cache shortly after
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if ok, _ := helper.Exists(ctx, "stats"); ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	var second map[string]int
	if err := helper.CacheOrExecute(ctx, "stats", &second, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute() second error = %v", err)
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want cached second read", calls)
	}
	if second["count"] != 7 {
		t.Errorf("second read = %v, want cached value", second)
	}
}

func TestInvalidateQuestionCache(t *testing.T) {
	mr, client := newTestCache(t)
	cm := NewCacheManager(client)
	ctx := context.Background()

	keys := map[string]string{
		"id:5":            "question",
		"school:3:active": "listing",
		"list:page:1":     "page",
	}
	for key, value := range keys {
		if err := cm.Question.Set(ctx, key, value, time.Minute); err != nil {
			t.Fatalf("Set(%s) error = %v", key, err)
		}
	}

	InvalidateQuestionCache(ctx, cm, 5, 3)

	for key := range keys {
		if mr.Exists("question:" + key) {
			t.Errorf("key %q survived invalidation", key)
		}
	}
}
