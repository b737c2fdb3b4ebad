//go:build integration

package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"
)

// setupRedisContainer starts a Redis container for testing.
func setupRedisContainer(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	redisContainer, err := redis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	endpoint, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}

	// Strip "redis://" prefix if present
	addr := endpoint
	if len(endpoint) > 8 && endpoint[:8] == "redis://" {
		addr = endpoint[8:]
	}

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return addr
}

func TestRedisStore_New(t *testing.T) {
	addr := setupRedisContainer(t)

	store, err := NewRedisStore(addr, "", 0, time.Minute)
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	defer store.Close()

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestRedisStore_New_Invalid(t *testing.T) {
	if _, err := NewRedisStore("", "", 0, time.Minute); err == nil {
		t.Error("NewRedisStore() with empty addr should fail")
	}
	if _, err := NewRedisStore("localhost:6379", "", -1, time.Minute); err == nil {
		t.Error("NewRedisStore() with negative db should fail")
	}
}

func TestRedisStore_PutGet(t *testing.T) {
	addr := setupRedisContainer(t)

	store, err := NewRedisStore(addr, "", 0, time.Minute)
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	want := testSummary("checkout-api")

	if err := store.Put(ctx, want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, found, err := store.GetLatest(ctx, "checkout-api")
	if err != nil {
		t.Fatalf("GetLatest() error = %v", err)
	}
	if !found {
		t.Fatal("GetLatest() found = false, want true")
	}
	if got.Series != want.Series || got.Count != want.Count || got.Mean != want.Mean {
		t.Errorf("GetLatest() = %+v, want %+v", got, want)
	}
	if got.Quantiles["p99"] != want.Quantiles["p99"] {
		t.Errorf("Quantiles[p99] = %d, want %d", got.Quantiles["p99"], want.Quantiles["p99"])
	}
}

func TestRedisStore_Put_InvalidSeries(t *testing.T) {
	addr := setupRedisContainer(t)

	store, err := NewRedisStore(addr, "", 0, time.Minute)
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	for _, series := range []string{"", "bad series", "bad/series", "bad:series"} {
		s := testSummary("x")
		s.Series = series
		if err := store.Put(ctx, s); err == nil {
			t.Errorf("Put() with series %q should fail", series)
		}
	}
}

func TestRedisStore_GetLatest_NotFound(t *testing.T) {
	addr := setupRedisContainer(t)

	store, err := NewRedisStore(addr, "", 0, time.Minute)
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	defer store.Close()

	_, found, err := store.GetLatest(context.Background(), "missing")
	if err != nil {
		t.Errorf("GetLatest() error = %v, want nil for missing key", err)
	}
	if found {
		t.Error("GetLatest() found = true for missing series")
	}
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	addr := setupRedisContainer(t)

	store, err := NewRedisStore(addr, "", 0, time.Second)
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Put(ctx, testSummary("ephemeral")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_, found, err := store.GetLatest(ctx, "ephemeral")
		if err != nil {
			t.Fatalf("GetLatest() error = %v", err)
		}
		if !found {
			return // expired as expected
		}
		time.Sleep(200 * time.Millisecond)
	}
	t.Error("summary did not expire within TTL window")
}

func TestRedisStore_ConcurrentPut(t *testing.T) {
	addr := setupRedisContainer(t)

	store, err := NewRedisStore(addr, "", 0, time.Minute)
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				s := testSummary(fmt.Sprintf("series-%d", n))
				s.Count = uint64(j)
				if err := store.Put(ctx, s); err != nil {
					t.Errorf("Put() error = %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		_, found, err := store.GetLatest(ctx, fmt.Sprintf("series-%d", i))
		if err != nil || !found {
			t.Errorf("series-%d: found %v, err %v", i, found, err)
		}
	}
}

func TestRedisStore_Close_Idempotent(t *testing.T) {
	addr := setupRedisContainer(t)

	store, err := NewRedisStore(addr, "", 0, time.Minute)
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}

	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
