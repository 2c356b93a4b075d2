//go:build integration

package redis

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/avzcrypto/pharos-stats/internal/domain/entity"
)

// setupRedis starts a Redis container and returns connected adapters sharing
// one client.
func setupRedis(t *testing.T, ttl time.Duration) (*StatsCache, *PopulationStore, func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	cfg := Config{
		Addr:      fmt.Sprintf("%s:%s", host, port.Port()),
		TTL:       ttl,
		LockTTL:   5 * time.Second,
		KeyPrefix: "test",
	}

	client, err := Open(cfg)
	if err != nil {
		t.Fatalf("failed to open client: %v", err)
	}
	cache, err := NewStatsCache(client, cfg, nil, nil)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	store, err := NewPopulationStore(client, cfg, nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	// Wait for connection
	for i := 0; i < 30; i++ {
		if err := cache.Ping(ctx); err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	cleanup := func() {
		cache.Close()
		container.Terminate(ctx)
	}
	return cache, store, cleanup
}

func TestIntegration_Ping(t *testing.T) {
	cache, _, cleanup := setupRedis(t, time.Hour)
	defer cleanup()

	if err := cache.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestIntegration_UserStatsRoundTrip(t *testing.T) {
	cache, _, cleanup := setupRedis(t, time.Hour)
	defer cleanup()
	ctx := context.Background()

	if err := cache.SetUserStats(ctx, testAddr, testStats()); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := cache.GetUserStats(ctx, testAddr)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil || got.TotalPoints != 1500 {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestIntegration_TTLExpiration(t *testing.T) {
	cache, _, cleanup := setupRedis(t, 1*time.Second)
	defer cleanup()
	ctx := context.Background()

	if err := cache.SetUserStats(ctx, testAddr, testStats()); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	time.Sleep(2 * time.Second)

	got, err := cache.GetUserStats(ctx, testAddr)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected record expired, got %+v", got)
	}
}

func TestIntegration_ConcurrentWritersSingleAddress(t *testing.T) {
	cache, _, cleanup := setupRedis(t, time.Hour)
	defer cleanup()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			record := testStats()
			record.TotalPoints = int64(1000 + n)
			if err := cache.SetUserStats(ctx, testAddr, record); err != nil {
				t.Errorf("writer %d failed: %v", n, err)
			}
		}(i)
	}
	wg.Wait()

	// At least one writer won; losers skipped without error.
	got, err := cache.GetUserStats(ctx, testAddr)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a cached record after concurrent writes")
	}

	// No writer may leave the address locked.
	time.Sleep(100 * time.Millisecond)
	record := testStats()
	if err := cache.SetUserStats(ctx, testAddr, record); err != nil {
		t.Fatalf("follow-up write failed: %v", err)
	}
}

func TestIntegration_PopulationRankAndMerge(t *testing.T) {
	_, store, cleanup := setupRedis(t, time.Hour)
	defer cleanup()
	ctx := context.Background()

	addrs := map[string]int64{
		"0x1111111111111111111111111111111111111111": 25000,
		"0x2222222222222222222222222222222222222222": 5000,
		"0x3333333333333333333333333333333333333333": 500,
	}
	for addr, points := range addrs {
		if _, err := store.SaveUserStats(ctx, &entity.UserStats{
			Success:     true,
			Address:     addr,
			TotalPoints: points,
			TotalChecks: 1,
		}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	rank, err := store.ExactRank(ctx, 5000)
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}
	if rank != 2 {
		t.Errorf("expected rank 2, got %d", rank)
	}

	merged, err := store.SaveUserStats(ctx, &entity.UserStats{
		Success:     true,
		Address:     "0x2222222222222222222222222222222222222222",
		TotalPoints: 30000,
		TotalChecks: 1,
	})
	if err != nil {
		t.Fatalf("re-save failed: %v", err)
	}
	if merged.TotalChecks != 2 {
		t.Errorf("expected total_checks=2 after re-fetch, got %d", merged.TotalChecks)
	}

	rank, err = store.ExactRank(ctx, 30000)
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}
	if rank != 1 {
		t.Errorf("expected rank 1 after score update, got %d", rank)
	}

	total, err := store.TotalUsers(ctx)
	if err != nil {
		t.Fatalf("total users failed: %v", err)
	}
	if total != 3 {
		t.Errorf("expected 3 users, got %d", total)
	}
}
