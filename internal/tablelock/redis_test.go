//go:build integration

package tablelock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	addr, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("redis endpoint: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}
	return client
}

func TestRedis(t *testing.T) {
	client := setupRedis(t)

	t.Run("serializes same table", func(t *testing.T) {
		a, b := NewRedis(client, time.Second), NewRedis(client, time.Second)
		ctx := context.Background()

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			inside  int
			maxSeen int
		)
		for i := 0; i < 10; i++ {
			l := Locker(a)
			if i%2 == 1 {
				l = b
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := l.Lock(ctx, 11)
				if err != nil {
					t.Errorf("lock: %v", err)
					return
				}
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()
				time.Sleep(5 * time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				unlock()
			}()
		}
		wg.Wait()
		if maxSeen != 1 {
			t.Errorf("max holders = %d, want 1", maxSeen)
		}
	})

	t.Run("waits until ctx is done", func(t *testing.T) {
		l := NewRedis(client, time.Second)
		unlock, err := l.Lock(context.Background(), 12)
		if err != nil {
			t.Fatalf("lock: %v", err)
		}
		defer unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		if _, err := l.Lock(ctx, 12); !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected DeadlineExceeded, got %v", err)
		}
	})

	t.Run("different tables do not block", func(t *testing.T) {
		l := NewRedis(client, time.Second)
		release, err := LockAll(context.Background(), l, 14, 13, 14)
		if err != nil {
			t.Fatalf("lock all: %v", err)
		}
		defer release()
		for _, key := range []string{lockKey(13), lockKey(14)} {
			if n, _ := client.Exists(context.Background(), key).Result(); n != 1 {
				t.Errorf("%s not held", key)
			}
		}
	})

	t.Run("unlock is idempotent", func(t *testing.T) {
		l := NewRedis(client, time.Second)
		unlock, err := l.Lock(context.Background(), 15)
		if err != nil {
			t.Fatalf("lock: %v", err)
		}
		unlock()
		unlock()
		if n, _ := client.Exists(context.Background(), lockKey(15)).Result(); n != 0 {
			t.Error("key still present after unlock")
		}
	})

	t.Run("release keeps a lease someone else took", func(t *testing.T) {
		l := NewRedis(client, time.Second)
		ctx := context.Background()
		unlock, err := l.Lock(ctx, 16)
		if err != nil {
			t.Fatalf("lock: %v", err)
		}
		// Our lease expired and another instance holds the table now.
		if err := client.Set(ctx, lockKey(16), "other-holder", time.Minute).Err(); err != nil {
			t.Fatalf("set: %v", err)
		}
		unlock()

		got, err := client.Get(ctx, lockKey(16)).Result()
		if err != nil || got != "other-holder" {
			t.Errorf("key = %q, %v; want other-holder kept", got, err)
		}
		client.Del(ctx, lockKey(16))
	})

	t.Run("lease is renewed while held", func(t *testing.T) {
		l := NewRedis(client, 300*time.Millisecond)
		unlock, err := l.Lock(context.Background(), 17)
		if err != nil {
			t.Fatalf("lock: %v", err)
		}
		time.Sleep(time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		if _, err := l.Lock(ctx, 17); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("lock taken while the holder was alive: %v", err)
		}
		unlock()

		if _, err := l.Lock(context.Background(), 17); err != nil {
			t.Errorf("lock after release: %v", err)
		}
	})
}
