package tablelock

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLeaseTTL = 10 * time.Second
	retryInterval   = 25 * time.Millisecond
	keyPrefix       = "tableside:lock:table:"
)

// releaseScript deletes the key only if it still carries our token, so an
// expired lease re-acquired by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript pushes the lease out only while we still hold it.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Redis is a Locker shared by every API instance pointing at the same
// Redis. A lease expires after ttl if its holder dies; while the holder
// lives the lease is renewed every ttl/3, so work may outlast ttl.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis locker. A zero ttl uses the default lease.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	return &Redis{client: client, ttl: ttl}
}

func lockKey(tableID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, tableID)
}

// Lock implements Locker.
func (r *Redis) Lock(ctx context.Context, tableID int64) (func(), error) {
	key := lockKey(tableID)
	token := uuid.NewString()

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()
	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire table lock %d: %w", tableID, err)
		}
		if ok {
			break
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go r.keepAlive(tableID, key, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			// Release even if the request context is already cancelled.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, r.client, []string{key}, token).Err(); err != nil {
				log.Printf("WARN: release table lock %d: %v", tableID, err)
			}
		})
	}, nil
}

// keepAlive renews the lease until stop is closed or the lease is lost.
func (r *Redis) keepAlive(tableID int64, key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), r.ttl/3)
		n, err := renewScript.Run(ctx, r.client, []string{key}, token, r.ttl.Milliseconds()).Int()
		cancel()
		switch {
		case err != nil:
			log.Printf("WARN: renew table lock %d: %v", tableID, err)
		case n == 0:
			log.Printf("WARN: table lock %d lease lost", tableID)
			return
		}
	}
}
