package queue

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Locker hands out short-lived named locks backed by SET NX PX.
type Locker struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewLocker(rdb *redis.Client, prefix string, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Locker{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (l *Locker) key(name string) string {
	return fmt.Sprintf("%s:%s", l.prefix, name)
}

// TryLock tries once to take the lock called name. When acquired is false
// somebody else holds it. The returned unlock is never nil.
func (l *Locker) TryLock(ctx context.Context, name string) (unlock func(context.Context), acquired bool, err error) {
	key := l.key(name)
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return func(context.Context) {}, false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return func(context.Context) {}, false, nil
	}

	unlock = func(ctx context.Context) {
		deleted, err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Int64()
		if err != nil {
			log.Printf("ERROR: Failed to release lock %s: %v", key, err)
			return
		}
		if deleted == 0 {
			log.Printf("WARN: Lock %s expired before release", key)
		}
	}
	return unlock, true, nil
}
