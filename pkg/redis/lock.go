package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// compare-and-delete so an expired holder cannot release someone else's lock
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a single-key run lock shared by every service instance using the
// same Redis. The TTL bounds how long a crashed holder blocks others.
type Lock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewLock(client *redis.Client, key string, ttl time.Duration) *Lock {
	return &Lock{client: client, key: key, ttl: ttl}
}

func (l *Lock) TryLock(ctx context.Context) (bool, func(), error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return false, nil, fmt.Errorf("redis lock %s: %w", l.key, err)
	}
	if !ok {
		return false, nil, nil
	}

	return true, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
			logrus.WithError(err).WithField("key", l.key).Warn("Failed to release redis lock")
		}
	}, nil
}
