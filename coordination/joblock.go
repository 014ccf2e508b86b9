package coordination

// go generate: mockery --name JobLock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// JobLock serializes background jobs across instances: only the instance
// holding the lock runs the job, everyone else skips the cycle. The TTL
// bounds how long a crashed holder can block the job.
type JobLock interface {
	TryAcquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name, owner string) error
}

type redisJobLock struct {
	rdb  redis.UniversalClient
	keys Keys
}

// NewJobLock initializes a job lock against the given redis client
func NewJobLock(rdb redis.UniversalClient, keys Keys) JobLock {
	return &redisJobLock{rdb: rdb, keys: keys}
}

// releaseScript deletes the lock only when still held by the releasing owner
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

func (l *redisJobLock) TryAcquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, l.keys.JobLock(name), owner, ttl).Result()
}

func (l *redisJobLock) Release(ctx context.Context, name, owner string) error {
	return releaseScript.Run(ctx, l.rdb, []string{l.keys.JobLock(name)}, owner).Err()
}
