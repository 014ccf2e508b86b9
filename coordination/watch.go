package coordination

// go generate: mockery --name AssignedWatch

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// AssignedWatch records sessions currently in ASSIGNED, scored by the time
// of assignment. The watchdog queries a bounded score range instead of
// scanning all sessions.
type AssignedWatch interface {
	Add(ctx context.Context, sessionID string, assignedAt time.Time) error
	Remove(ctx context.Context, sessionID string) error
	Expired(ctx context.Context, olderThan time.Time, limit int64) ([]string, error)
}

type redisAssignedWatch struct {
	rdb  redis.UniversalClient
	keys Keys
}

// NewAssignedWatch initializes the assigned watch set against the given redis client
func NewAssignedWatch(rdb redis.UniversalClient, keys Keys) AssignedWatch {
	return &redisAssignedWatch{rdb: rdb, keys: keys}
}

func (w *redisAssignedWatch) Add(ctx context.Context, sessionID string, assignedAt time.Time) error {
	return w.rdb.ZAdd(ctx, w.keys.AssignedWatch, redis.Z{
		Score:  float64(assignedAt.UnixMilli()),
		Member: sessionID,
	}).Err()
}

func (w *redisAssignedWatch) Remove(ctx context.Context, sessionID string) error {
	return w.rdb.ZRem(ctx, w.keys.AssignedWatch, sessionID).Err()
}

func (w *redisAssignedWatch) Expired(ctx context.Context, olderThan time.Time, limit int64) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	return w.rdb.ZRangeByScore(ctx, w.keys.AssignedWatch, &redis.ZRangeBy{
		Min:   "0",
		Max:   strconv.FormatInt(olderThan.UnixMilli(), 10),
		Count: limit,
	}).Result()
}
