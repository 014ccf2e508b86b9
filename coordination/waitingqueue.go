package coordination

// go generate: mockery --name WaitingQueue

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/busanbank/live-support-api/models"
)

// priorityFactor is how far (in milliseconds) one priority point pulls a
// session's arrival time forward in the queue ordering.
const priorityFactor = 1_000_000

// RankScore collapses priority and arrival time into the queue ordering
// score; lower dequeues first, so higher-priority requesters are served as
// if they arrived earlier.
func RankScore(priorityScore int, at time.Time) float64 {
	return float64(at.UnixMilli()) - float64(priorityScore)*priorityFactor
}

// WaitingQueue is the per-inquiry-type priority structure of pending sessions.
// ClaimNext stages the popped entry in an assigning zset so a claimed session
// is never lost between the pop and the downstream commit.
type WaitingQueue interface {
	Enqueue(ctx context.Context, inquiryType, sessionID string, score float64) error
	ClaimNext(ctx context.Context, inquiryType string) (*models.WaitingEntry, error)
	AckClaim(ctx context.Context, sessionID string) error
	ReleaseClaim(ctx context.Context, inquiryType, sessionID string, score float64) error
	RemoveEverywhere(ctx context.Context, inquiryType, sessionID string) error
	Waiting(ctx context.Context, inquiryType string, limit int64) ([]models.WaitingEntry, error)
}

type redisWaitingQueue struct {
	rdb  redis.UniversalClient
	keys Keys
}

// NewWaitingQueue initializes a waiting queue against the given redis client
func NewWaitingQueue(rdb redis.UniversalClient, keys Keys) WaitingQueue {
	return &redisWaitingQueue{rdb: rdb, keys: keys}
}

// claimScript pops the minimum-score entry and moves it to the assigning
// zset in one step, so exactly one caller receives a given entry and a
// crashed caller leaves it recoverable.
var claimScript = redis.NewScript(`
local r = redis.call('ZPOPMIN', KEYS[1], 1)
if (r == nil or #r == 0) then return nil end
redis.call('ZADD', KEYS[2], r[2], r[1])
return {r[1], r[2]}
`)

func (q *redisWaitingQueue) Enqueue(ctx context.Context, inquiryType, sessionID string, score float64) error {
	return q.rdb.ZAdd(ctx, q.keys.Waiting(inquiryType), redis.Z{Score: score, Member: sessionID}).Err()
}

func (q *redisWaitingQueue) ClaimNext(ctx context.Context, inquiryType string) (*models.WaitingEntry, error) {
	res, err := claimScript.Run(ctx, q.rdb,
		[]string{q.keys.Waiting(inquiryType), q.keys.Assigning}).Slice()
	if err == redis.Nil || (err == nil && len(res) < 2) {
		return nil, ErrQueueEmpty
	}
	if err != nil {
		return nil, err
	}

	member, _ := res[0].(string)
	score := parseScore(res[1])
	return &models.WaitingEntry{SessionID: member, RankScore: score}, nil
}

func (q *redisWaitingQueue) AckClaim(ctx context.Context, sessionID string) error {
	return q.rdb.ZRem(ctx, q.keys.Assigning, sessionID).Err()
}

// ReleaseClaim restores the entry at its original score, preserving fairness
// when a downstream step of assignment fails
func (q *redisWaitingQueue) ReleaseClaim(ctx context.Context, inquiryType, sessionID string, score float64) error {
	if err := q.rdb.ZRem(ctx, q.keys.Assigning, sessionID).Err(); err != nil {
		return err
	}
	return q.rdb.ZAdd(ctx, q.keys.Waiting(inquiryType), redis.Z{Score: score, Member: sessionID}).Err()
}

func (q *redisWaitingQueue) RemoveEverywhere(ctx context.Context, inquiryType, sessionID string) error {
	if err := q.rdb.ZRem(ctx, q.keys.Waiting(inquiryType), sessionID).Err(); err != nil {
		return err
	}
	return q.rdb.ZRem(ctx, q.keys.Assigning, sessionID).Err()
}

func (q *redisWaitingQueue) Waiting(ctx context.Context, inquiryType string, limit int64) ([]models.WaitingEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	zs, err := q.rdb.ZRangeWithScores(ctx, q.keys.Waiting(inquiryType), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]models.WaitingEntry, 0, len(zs))
	for _, z := range zs {
		id, _ := z.Member.(string)
		entries = append(entries, models.WaitingEntry{SessionID: id, RankScore: z.Score})
	}
	return entries, nil
}

func parseScore(v interface{}) float64 {
	switch s := v.(type) {
	case float64:
		return s
	case string:
		f, _ := strconv.ParseFloat(s, 64)
		return f
	case int64:
		return float64(s)
	default:
		return 0
	}
}
