package coordination

// go generate: mockery --name ConsultantPool

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Consultant availability states
const (
	ConsultantReady   = "READY"
	ConsultantBusy    = "BUSY"
	ConsultantOffline = "OFFLINE"
)

// statusTTL keeps stale consultant status keys from accumulating when an
// agent app dies without reporting offline.
const statusTTL = 12 * time.Hour

// ConsultantPool tracks consultant availability and load. The ready set is
// ranked by "became ready" time so the longest-idle consultant is considered
// first; PickReady is a single server-side script so the min-load read and
// the lock acquire cannot race with another scheduler instance.
type ConsultantPool interface {
	MarkReady(ctx context.Context, consultantID string) error
	MarkBusy(ctx context.Context, consultantID string) error
	MarkOffline(ctx context.Context, consultantID string) error
	Status(ctx context.Context, consultantID string) (string, error)
	Load(ctx context.Context, consultantID string) (int64, error)
	IncrementLoad(ctx context.Context, consultantID string) error
	Release(ctx context.Context, consultantID string) error
	PickReady(ctx context.Context, candidates int, lockTTL time.Duration) (string, error)
	Lock(ctx context.Context, consultantID string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, consultantID string) error
	Ready(ctx context.Context, limit int64) ([]string, error)
}

type redisConsultantPool struct {
	rdb  redis.UniversalClient
	keys Keys
}

// NewConsultantPool initializes a consultant pool against the given redis client
func NewConsultantPool(rdb redis.UniversalClient, keys Keys) ConsultantPool {
	return &redisConsultantPool{rdb: rdb, keys: keys}
}

// pickScript samples the top candidates of the ready zset, picks the one
// with minimum load and locks it; on lock contention it falls through the
// remaining candidates. Returns the locked consultant id or nil.
var pickScript = redis.NewScript(`
local readyKey = KEYS[1]
local loadKey  = KEYS[2]
local lockPrefix = ARGV[1]
local lockTtl = tonumber(ARGV[2])
local n = tonumber(ARGV[3])

local candidates = redis.call('ZRANGE', readyKey, 0, n - 1)
if (#candidates == 0) then
  return nil
end

local bestId = nil
local bestLoad = nil
for i = 1, #candidates do
  local id = candidates[i]
  local load = redis.call('ZSCORE', loadKey, id)
  if (load == false or load == nil) then
    load = 0
  else
    load = tonumber(load)
  end
  if (bestLoad == nil or load < bestLoad) then
    bestLoad = load
    bestId = id
  end
end

local function tryLock(id)
  local ok = redis.call('SET', lockPrefix .. id, '1', 'NX', 'PX', lockTtl)
  if ok then
    return id
  end
  return nil
end

local locked = tryLock(bestId)
if locked then
  return locked
end

for i = 1, #candidates do
  local id = candidates[i]
  if id ~= bestId then
    local locked2 = tryLock(id)
    if locked2 then
      return locked2
    end
  end
end

return nil
`)

// decLoadScript decrements a consultant's load without letting it go negative
var decLoadScript = redis.NewScript(`
local cur = redis.call('ZSCORE', KEYS[1], ARGV[1])
if (cur ~= false and tonumber(cur) > 0) then
  redis.call('ZINCRBY', KEYS[1], -1, ARGV[1])
end
return 1
`)

func (p *redisConsultantPool) MarkReady(ctx context.Context, consultantID string) error {
	now := time.Now().UnixMilli()
	if err := p.rdb.ZAdd(ctx, p.keys.ConsultantReady, redis.Z{Score: float64(now), Member: consultantID}).Err(); err != nil {
		return err
	}
	if err := p.rdb.Set(ctx, p.keys.ConsultantStatus(consultantID), ConsultantReady, statusTTL).Err(); err != nil {
		return err
	}
	// initialize load to 0 only when absent, an active load must survive re-ready
	return p.rdb.ZAddNX(ctx, p.keys.ConsultantLoad, redis.Z{Score: 0, Member: consultantID}).Err()
}

func (p *redisConsultantPool) MarkBusy(ctx context.Context, consultantID string) error {
	if err := p.rdb.ZRem(ctx, p.keys.ConsultantReady, consultantID).Err(); err != nil {
		return err
	}
	return p.rdb.Set(ctx, p.keys.ConsultantStatus(consultantID), ConsultantBusy, statusTTL).Err()
}

func (p *redisConsultantPool) MarkOffline(ctx context.Context, consultantID string) error {
	if err := p.rdb.ZRem(ctx, p.keys.ConsultantReady, consultantID).Err(); err != nil {
		return err
	}
	return p.rdb.Set(ctx, p.keys.ConsultantStatus(consultantID), ConsultantOffline, statusTTL).Err()
}

func (p *redisConsultantPool) Status(ctx context.Context, consultantID string) (string, error) {
	st, err := p.rdb.Get(ctx, p.keys.ConsultantStatus(consultantID)).Result()
	if err == redis.Nil {
		return ConsultantOffline, nil
	}
	return st, err
}

func (p *redisConsultantPool) Load(ctx context.Context, consultantID string) (int64, error) {
	score, err := p.rdb.ZScore(ctx, p.keys.ConsultantLoad, consultantID).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int64(score), nil
}

func (p *redisConsultantPool) IncrementLoad(ctx context.Context, consultantID string) error {
	return p.rdb.ZIncrBy(ctx, p.keys.ConsultantLoad, 1, consultantID).Err()
}

// Release puts a consultant back in rotation after an assignment finishes or
// is recovered: status READY, load decremented once (never below zero) and
// re-ranked in the ready set as of now.
func (p *redisConsultantPool) Release(ctx context.Context, consultantID string) error {
	if err := decLoadScript.Run(ctx, p.rdb, []string{p.keys.ConsultantLoad}, consultantID).Err(); err != nil {
		return err
	}
	return p.MarkReady(ctx, consultantID)
}

func (p *redisConsultantPool) PickReady(ctx context.Context, candidates int, lockTTL time.Duration) (string, error) {
	if candidates <= 0 {
		candidates = 5
	}
	id, err := pickScript.Run(ctx, p.rdb,
		[]string{p.keys.ConsultantReady, p.keys.ConsultantLoad},
		p.keys.ConsultantLockPref,
		lockTTL.Milliseconds(),
		candidates,
	).Text()
	if err == redis.Nil {
		return "", ErrNoConsultant
	}
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", ErrNoConsultant
	}
	return id, nil
}

// Lock attempts the create-if-absent exclusivity marker used to serialize
// access to a consultant during assignment
func (p *redisConsultantPool) Lock(ctx context.Context, consultantID string, ttl time.Duration) (bool, error) {
	return p.rdb.SetNX(ctx, p.keys.ConsultantLock(consultantID), "1", ttl).Result()
}

func (p *redisConsultantPool) Unlock(ctx context.Context, consultantID string) error {
	return p.rdb.Del(ctx, p.keys.ConsultantLock(consultantID)).Err()
}

func (p *redisConsultantPool) Ready(ctx context.Context, limit int64) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}
	return p.rdb.ZRange(ctx, p.keys.ConsultantReady, 0, limit-1).Result()
}
