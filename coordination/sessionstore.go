package coordination

// go generate: mockery --name SessionStore

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/busanbank/live-support-api/models"
)

// SessionStore is the single source of truth for consultation session state.
// Records live in redis hashes keyed by session id; an index zset scored by
// enqueue time bounds housekeeping scans.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*models.SessionState, error)
	PutNew(ctx context.Context, s *models.SessionState) error
	TransitionIf(ctx context.Context, s *models.SessionState, to models.SessionStatus, extra map[string]string) error
	Touch(ctx context.Context, sessionID string, at time.Time) error
	Purge(ctx context.Context, sessionID string) error
	IndexOlderThan(ctx context.Context, cutoff time.Time, limit int64) ([]string, error)
}

type redisSessionStore struct {
	rdb  redis.UniversalClient
	keys Keys
}

// NewSessionStore initializes a session store against the given redis client
func NewSessionStore(rdb redis.UniversalClient, keys Keys) SessionStore {
	return &redisSessionStore{rdb: rdb, keys: keys}
}

// transitionScript commits a status change only if the stored status still
// matches the expected one. A missing hash counts as NONE so brand new
// sessions go through the same gate.
var transitionScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'status')
if not cur then cur = 'NONE' end
if cur ~= ARGV[1] then return 0 end
for i = 2, #ARGV, 2 do
  redis.call('HSET', KEYS[1], ARGV[i], ARGV[i+1])
end
return 1
`)

func (s *redisSessionStore) Get(ctx context.Context, sessionID string) (*models.SessionState, error) {
	fields, err := s.rdb.HGetAll(ctx, s.keys.Session(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return decodeSession(sessionID, fields), nil
}

// putNewScript writes the session hash only when none exists yet. Two create
// requests can both pass the handler's existence check; the loser must not
// clobber a record another actor already advanced.
var putNewScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then return 0 end
for i = 1, #ARGV, 2 do
  redis.call('HSET', KEYS[1], ARGV[i], ARGV[i+1])
end
return 1
`)

// touchScript refreshes the activity timestamp of a live session without
// resurrecting a purged one
var touchScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
redis.call('HSET', KEYS[1], 'lastActivityAt', ARGV[1])
return 1
`)

func (s *redisSessionStore) PutNew(ctx context.Context, state *models.SessionState) error {
	key := s.keys.Session(state.ID)
	args := make([]interface{}, 0, 32)
	for f, v := range encodeSession(state) {
		args = append(args, f, v)
	}
	ok, err := putNewScript.Run(ctx, s.rdb, []string{key}, args...).Int()
	if err != nil {
		return err
	}
	if ok != 1 {
		return ErrConflict
	}
	at := state.EnqueuedAt
	if at == 0 {
		at = time.Now().UnixMilli()
	}
	return s.rdb.ZAdd(ctx, s.keys.SessionIndex, redis.Z{Score: float64(at), Member: state.ID}).Err()
}

func (s *redisSessionStore) Touch(ctx context.Context, sessionID string, at time.Time) error {
	return touchScript.Run(ctx, s.rdb, []string{s.keys.Session(sessionID)}, at.UnixMilli()).Err()
}

func (s *redisSessionStore) TransitionIf(ctx context.Context, state *models.SessionState, to models.SessionStatus, extra map[string]string) error {
	if !state.Status.CanTransitionTo(to, state.Channel) {
		return ErrInvalidTransition
	}

	args := []interface{}{string(state.Status), "status", string(to)}
	for f, v := range extra {
		args = append(args, f, v)
	}

	ok, err := transitionScript.Run(ctx, s.rdb, []string{s.keys.Session(state.ID)}, args...).Int()
	if err != nil {
		return err
	}
	if ok != 1 {
		return ErrConflict
	}
	state.Status = to
	return nil
}

func (s *redisSessionStore) Purge(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, s.keys.Session(sessionID)).Err(); err != nil {
		return err
	}
	return s.rdb.ZRem(ctx, s.keys.SessionIndex, sessionID).Err()
}

// IndexOlderThan lists session ids enqueued before the cutoff, bounded to
// limit entries so sweeps never scan the whole keyspace
func (s *redisSessionStore) IndexOlderThan(ctx context.Context, cutoff time.Time, limit int64) ([]string, error) {
	return s.rdb.ZRangeByScore(ctx, s.keys.SessionIndex, &redis.ZRangeBy{
		Min:   "0",
		Max:   strconv.FormatInt(cutoff.UnixMilli(), 10),
		Count: limit,
	}).Result()
}

func encodeSession(s *models.SessionState) map[string]interface{} {
	return map[string]interface{}{
		"channel":        string(s.Channel),
		"status":         string(s.Status),
		"requesterId":    s.RequesterID,
		"consultantId":   s.ConsultantID,
		"inquiryType":    s.InquiryType,
		"priorityScore":  strconv.Itoa(s.PriorityScore),
		"retryCount":     strconv.Itoa(s.RetryCount),
		"enqueuedAt":     strconv.FormatInt(s.EnqueuedAt, 10),
		"assignedAt":     strconv.FormatInt(s.AssignedAt, 10),
		"connectedAt":    strconv.FormatInt(s.ConnectedAt, 10),
		"lastActivityAt": strconv.FormatInt(s.LastActivityAt, 10),
		"endedAt":        strconv.FormatInt(s.EndedAt, 10),
		"endReason":      s.EndReason,
		"endedBy":        s.EndedBy,
		"agentMediaUid":  s.AgentMediaUID,
	}
}

func decodeSession(id string, fields map[string]string) *models.SessionState {
	return &models.SessionState{
		ID:             id,
		Channel:        models.ParseChannel(fields["channel"]),
		Status:         models.ParseStatus(fields["status"]),
		RequesterID:    fields["requesterId"],
		ConsultantID:   fields["consultantId"],
		InquiryType:    fields["inquiryType"],
		PriorityScore:  atoi(fields["priorityScore"]),
		RetryCount:     atoi(fields["retryCount"]),
		EnqueuedAt:     atoi64(fields["enqueuedAt"]),
		AssignedAt:     atoi64(fields["assignedAt"]),
		ConnectedAt:    atoi64(fields["connectedAt"]),
		LastActivityAt: atoi64(fields["lastActivityAt"]),
		EndedAt:        atoi64(fields["endedAt"]),
		EndReason:      fields["endReason"],
		EndedBy:        fields["endedBy"],
		AgentMediaUID:  fields["agentMediaUid"],
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atoi64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
