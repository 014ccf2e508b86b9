package coordination

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/busanbank/live-support-api/databases"
	"github.com/busanbank/live-support-api/models"
)

// MessageAppender is the producer half of the relay, used by the message handler
type MessageAppender interface {
	Append(ctx context.Context, msg models.ChatMessage) (string, error)
}

// MessageRelay moves chat traffic from the durable stream into the message
// table. Records are acknowledged only after a successful insert, so an
// un-acked record survives a consumer crash and is re-claimed later; a
// record that keeps failing is retried indefinitely (no dead-letter queue).
// Ordering is guaranteed per session only.
type MessageRelay struct {
	rdb      redis.UniversalClient
	keys     Keys
	consumer string
	db       databases.ChatMessageDatabase

	readCount  int64
	blockFor   time.Duration
	claimIdle  time.Duration
	claimEvery time.Duration
}

// NewMessageRelay initializes the relay with a unique consumer name so
// multiple instances can share the consumer group
func NewMessageRelay(rdb redis.UniversalClient, keys Keys, db databases.ChatMessageDatabase) *MessageRelay {
	return &MessageRelay{
		rdb:        rdb,
		keys:       keys,
		consumer:   "c-" + uuid.NewString(),
		db:         db,
		readCount:  50,
		blockFor:   2 * time.Second,
		claimIdle:  time.Minute,
		claimEvery: 30 * time.Second,
	}
}

// Append publishes one chat message to the stream. Persistence happens on
// the consumer side; the caller only learns the record id.
func (r *MessageRelay) Append(ctx context.Context, msg models.ChatMessage) (string, error) {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	id, err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.keys.Stream,
		Values: map[string]interface{}{
			"payload":   string(payload),
			"sessionId": msg.SessionID,
		},
	}).Result()
	if err != nil {
		return "", err
	}
	zap.S().Debugw("message appended to stream", "id", id, "sessionId", msg.SessionID)
	return id, nil
}

// EnsureGroup idempotently creates the stream and its consumer group;
// "already exists" counts as success
func (r *MessageRelay) EnsureGroup(ctx context.Context) error {
	err := r.rdb.XGroupCreateMkStream(ctx, r.keys.Stream, r.keys.StreamGroup, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// Run consumes the stream until the context is cancelled. Intended to be
// started as a goroutine from app initialization.
func (r *MessageRelay) Run(ctx context.Context) {
	if err := r.EnsureGroup(ctx); err != nil {
		zap.S().Errorw("failed to ensure stream group", "error", err)
	}
	zap.S().Infow("message relay consumer started",
		"stream", r.keys.Stream,
		"group", r.keys.StreamGroup,
		"consumer", r.consumer,
	)

	lastClaim := time.Now()
	for {
		select {
		case <-ctx.Done():
			zap.S().Info("message relay consumer stopped")
			return
		default:
		}

		if time.Since(lastClaim) >= r.claimEvery {
			r.claimStale(ctx)
			lastClaim = time.Now()
		}

		if err := r.readBatch(ctx); err != nil && ctx.Err() == nil {
			zap.S().Errorw("relay consume error", "error", err)
			time.Sleep(time.Second)
		}
	}
}

func (r *MessageRelay) readBatch(ctx context.Context) error {
	streams, err := r.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    r.keys.StreamGroup,
		Consumer: r.consumer,
		Streams:  []string{r.keys.Stream, ">"},
		Count:    r.readCount,
		Block:    r.blockFor,
	}).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}

	for _, stream := range streams {
		for _, record := range stream.Messages {
			r.process(ctx, record)
		}
	}
	return nil
}

// claimStale adopts pending records whose original consumer crashed before
// acknowledging them
func (r *MessageRelay) claimStale(ctx context.Context) {
	records, _, err := r.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   r.keys.Stream,
		Group:    r.keys.StreamGroup,
		Consumer: r.consumer,
		MinIdle:  r.claimIdle,
		Start:    "0-0",
		Count:    r.readCount,
	}).Result()
	if err != nil {
		if err != redis.Nil {
			zap.S().Warnw("relay auto-claim failed", "error", err)
		}
		return
	}
	for _, record := range records {
		r.process(ctx, record)
	}
}

func (r *MessageRelay) process(ctx context.Context, record redis.XMessage) {
	if err := r.handleRecord(ctx, record.Values); err != nil {
		// no ack: the record stays pending and will be retried
		zap.S().Errorw("failed to persist relayed message", "id", record.ID, "error", err)
		return
	}
	if err := r.rdb.XAck(ctx, r.keys.Stream, r.keys.StreamGroup, record.ID).Err(); err != nil {
		zap.S().Warnw("failed to ack relayed message", "id", record.ID, "error", err)
	}
}

// handleRecord decodes one stream record and persists it to the message table
func (r *MessageRelay) handleRecord(ctx context.Context, values map[string]interface{}) error {
	raw, ok := values["payload"].(string)
	if !ok || raw == "" {
		return fmt.Errorf("stream record missing payload")
	}
	var msg models.ChatMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return err
	}
	return r.db.InsertOne(ctx, msg)
}
