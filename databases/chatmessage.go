package databases

// go generate: mockery --name ChatMessageDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/busanbank/live-support-api/models"
)

const chatMessageName = "chat_messages"

// ChatMessageDatabase contains the methods to use with the chat message collection
type ChatMessageDatabase interface {
	InsertOne(ctx context.Context, msg models.ChatMessage) error
	FindBySession(ctx context.Context, sessionID string, limit int64) ([]models.ChatMessage, error)
	MarkRead(ctx context.Context, sessionID, readerType string) (int64, error)
	CountUnread(ctx context.Context, sessionID, readerType string) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type chatMessageDatabase struct {
	db DatabaseHelper
}

// NewChatMessageDatabase initializes a new instance of chat message database
// with the provided db connection
func NewChatMessageDatabase(db DatabaseHelper) ChatMessageDatabase {
	return &chatMessageDatabase{
		db: db,
	}
}

func (c *chatMessageDatabase) InsertOne(ctx context.Context, msg models.ChatMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	_, err := c.db.Collection(chatMessageName).InsertOne(ctx, msg)
	return err
}

func (c *chatMessageDatabase) FindBySession(ctx context.Context, sessionID string, limit int64) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cr, err := c.db.Collection(chatMessageName).Find(ctx, bson.M{"sessionId": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&msgs)
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkRead flags every message in the session that was not sent by the reader
func (c *chatMessageDatabase) MarkRead(ctx context.Context, sessionID, readerType string) (int64, error) {
	filter := bson.M{
		"sessionId":  sessionID,
		"read":       false,
		"senderType": bson.M{"$ne": readerType},
	}
	return c.db.Collection(chatMessageName).UpdateMany(ctx, filter, bson.M{"$set": bson.M{"read": true}})
}

func (c *chatMessageDatabase) CountUnread(ctx context.Context, sessionID, readerType string) (int64, error) {
	filter := bson.M{
		"sessionId":  sessionID,
		"read":       false,
		"senderType": bson.M{"$ne": readerType},
	}
	return c.db.Collection(chatMessageName).CountDocuments(ctx, filter)
}

func (c *chatMessageDatabase) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return c.db.Collection(chatMessageName).DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lt": cutoff}})
}
