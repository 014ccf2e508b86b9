package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sender types for chat messages
const (
	SenderUser       = "USER"
	SenderConsultant = "CONSULTANT"
	SenderSystem     = "SYSTEM"
)

// ChatMessage holds the structure for the chat_messages collection in mongo.
// Rows are append-only; persistence is owned by the message relay consumer,
// not by the transport layer.
type ChatMessage struct {
	ID         primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	SessionID  string             `json:"sessionId" bson:"sessionId"`
	SenderType string             `json:"senderType" bson:"senderType"`
	SenderID   string             `json:"senderId" bson:"senderId"`
	Text       string             `json:"text" bson:"text"`
	Read       bool               `json:"read" bson:"read"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
}

// SessionArchive holds the structure for the session_archive collection in
// mongo. One row is written when a session reaches a terminal state; the
// retention sweep purges it together with the session's messages.
type SessionArchive struct {
	ID            primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	SessionID     string             `json:"sessionId" bson:"sessionId"`
	Channel       string             `json:"channel" bson:"channel"`
	Status        string             `json:"status" bson:"status"`
	RequesterID   string             `json:"requesterId" bson:"requesterId"`
	ConsultantID  string             `json:"consultantId,omitempty" bson:"consultantId,omitempty"`
	InquiryType   string             `json:"inquiryType" bson:"inquiryType"`
	PriorityScore int                `json:"priorityScore" bson:"priorityScore"`
	RetryCount    int                `json:"retryCount" bson:"retryCount"`
	EndReason     string             `json:"endReason,omitempty" bson:"endReason,omitempty"`
	EndedBy       string             `json:"endedBy,omitempty" bson:"endedBy,omitempty"`
	EnqueuedAt    time.Time          `json:"enqueuedAt" bson:"enqueuedAt"`
	EndedAt       time.Time          `json:"endedAt" bson:"endedAt"`
	ArchivedAt    time.Time          `json:"archivedAt" bson:"archivedAt"`
}
