package databases

// go generate: mockery --name SessionArchiveDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/busanbank/live-support-api/models"
)

const sessionArchiveName = "session_archive"

// SessionArchiveDatabase contains the methods to use with the session archive collection
type SessionArchiveDatabase interface {
	InsertOne(ctx context.Context, archive models.SessionArchive) error
	FindBySession(ctx context.Context, sessionID string) (*models.SessionArchive, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type sessionArchiveDatabase struct {
	db DatabaseHelper
}

// NewSessionArchiveDatabase initializes a new instance of session archive
// database with the provided db connection
func NewSessionArchiveDatabase(db DatabaseHelper) SessionArchiveDatabase {
	return &sessionArchiveDatabase{
		db: db,
	}
}

func (s *sessionArchiveDatabase) InsertOne(ctx context.Context, archive models.SessionArchive) error {
	if archive.ArchivedAt.IsZero() {
		archive.ArchivedAt = time.Now().UTC()
	}
	_, err := s.db.Collection(sessionArchiveName).InsertOne(ctx, archive)
	return err
}

func (s *sessionArchiveDatabase) FindBySession(ctx context.Context, sessionID string) (*models.SessionArchive, error) {
	archive := &models.SessionArchive{}
	err := s.db.Collection(sessionArchiveName).FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(archive)
	if err != nil {
		return nil, err
	}
	return archive, nil
}

func (s *sessionArchiveDatabase) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.db.Collection(sessionArchiveName).DeleteMany(ctx, bson.M{"endedAt": bson.M{"$lt": cutoff}})
}
