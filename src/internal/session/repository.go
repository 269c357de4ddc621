package session

import (
	"context"
	"errors"

	"smartroll-attendance-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type repository struct {
	collection *mongo.Collection
}

type Repository interface {
	GetByID(ctx context.Context, sessionID string) (*Session, error)
}

func NewSessionRepository(db *mongo.Database, collectionName string) Repository {
	return &repository{collection: db.Collection(collectionName)}
}

func (r *repository) GetByID(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	filter := bson.M{"_id": sessionID}

	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrSessionNotFound
		}
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to get session")
		return nil, models.ErrDatabaseQuery
	}

	session.StartTime = session.StartTime.UTC()
	if session.EndTime != nil {
		end := session.EndTime.UTC()
		session.EndTime = &end
	}

	if err := session.Validate(); err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("Stored session is invalid")
		return nil, models.ErrDatabaseQuery
	}

	return &session, nil
}
