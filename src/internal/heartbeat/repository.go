package heartbeat

import (
	"context"
	"errors"
	"time"

	"smartroll-attendance-svc/src/internal/clock"
	"smartroll-attendance-svc/src/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Append(ctx context.Context, entry Entry) (*Record, error)
	AppendBatch(ctx context.Context, entries []Entry) ([]*Record, error)
	Latest(ctx context.Context, sessionID, studentID string) (*Record, error)
	ListBySession(ctx context.Context, sessionID string) ([]*Record, error)
}

type heartbeatRepository struct {
	collection      *mongo.Collection
	clock           clock.Clock
	useTransactions bool
}

func NewHeartbeatRepository(db *mongo.Database, collectionName string, clk clock.Clock, useTransactions bool) Repository {
	return &heartbeatRepository{
		collection:      db.Collection(collectionName),
		clock:           clk,
		useTransactions: useTransactions,
	}
}

// EnsureIndexes creates the indexes backing the latest-heartbeat and
// session-log queries.
func EnsureIndexes(ctx context.Context, db *mongo.Database, collectionName string) error {
	_, err := db.Collection(collectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "student_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	return err
}

func (r *heartbeatRepository) newRecord(entry Entry) *Record {
	return &Record{
		ID:        uuid.Must(uuid.NewV7()).String(),
		SessionID: entry.SessionID,
		StudentID: entry.StudentID,
		Address:   entry.Address,
		Status:    StatusHeartbeat,
		// Mongo stores milliseconds; truncate so the returned value matches.
		Timestamp: r.clock.Now().UTC().Truncate(time.Millisecond),
	}
}

func (r *heartbeatRepository) Append(ctx context.Context, entry Entry) (*Record, error) {
	record := r.newRecord(entry)

	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"session_id": entry.SessionID,
			"student_id": entry.StudentID,
		}).Error("Failed to insert heartbeat")
		return nil, models.ErrDatabaseInsert
	}

	return record, nil
}

// AppendBatch writes all entries or none of them.
func (r *heartbeatRepository) AppendBatch(ctx context.Context, entries []Entry) ([]*Record, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	records := make([]*Record, len(entries))
	docs := make([]interface{}, len(entries))
	for i, entry := range entries {
		records[i] = r.newRecord(entry)
		docs[i] = records[i]
	}

	var err error
	if r.useTransactions {
		err = r.insertInTransaction(ctx, docs)
	} else {
		err = r.insertWithRollback(ctx, records, docs)
	}
	if err != nil {
		logrus.WithError(err).WithField("batch_size", len(entries)).Error("Failed to insert heartbeat batch")
		return nil, models.ErrDatabaseInsert
	}

	return records, nil
}

func (r *heartbeatRepository) insertInTransaction(ctx context.Context, docs []interface{}) error {
	session, err := r.collection.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return r.collection.InsertMany(sc, docs)
	})
	return err
}

// insertWithRollback is used on deployments without transaction support.
// Records already inserted are removed again when the batch fails.
func (r *heartbeatRepository) insertWithRollback(ctx context.Context, records []*Record, docs []interface{}) error {
	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err == nil {
		return nil
	}

	ids := make([]string, len(records))
	for i, record := range records {
		ids[i] = record.ID
	}
	if _, delErr := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); delErr != nil {
		logrus.WithError(delErr).WithField("batch_size", len(records)).Error("Failed to roll back partial heartbeat batch")
	}

	return err
}

func (r *heartbeatRepository) Latest(ctx context.Context, sessionID, studentID string) (*Record, error) {
	filter := bson.M{
		"session_id": sessionID,
		"student_id": studentID,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})

	var record Record
	err := r.collection.FindOne(ctx, filter, opts).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrRecordNotFound
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"session_id": sessionID,
			"student_id": studentID,
		}).Error("Failed to get latest heartbeat")
		return nil, models.ErrDatabaseQuery
	}

	record.Timestamp = record.Timestamp.UTC()
	return &record, nil
}

// ListBySession returns the full history of a session, most recent first.
func (r *heartbeatRepository) ListBySession(ctx context.Context, sessionID string) ([]*Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to list heartbeats")
		return nil, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	records := make([]*Record, 0)
	for cursor.Next(ctx) {
		var record Record
		if err := cursor.Decode(&record); err != nil {
			logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to decode heartbeat")
			return nil, models.ErrDatabaseQuery
		}
		record.Timestamp = record.Timestamp.UTC()
		records = append(records, &record)
	}

	if err := cursor.Err(); err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("Cursor error")
		return nil, models.ErrDatabaseQuery
	}

	return records, nil
}
