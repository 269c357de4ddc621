package student

import (
	"context"
	"errors"
	"strings"

	"smartroll-attendance-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type Repository interface {
	GetByAddress(ctx context.Context, address string) (*Student, error)
	GetByEmail(ctx context.Context, email string) (*Student, error)
}

type studentRepository struct {
	collection *mongo.Collection
}

func NewStudentRepository(db *mongo.Database, collectionName string) Repository {
	return &studentRepository{collection: db.Collection(collectionName)}
}

// GetByAddress looks a student up by device address. Stored addresses are
// uppercase, so the argument is normalized before the query.
func (r *studentRepository) GetByAddress(ctx context.Context, address string) (*Student, error) {
	return r.findOne(ctx, bson.M{"mac_address": NormalizeAddress(address)}, "mac_address", address)
}

func (r *studentRepository) GetByEmail(ctx context.Context, email string) (*Student, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.findOne(ctx, bson.M{"email": email}, "email", email)
}

func (r *studentRepository) findOne(ctx context.Context, filter bson.M, field, value string) (*Student, error) {
	var student Student
	err := r.collection.FindOne(ctx, filter).Decode(&student)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrStudentNotFound
		}
		logrus.WithError(err).WithField(field, value).Error("Failed to get student")
		return nil, models.ErrDatabaseQuery
	}
	return &student, nil
}
