package subnet

import (
	"context"

	"smartroll-attendance-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ApprovedSubnet struct {
	Prefix      string `bson:"prefix"`
	Description string `bson:"description,omitempty"`
}

type Repository interface {
	ListPrefixes(ctx context.Context) ([]string, error)
}

type subnetRepository struct {
	collection *mongo.Collection
}

func NewSubnetRepository(db *mongo.Database, collectionName string) Repository {
	return &subnetRepository{collection: db.Collection(collectionName)}
}

func (r *subnetRepository) ListPrefixes(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"prefix": 1})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		logrus.WithError(err).Error("Failed to list approved subnets")
		return nil, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	var subnets []ApprovedSubnet
	if err := cursor.All(ctx, &subnets); err != nil {
		logrus.WithError(err).Error("Failed to decode approved subnets")
		return nil, models.ErrDatabaseQuery
	}

	prefixes := make([]string, 0, len(subnets))
	for _, s := range subnets {
		prefixes = append(prefixes, s.Prefix)
	}
	return prefixes, nil
}
