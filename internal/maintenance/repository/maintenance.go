package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	maintenanceerrors "laundro/internal/maintenance/errors"
	"laundro/pkg/config"
	"laundro/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Maintenance"
)

type mongoMaintenanceRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type MaintenanceRepository interface {
	Create(ctx context.Context, interval *model.MaintenanceInterval) error
	FindByDate(ctx context.Context, date string) ([]model.MaintenanceInterval, error)
	Delete(ctx context.Context, id string) error
}

func NewMongoMaintenanceRepository(cfg *config.Config) MaintenanceRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoMaintenanceRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoMaintenanceRepository) Create(ctx context.Context, interval *model.MaintenanceInterval) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	interval.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, interval)
	if err != nil {
		return fmt.Errorf("failed to create maintenance interval: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		interval.ID = oid.Hex()
	}
	return nil
}

func (r *mongoMaintenanceRepository) FindByDate(ctx context.Context, date string) ([]model.MaintenanceInterval, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: "machine", Value: 1},
		{Key: "start_time", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, bson.M{"date": date}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list maintenance intervals: %w", err)
	}
	defer cursor.Close(ctx)

	var intervals []model.MaintenanceInterval
	if err := cursor.All(ctx, &intervals); err != nil {
		return nil, fmt.Errorf("failed to decode maintenance intervals: %w", err)
	}
	return intervals, nil
}

func (r *mongoMaintenanceRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", maintenanceerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return maintenanceerrors.ErrNotFound
		}
		return fmt.Errorf("failed to delete maintenance interval: %w", err)
	}
	if result.DeletedCount == 0 {
		return maintenanceerrors.ErrNotFound
	}
	return nil
}
