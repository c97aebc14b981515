package mongo

import (
	"context"
	"time"

	"alcyxob/rehab-assign/internal/domain"
	"alcyxob/rehab-assign/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mappingCollectionName = "exercise_mappings"

// mongoMappingRepository implements repository.MappingRepository
type mongoMappingRepository struct {
	collection *mongo.Collection
}

func NewMongoMappingRepository(db *mongo.Database) repository.MappingRepository {
	return &mongoMappingRepository{
		collection: db.Collection(mappingCollectionName),
	}
}

// Create inserts a mapping. The joined library item is never stored.
func (r *mongoMappingRepository) Create(ctx context.Context, mapping *domain.ExerciseMapping) (primitive.ObjectID, error) {
	if mapping.SetID == primitive.NilObjectID || mapping.ExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, repository.ErrInvalid
	}
	mapping.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	mapping.CreatedAt = now
	mapping.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, mapping); err != nil {
		return primitive.NilObjectID, err
	}
	return mapping.ID, nil
}

// GetBySetID returns the mappings of a set in display order.
func (r *mongoMappingRepository) GetBySetID(ctx context.Context, setID primitive.ObjectID) ([]domain.ExerciseMapping, error) {
	mappings := []domain.ExerciseMapping{}
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: 1}})
	if err := findAll(ctx, r.collection, bson.M{"setId": setID}, &mappings, opts); err != nil {
		return nil, err
	}
	return mappings, nil
}

func EnsureMappingIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "setId", Value: 1}, {Key: "order", Value: 1}},
	})
	return err
}
