package mongo

import (
	"context"
	"errors"
	"time"

	"alcyxob/rehab-assign/internal/domain"
	"alcyxob/rehab-assign/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const setCollectionName = "exercise_sets"

// mongoSetRepository implements repository.SetRepository
type mongoSetRepository struct {
	collection *mongo.Collection
}

func NewMongoSetRepository(db *mongo.Database) repository.SetRepository {
	return &mongoSetRepository{
		collection: db.Collection(setCollectionName),
	}
}

func (r *mongoSetRepository) Create(ctx context.Context, set *domain.ExerciseSet) (primitive.ObjectID, error) {
	if set.Name == "" || set.OwnerID == primitive.NilObjectID {
		return primitive.NilObjectID, repository.ErrInvalid
	}
	set.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	set.CreatedAt = now
	set.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, set); err != nil {
		return primitive.NilObjectID, err
	}
	return set.ID, nil
}

func (r *mongoSetRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseSet, error) {
	var set domain.ExerciseSet
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&set)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &set, nil
}

// GetByOwnerID lists a clinician's sets, sorted by name.
func (r *mongoSetRepository) GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID) ([]domain.ExerciseSet, error) {
	sets := []domain.ExerciseSet{}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	if err := findAll(ctx, r.collection, bson.M{"ownerId": ownerID}, &sets, opts); err != nil {
		return nil, err
	}
	return sets, nil
}

func EnsureSetIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "name", Value: 1}},
	})
	return err
}
