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

const assignmentCollectionName = "assignments"

// mongoAssignmentRepository implements repository.AssignmentRepository
type mongoAssignmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAssignmentRepository creates a new Assignment repository backed by MongoDB.
func NewMongoAssignmentRepository(db *mongo.Database) repository.AssignmentRepository {
	return &mongoAssignmentRepository{
		collection: db.Collection(assignmentCollectionName),
	}
}

// Upsert writes the assignment for its (setId, patientId) pair and returns the
// stored document. Identity, assignedAt and status survive re-assignment.
func (r *mongoAssignmentRepository) Upsert(ctx context.Context, a *domain.Assignment) (*domain.Assignment, error) {
	if a.SetID == primitive.NilObjectID || a.PatientID == primitive.NilObjectID {
		return nil, repository.ErrInvalid
	}

	now := time.Now().UTC()
	status := a.Status
	if status == "" {
		status = domain.StatusActive
	}
	filter := bson.M{"setId": a.SetID, "patientId": a.PatientID}
	update := bson.M{
		"$set": bson.M{
			"clinicianId":       a.ClinicianID,
			"startDate":         a.StartDate,
			"endDate":           a.EndDate,
			"frequency":         a.Frequency,
			"exerciseOverrides": a.ExerciseOverrides, // "" clears earlier overrides
			"updatedAt":         now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"status":     status,
			"assignedAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored domain.Assignment
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	if err != nil {
		// Two concurrent upserts on the same pair: one loses the unique index race.
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.ErrConflict
		}
		return nil, err
	}
	return &stored, nil
}

// GetByID retrieves an assignment by its ID.
func (r *mongoAssignmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoAssignmentRepository) GetBySetAndPatient(ctx context.Context, setID, patientID primitive.ObjectID) (*domain.Assignment, error) {
	return r.findOne(ctx, bson.M{"setId": setID, "patientId": patientID})
}

func (r *mongoAssignmentRepository) findOne(ctx context.Context, filter bson.M) (*domain.Assignment, error) {
	var assignment domain.Assignment
	err := r.collection.FindOne(ctx, filter).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// GetByPatientID retrieves a patient's assignments, newest first.
func (r *mongoAssignmentRepository) GetByPatientID(ctx context.Context, patientID primitive.ObjectID) ([]domain.Assignment, error) {
	assignments := []domain.Assignment{}
	opts := options.Find().SetSort(bson.D{{Key: "assignedAt", Value: -1}})
	if err := findAll(ctx, r.collection, bson.M{"patientId": patientID}, &assignments, opts); err != nil {
		return nil, err
	}
	return assignments, nil
}

// EnsureAssignmentIndexes creates necessary indexes for the assignments collection.
// The unique (setId, patientId) index backs upsert idempotency.
func EnsureAssignmentIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "setId", Value: 1}, {Key: "patientId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "patientId", Value: 1}, {Key: "assignedAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "clinicianId", Value: 1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
