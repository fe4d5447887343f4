package mongo

import (
	"context"
	"errors"
	"time"

	"fitcoach/training-app/internal/domain"
	"fitcoach/training-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const workoutTimeCollectionName = "workout_times"

// mongoWorkoutTimeRepository implements repository.WorkoutTimeRepository
type mongoWorkoutTimeRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutTimeRepository creates a new WorkoutTime repository backed by MongoDB.
func NewMongoWorkoutTimeRepository(db *mongo.Database) repository.WorkoutTimeRepository {
	return &mongoWorkoutTimeRepository{
		collection: db.Collection(workoutTimeCollectionName),
	}
}

// Create inserts a new execution-state record. Status defaults to
// NotStarted with both timestamps unset.
func (r *mongoWorkoutTimeRepository) Create(ctx context.Context, wt *domain.WorkoutTime) (primitive.ObjectID, error) {
	if wt.WorkoutID == primitive.NilObjectID || wt.StudentID == primitive.NilObjectID ||
		wt.TeacherID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("workout time requires workoutId, studentId, and teacherId")
	}

	wt.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	wt.CreatedAt = now
	wt.UpdatedAt = now
	if wt.Status == "" {
		wt.Status = domain.StatusNotStarted
	}

	result, err := r.collection.InsertOne(ctx, wt)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted workout time ID")
	}
	return insertedID, nil
}

// GetByWorkoutID retrieves the single time record paired with a workout.
func (r *mongoWorkoutTimeRepository) GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) (*domain.WorkoutTime, error) {
	var wt domain.WorkoutTime
	filter := bson.M{"workoutId": workoutID}

	err := r.collection.FindOne(ctx, filter).Decode(&wt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &wt, nil
}

// GetByWorkoutIDs retrieves time records for a batch of workouts.
// Missing pairs are simply absent from the result; the report layer
// treats them as broken references.
func (r *mongoWorkoutTimeRepository) GetByWorkoutIDs(ctx context.Context, workoutIDs []primitive.ObjectID) ([]domain.WorkoutTime, error) {
	if len(workoutIDs) == 0 {
		return []domain.WorkoutTime{}, nil
	}

	var times []domain.WorkoutTime
	filter := bson.M{"workoutId": bson.M{"$in": workoutIDs}}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &times); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return times, nil
}

// CountByStudentAndStatus counts a student's records in the given status.
// Backs the at-most-one-active-workout guard.
func (r *mongoWorkoutTimeRepository) CountByStudentAndStatus(ctx context.Context, studentID primitive.ObjectID, status domain.WorkoutStatus) (int64, error) {
	filter := bson.M{"studentId": studentID, "status": status}
	return r.collection.CountDocuments(ctx, filter)
}

// CountByStatus counts all records in the given status. Used by the admin
// statistics view.
func (r *mongoWorkoutTimeRepository) CountByStatus(ctx context.Context, status domain.WorkoutStatus) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"status": status})
}

// TransitionStatus applies a state-machine transition with an optimistic
// guard: the filter matches on both workoutId and the expected current
// status, so a concurrent transition that already moved the record makes
// this one a no-op and surfaces ErrStatusConflict. StartedAt/CompletedAt
// are written as given; a nil pointer clears the stored field.
func (r *mongoWorkoutTimeRepository) TransitionStatus(ctx context.Context, workoutID primitive.ObjectID, from, to domain.WorkoutStatus, startedAt, completedAt *time.Time) error {
	filter := bson.M{"workoutId": workoutID, "status": from}

	set := bson.M{
		"status":    to,
		"updatedAt": time.Now().UTC(),
	}
	unset := bson.M{}
	if startedAt != nil {
		set["startedAt"] = *startedAt
	} else {
		unset["startedAt"] = ""
	}
	if completedAt != nil {
		set["completedAt"] = *completedAt
	} else {
		unset["completedAt"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Either the record is gone or its status already moved on.
		return repository.ErrStatusConflict
	}
	return nil
}

// DeleteByWorkoutID removes the time record paired with a workout,
// completing the cascade when the workout itself is deleted.
func (r *mongoWorkoutTimeRepository) DeleteByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"workoutId": workoutID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureWorkoutTimeIndexes creates necessary indexes for the workout_times collection.
func EnsureWorkoutTimeIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One time record per workout, enforced at the storage layer.
			Keys:    bson.D{{Key: "workoutId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Active-workout guard: lookups by student and status.
			Keys:    bson.D{{Key: "studentId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "teacherId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
