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

const workoutCollectionName = "workouts"

// mongoWorkoutRepository implements repository.WorkoutRepository
type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutRepository creates a new Workout repository.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
	}
}

// Create inserts a new workout.
func (r *mongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.TeacherID == primitive.NilObjectID || workout.StudentID == primitive.NilObjectID ||
		workout.TrainingTypeID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("workout requires teacherId, studentId, and trainingTypeId")
	}

	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, workout)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted workout ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single workout by its ID.
func (r *mongoWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	var workout domain.Workout
	filter := bson.M{"_id": id}
	err := r.collection.FindOne(ctx, filter).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// Find retrieves workouts matching the filter. The sort (createdAt asc,
// then _id asc) keeps report ordering stable across runs.
func (r *mongoWorkoutRepository) Find(ctx context.Context, filter repository.WorkoutFilter) ([]domain.Workout, error) {
	query := bson.M{}
	if filter.TeacherID != nil {
		query["teacherId"] = *filter.TeacherID
	}
	if filter.StudentID != nil {
		query["studentId"] = *filter.StudentID
	}
	if filter.TrainingTypeID != nil {
		query["trainingTypeId"] = *filter.TrainingTypeID
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var workouts []domain.Workout
	if err = cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return workouts, nil
}

// Update modifies the mutable fields of a workout: description, training
// type and entries. Teacher and student references never change.
func (r *mongoWorkoutRepository) Update(ctx context.Context, workout *domain.Workout) error {
	if workout.ID == primitive.NilObjectID {
		return errors.New("workout ID is required for update")
	}

	filter := bson.M{"_id": workout.ID}
	updateDoc := bson.M{
		"$set": bson.M{
			"description":    workout.Description,
			"trainingTypeId": workout.TrainingTypeID,
			"entries":        workout.Entries,
			"updatedAt":      time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a workout, ensuring the teacher owns it. The paired
// time record is removed by the service as part of the cascade.
func (r *mongoWorkoutRepository) Delete(ctx context.Context, id primitive.ObjectID, teacherID primitive.ObjectID) error {
	if id == primitive.NilObjectID || teacherID == primitive.NilObjectID {
		return errors.New("workout ID and teacher ID are required for deletion")
	}

	filter := bson.M{"_id": id, "teacherId": teacherID}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		// Workout not found OR not owned by this teacher.
		return repository.ErrNotFound
	}
	return nil
}

// CountReferencingCatalogItem counts workouts referencing the given catalog
// item through any entry field or the training type. Backed by the entry
// indexes below, so catalog deletion does not scan the collection.
func (r *mongoWorkoutRepository) CountReferencingCatalogItem(ctx context.Context, itemID primitive.ObjectID) (int64, error) {
	filter := bson.M{"$or": []bson.M{
		{"trainingTypeId": itemID},
		{"entries.equipmentId": itemID},
		{"entries.seriesId": itemID},
		{"entries.repetitionId": itemID},
	}}
	return r.collection.CountDocuments(ctx, filter)
}

// CountAll counts every workout. Used by the admin statistics view.
func (r *mongoWorkoutRepository) CountAll(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// EnsureWorkoutIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Teacher report scope, already in stable report order.
			Keys:    bson.D{{Key: "teacherId", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "studentId", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index(),
		},
		{
			// Reverse index for the catalog in-use check.
			Keys:    bson.D{{Key: "trainingTypeId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "entries.equipmentId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "entries.seriesId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "entries.repetitionId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
