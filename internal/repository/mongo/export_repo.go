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

const exportCollectionName = "report_exports"

// mongoExportRepository implements repository.ExportRepository
type mongoExportRepository struct {
	collection *mongo.Collection
}

// NewMongoExportRepository creates a new report export repository backed by MongoDB.
func NewMongoExportRepository(db *mongo.Database) repository.ExportRepository {
	return &mongoExportRepository{
		collection: db.Collection(exportCollectionName),
	}
}

// Create inserts metadata for a rendered report file.
func (r *mongoExportRepository) Create(ctx context.Context, export *domain.ReportExport) (primitive.ObjectID, error) {
	if export.TeacherID == primitive.NilObjectID || export.S3ObjectKey == "" {
		return primitive.NilObjectID, errors.New("report export requires teacherId and s3ObjectKey")
	}

	export.ID = primitive.NewObjectID()
	export.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, export)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted export ID")
	}
	return insertedID, nil
}

// GetByTeacherID retrieves a teacher's export history, newest first.
func (r *mongoExportRepository) GetByTeacherID(ctx context.Context, teacherID primitive.ObjectID) ([]domain.ReportExport, error) {
	var exports []domain.ReportExport
	filter := bson.M{"teacherId": teacherID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &exports); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return exports, nil
}

// EnsureExportIndexes creates necessary indexes for the report_exports collection.
func EnsureExportIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "teacherId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
