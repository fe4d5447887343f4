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

const catalogCollectionName = "catalog_items"

// mongoCatalogRepository implements repository.CatalogRepository.
// All four reference lists share one collection, discriminated by the
// `kind` field.
type mongoCatalogRepository struct {
	collection *mongo.Collection
}

// NewMongoCatalogRepository creates a new catalog repository backed by MongoDB.
func NewMongoCatalogRepository(db *mongo.Database) repository.CatalogRepository {
	return &mongoCatalogRepository{
		collection: db.Collection(catalogCollectionName),
	}
}

// Create inserts a new catalog item.
func (r *mongoCatalogRepository) Create(ctx context.Context, item *domain.CatalogItem) (primitive.ObjectID, error) {
	if item.TeacherID == primitive.NilObjectID || item.Name == "" || !domain.ValidCatalogKind(item.Kind) {
		return primitive.NilObjectID, errors.New("catalog item requires teacherId, kind, and name")
	}

	item.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, item)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted catalog item ID")
	}
	return insertedID, nil
}

// GetByID retrieves a catalog item by its ID.
func (r *mongoCatalogRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CatalogItem, error) {
	var item domain.CatalogItem
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// GetByIDs retrieves all catalog items whose IDs appear in the given list.
// Missing IDs are silently skipped; callers handle unresolved references.
func (r *mongoCatalogRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.CatalogItem, error) {
	if len(ids) == 0 {
		return []domain.CatalogItem{}, nil
	}

	var items []domain.CatalogItem
	filter := bson.M{"_id": bson.M{"$in": ids}}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// GetByTeacherAndKind retrieves one of a teacher's reference lists, sorted by name.
func (r *mongoCatalogRepository) GetByTeacherAndKind(ctx context.Context, teacherID primitive.ObjectID, kind domain.CatalogKind) ([]domain.CatalogItem, error) {
	var items []domain.CatalogItem
	filter := bson.M{"teacherId": teacherID, "kind": kind}
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update renames an existing catalog item. Kind and owner never change.
func (r *mongoCatalogRepository) Update(ctx context.Context, item *domain.CatalogItem) error {
	if item.ID == primitive.NilObjectID {
		return errors.New("catalog item ID is required for update")
	}

	filter := bson.M{"_id": item.ID}
	update := bson.M{
		"$set": bson.M{
			"name":      item.Name,
			"updatedAt": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a catalog item, ensuring the teacher owns it.
// The in-use check belongs to the service layer, which consults the
// workouts collection before calling this.
func (r *mongoCatalogRepository) Delete(ctx context.Context, id primitive.ObjectID, teacherID primitive.ObjectID) error {
	if id == primitive.NilObjectID || teacherID == primitive.NilObjectID {
		return errors.New("catalog item ID and teacher ID are required for deletion")
	}

	filter := bson.M{"_id": id, "teacherId": teacherID}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		// Item not found OR not owned by this teacher.
		return repository.ErrNotFound
	}
	return nil
}

// EnsureCatalogIndexes creates necessary indexes for the catalog collection.
func EnsureCatalogIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// The common read path: one teacher's list of one kind.
			Keys:    bson.D{{Key: "teacherId", Value: 1}, {Key: "kind", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
