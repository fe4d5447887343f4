package service

import (
	"context"
	"errors"

	"fitcoach/training-app/internal/domain"
	"fitcoach/training-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrCatalogItemNotFound = errors.New("catalog item not found")
	ErrCatalogAccessDenied = errors.New("access denied to modify or delete this catalog item")
	ErrCatalogItemInUse    = errors.New("catalog item is referenced by at least one workout")
	ErrInvalidCatalogKind  = errors.New("unknown catalog kind")
	ErrValidationFailed    = errors.New("validation failed")
)

// CatalogService manages the four teacher-scoped reference lists:
// equipment, series, repetitions, and training types.
type CatalogService interface {
	CreateItem(ctx context.Context, teacherID primitive.ObjectID, kind domain.CatalogKind, name string) (*domain.CatalogItem, error)
	GetItems(ctx context.Context, teacherID primitive.ObjectID, kind domain.CatalogKind) ([]domain.CatalogItem, error)
	UpdateItem(ctx context.Context, teacherID, itemID primitive.ObjectID, name string) (*domain.CatalogItem, error)
	DeleteItem(ctx context.Context, teacherID, itemID primitive.ObjectID) error
}

// catalogService implements the CatalogService interface.
type catalogService struct {
	catalogRepo repository.CatalogRepository
	workoutRepo repository.WorkoutRepository
}

// NewCatalogService creates a new instance of catalogService.
// The workout repository backs the in-use check on deletion.
func NewCatalogService(catalogRepo repository.CatalogRepository, workoutRepo repository.WorkoutRepository) CatalogService {
	return &catalogService{
		catalogRepo: catalogRepo,
		workoutRepo: workoutRepo,
	}
}

// CreateItem adds a named entry to one of the teacher's reference lists.
func (s *catalogService) CreateItem(ctx context.Context, teacherID primitive.ObjectID, kind domain.CatalogKind, name string) (*domain.CatalogItem, error) {
	if teacherID == primitive.NilObjectID {
		return nil, errors.New("teacher ID is required to create a catalog item")
	}
	if !domain.ValidCatalogKind(kind) {
		return nil, ErrInvalidCatalogKind
	}
	if name == "" {
		return nil, ErrValidationFailed
	}

	item := &domain.CatalogItem{
		TeacherID: teacherID,
		Kind:      kind,
		Name:      name,
	}

	itemID, err := s.catalogRepo.Create(ctx, item)
	if err != nil {
		return nil, err
	}
	// Fetch again to get the repository-set timestamps.
	return s.catalogRepo.GetByID(ctx, itemID)
}

// GetItems retrieves one of the teacher's reference lists.
func (s *catalogService) GetItems(ctx context.Context, teacherID primitive.ObjectID, kind domain.CatalogKind) ([]domain.CatalogItem, error) {
	if teacherID == primitive.NilObjectID {
		return nil, errors.New("teacher ID cannot be nil")
	}
	if !domain.ValidCatalogKind(kind) {
		return nil, ErrInvalidCatalogKind
	}
	return s.catalogRepo.GetByTeacherAndKind(ctx, teacherID, kind)
}

// UpdateItem renames a catalog item, ensuring ownership.
func (s *catalogService) UpdateItem(ctx context.Context, teacherID, itemID primitive.ObjectID, name string) (*domain.CatalogItem, error) {
	if name == "" {
		return nil, ErrValidationFailed
	}
	if teacherID == primitive.NilObjectID || itemID == primitive.NilObjectID {
		return nil, errors.New("teacher ID and item ID are required")
	}

	existing, err := s.catalogRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCatalogItemNotFound
		}
		return nil, err
	}
	if existing.TeacherID != teacherID {
		return nil, ErrCatalogAccessDenied
	}

	existing.Name = name
	err = s.catalogRepo.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCatalogItemNotFound
		}
		return nil, err
	}
	return existing, nil
}

// DeleteItem removes a catalog item, ensuring ownership and that no workout
// still references it. The reverse-index count keeps this cheap; it never
// scans workout documents.
func (s *catalogService) DeleteItem(ctx context.Context, teacherID, itemID primitive.ObjectID) error {
	if teacherID == primitive.NilObjectID || itemID == primitive.NilObjectID {
		return errors.New("teacher ID and item ID are required")
	}

	inUse, err := s.workoutRepo.CountReferencingCatalogItem(ctx, itemID)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return ErrCatalogItemInUse
	}

	err = s.catalogRepo.Delete(ctx, itemID, teacherID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Not found OR owned by another teacher; the repo filter
			// collapses both into one case.
			return ErrCatalogItemNotFound
		}
		return err
	}
	return nil
}
