package service

import (
	"context"
	"errors"
	"testing"

	"fitcoach/training-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestDeleteItem_Referenced verifies the referential-integrity rule: a
// catalog item referenced by any workout cannot be deleted.
func TestDeleteItem_Referenced(t *testing.T) {
	f := newComposerFixture()
	catalogSvc := NewCatalogService(f.catalogRepo, f.workoutRepo)

	if _, err := f.svc.CreateWorkout(context.Background(), f.teacherID, f.studentID, f.trainingType.ID, "", f.entries()); err != nil {
		t.Fatalf("CreateWorkout: %v", err)
	}

	// Every referenced item is protected: the training type and each
	// entry component.
	for _, item := range []*domain.CatalogItem{f.trainingType, f.equipment, f.series, f.repetition} {
		err := catalogSvc.DeleteItem(context.Background(), f.teacherID, item.ID)
		if !errors.Is(err, ErrCatalogItemInUse) {
			t.Errorf("DeleteItem(%s): error = %v, want ErrCatalogItemInUse", item.Name, err)
		}
	}
}

// TestDeleteItem_Unreferenced verifies an unused item deletes cleanly.
func TestDeleteItem_Unreferenced(t *testing.T) {
	f := newComposerFixture()
	catalogSvc := NewCatalogService(f.catalogRepo, f.workoutRepo)
	spare := f.catalogRepo.add(f.teacherID, domain.KindEquipment, "Kettlebell")

	if err := catalogSvc.DeleteItem(context.Background(), f.teacherID, spare.ID); err != nil {
		t.Fatalf("DeleteItem: unexpected error: %v", err)
	}
	if _, err := f.catalogRepo.GetByID(context.Background(), spare.ID); err == nil {
		t.Error("item still present after delete")
	}
}

// TestDeleteItem_OtherTeacher verifies a teacher cannot delete another
// teacher's item; the repo filter collapses that into not-found.
func TestDeleteItem_OtherTeacher(t *testing.T) {
	f := newComposerFixture()
	catalogSvc := NewCatalogService(f.catalogRepo, f.workoutRepo)
	foreign := f.catalogRepo.add(primitive.NewObjectID(), domain.KindEquipment, "Foreign")

	err := catalogSvc.DeleteItem(context.Background(), f.teacherID, foreign.ID)
	if !errors.Is(err, ErrCatalogItemNotFound) {
		t.Errorf("DeleteItem: error = %v, want ErrCatalogItemNotFound", err)
	}
}

// TestUpdateItem_Ownership verifies renames are limited to the owner.
func TestUpdateItem_Ownership(t *testing.T) {
	f := newComposerFixture()
	catalogSvc := NewCatalogService(f.catalogRepo, f.workoutRepo)

	_, err := catalogSvc.UpdateItem(context.Background(), primitive.NewObjectID(), f.equipment.ID, "Renamed")
	if !errors.Is(err, ErrCatalogAccessDenied) {
		t.Errorf("UpdateItem: error = %v, want ErrCatalogAccessDenied", err)
	}

	item, err := catalogSvc.UpdateItem(context.Background(), f.teacherID, f.equipment.ID, "Olympic Barbell")
	if err != nil {
		t.Fatalf("UpdateItem: unexpected error: %v", err)
	}
	if item.Name != "Olympic Barbell" {
		t.Errorf("name = %q, want %q", item.Name, "Olympic Barbell")
	}
}

// TestCreateItem_Validation verifies kind and name validation.
func TestCreateItem_Validation(t *testing.T) {
	f := newComposerFixture()
	catalogSvc := NewCatalogService(f.catalogRepo, f.workoutRepo)

	if _, err := catalogSvc.CreateItem(context.Background(), f.teacherID, "bogus", "X"); !errors.Is(err, ErrInvalidCatalogKind) {
		t.Errorf("CreateItem with bogus kind: error = %v, want ErrInvalidCatalogKind", err)
	}
	if _, err := catalogSvc.CreateItem(context.Background(), f.teacherID, domain.KindSeries, ""); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("CreateItem with empty name: error = %v, want ErrValidationFailed", err)
	}

	item, err := catalogSvc.CreateItem(context.Background(), f.teacherID, domain.KindSeries, "5x")
	if err != nil {
		t.Fatalf("CreateItem: unexpected error: %v", err)
	}
	if item.Kind != domain.KindSeries || item.TeacherID != f.teacherID {
		t.Error("created item has wrong kind or owner")
	}
}
