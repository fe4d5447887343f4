package repository

import (
	"context"
	"time"

	"fitcoach/training-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound       = RepositoryError("not found")
	ErrUpdateFailed   = RepositoryError("update failed")
	ErrDeleteFailed   = RepositoryError("delete failed")
	ErrStatusConflict = RepositoryError("status precondition failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
	AddStudentIDToTeacher(ctx context.Context, teacherID, studentID primitive.ObjectID) error
	SetTeacherForStudent(ctx context.Context, studentID, teacherID primitive.ObjectID) error
	GetStudentsByTeacherID(ctx context.Context, teacherID primitive.ObjectID) ([]domain.User, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}

// CatalogRepository defines the interface for interacting with the
// teacher-scoped reference lists (equipment, series, repetitions,
// training types).
type CatalogRepository interface {
	Create(ctx context.Context, item *domain.CatalogItem) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CatalogItem, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.CatalogItem, error)
	GetByTeacherAndKind(ctx context.Context, teacherID primitive.ObjectID, kind domain.CatalogKind) ([]domain.CatalogItem, error)
	Update(ctx context.Context, item *domain.CatalogItem) error
	Delete(ctx context.Context, id primitive.ObjectID, teacherID primitive.ObjectID) error // Ensure teacher owns the item
}

// WorkoutFilter narrows Find results. Nil fields are ignored.
type WorkoutFilter struct {
	TeacherID      *primitive.ObjectID
	StudentID      *primitive.ObjectID
	TrainingTypeID *primitive.ObjectID
}

// WorkoutRepository defines the interface for interacting with workout data.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	// Find returns workouts matching the filter, sorted by creation time
	// ascending with ID as the tie-break, so report output is stable.
	Find(ctx context.Context, filter WorkoutFilter) ([]domain.Workout, error)
	Update(ctx context.Context, workout *domain.Workout) error
	Delete(ctx context.Context, id primitive.ObjectID, teacherID primitive.ObjectID) error
	// CountReferencingCatalogItem is the reverse-index query backing the
	// catalog referential-integrity rule: a catalog item referenced by at
	// least one workout entry or training type must not be removable.
	CountReferencingCatalogItem(ctx context.Context, itemID primitive.ObjectID) (int64, error)
	CountAll(ctx context.Context) (int64, error)
}

// WorkoutTimeRepository defines the interface for the execution-state
// records paired 1:1 with workouts.
type WorkoutTimeRepository interface {
	Create(ctx context.Context, wt *domain.WorkoutTime) (primitive.ObjectID, error)
	GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) (*domain.WorkoutTime, error)
	GetByWorkoutIDs(ctx context.Context, workoutIDs []primitive.ObjectID) ([]domain.WorkoutTime, error)
	CountByStudentAndStatus(ctx context.Context, studentID primitive.ObjectID, status domain.WorkoutStatus) (int64, error)
	CountByStatus(ctx context.Context, status domain.WorkoutStatus) (int64, error)
	// TransitionStatus performs the read-modify-write guard for the state
	// machine: the update only applies while the stored status still equals
	// `from`. StartedAt/CompletedAt are written as given (nil clears the
	// field). Returns ErrStatusConflict when the precondition no longer
	// holds, which includes the record being gone entirely.
	TransitionStatus(ctx context.Context, workoutID primitive.ObjectID, from, to domain.WorkoutStatus, startedAt, completedAt *time.Time) error
	DeleteByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) error
}

// ExportRepository defines the interface for report export metadata.
type ExportRepository interface {
	Create(ctx context.Context, export *domain.ReportExport) (primitive.ObjectID, error)
	GetByTeacherID(ctx context.Context, teacherID primitive.ObjectID) ([]domain.ReportExport, error)
}
