package service

import (
	"context"
	"errors"
	"testing"

	"fitcoach/training-app/internal/domain"
	"fitcoach/training-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// composerFixture wires the workout service with one teacher, one managed
// student and a minimal catalog.
type composerFixture struct {
	userRepo    *fakeUserRepo
	catalogRepo *fakeCatalogRepo
	workoutRepo *fakeWorkoutRepo
	timeRepo    *fakeTimeRepo
	svc         WorkoutService

	teacherID    primitive.ObjectID
	studentID    primitive.ObjectID
	trainingType *domain.CatalogItem
	equipment    *domain.CatalogItem
	series       *domain.CatalogItem
	repetition   *domain.CatalogItem
}

func newComposerFixture() *composerFixture {
	f := &composerFixture{
		userRepo:    newFakeUserRepo(),
		catalogRepo: newFakeCatalogRepo(),
		workoutRepo: newFakeWorkoutRepo(),
		timeRepo:    newFakeTimeRepo(),
	}

	teacher := f.userRepo.add(&domain.User{Name: "Teacher", Email: "t@example.com", Role: domain.RoleTeacher})
	f.teacherID = teacher.ID
	student := f.userRepo.add(&domain.User{Name: "Student", Email: "s@example.com", Role: domain.RoleStudent, TeacherID: &teacher.ID})
	f.studentID = student.ID

	f.trainingType = f.catalogRepo.add(f.teacherID, domain.KindTrainingType, "Strength")
	f.equipment = f.catalogRepo.add(f.teacherID, domain.KindEquipment, "Barbell")
	f.series = f.catalogRepo.add(f.teacherID, domain.KindSeries, "3x")
	f.repetition = f.catalogRepo.add(f.teacherID, domain.KindRepetition, "12 reps")

	f.svc = NewWorkoutService(f.userRepo, f.catalogRepo, f.workoutRepo, f.timeRepo)
	return f
}

func (f *composerFixture) entries() []domain.WorkoutEntry {
	return []domain.WorkoutEntry{{
		EquipmentID:  f.equipment.ID,
		SeriesID:     f.series.ID,
		RepetitionID: f.repetition.ID,
	}}
}

// TestCreateWorkout_PairedRecord verifies a new workout arrives with its
// execution-state record already created in NotStarted.
func TestCreateWorkout_PairedRecord(t *testing.T) {
	f := newComposerFixture()

	w, err := f.svc.CreateWorkout(context.Background(), f.teacherID, f.studentID, f.trainingType.ID, "Leg day", f.entries())
	if err != nil {
		t.Fatalf("CreateWorkout: unexpected error: %v", err)
	}

	wt, err := f.timeRepo.GetByWorkoutID(context.Background(), w.ID)
	if err != nil {
		t.Fatalf("paired time record not created: %v", err)
	}
	if wt.Status != domain.StatusNotStarted {
		t.Errorf("time record status = %q, want %q", wt.Status, domain.StatusNotStarted)
	}
	if wt.StudentID != f.studentID || wt.TeacherID != f.teacherID {
		t.Error("time record not scoped to the workout's student and teacher")
	}
	if wt.StartedAt != nil || wt.CompletedAt != nil {
		t.Error("fresh time record should have no timestamps")
	}
}

// TestCreateWorkout_EmptyEntries verifies a workout must contain at least
// one entry.
func TestCreateWorkout_EmptyEntries(t *testing.T) {
	f := newComposerFixture()

	_, err := f.svc.CreateWorkout(context.Background(), f.teacherID, f.studentID, f.trainingType.ID, "", nil)
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("CreateWorkout: error = %v, want ErrValidationFailed", err)
	}
}

// TestCreateWorkout_WrongKind verifies a catalog reference of the wrong
// kind (a series used as equipment) is rejected.
func TestCreateWorkout_WrongKind(t *testing.T) {
	f := newComposerFixture()

	entries := []domain.WorkoutEntry{{
		EquipmentID:  f.series.ID, // wrong kind
		SeriesID:     f.series.ID,
		RepetitionID: f.repetition.ID,
	}}
	_, err := f.svc.CreateWorkout(context.Background(), f.teacherID, f.studentID, f.trainingType.ID, "", entries)
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("CreateWorkout: error = %v, want ErrValidationFailed", err)
	}
}

// TestCreateWorkout_ForeignCatalogItem verifies another teacher's catalog
// item cannot be referenced.
func TestCreateWorkout_ForeignCatalogItem(t *testing.T) {
	f := newComposerFixture()
	other := f.catalogRepo.add(primitive.NewObjectID(), domain.KindEquipment, "Someone else's barbell")

	entries := []domain.WorkoutEntry{{
		EquipmentID:  other.ID,
		SeriesID:     f.series.ID,
		RepetitionID: f.repetition.ID,
	}}
	_, err := f.svc.CreateWorkout(context.Background(), f.teacherID, f.studentID, f.trainingType.ID, "", entries)
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("CreateWorkout: error = %v, want ErrValidationFailed", err)
	}
}

// TestCreateWorkout_UnmanagedStudent verifies a teacher cannot compose for
// a student assigned to another teacher.
func TestCreateWorkout_UnmanagedStudent(t *testing.T) {
	f := newComposerFixture()
	otherTeacher := primitive.NewObjectID()
	stranger := f.userRepo.add(&domain.User{Name: "Stranger", Email: "x@example.com", Role: domain.RoleStudent, TeacherID: &otherTeacher})

	_, err := f.svc.CreateWorkout(context.Background(), f.teacherID, stranger.ID, f.trainingType.ID, "", f.entries())
	if !errors.Is(err, ErrStudentNotManaged) {
		t.Errorf("CreateWorkout: error = %v, want ErrStudentNotManaged", err)
	}
}

// TestCreateWorkout_CompensatesOnTimeFailure verifies the paired create is
// all-or-nothing: when the time record insert fails the workout insert is
// rolled back, leaving no workout without execution state.
func TestCreateWorkout_CompensatesOnTimeFailure(t *testing.T) {
	f := newComposerFixture()
	f.timeRepo.failCreate = true

	_, err := f.svc.CreateWorkout(context.Background(), f.teacherID, f.studentID, f.trainingType.ID, "", f.entries())
	if !errors.Is(err, ErrWorkoutCreateFailed) {
		t.Fatalf("CreateWorkout: error = %v, want ErrWorkoutCreateFailed", err)
	}
	if n, _ := f.workoutRepo.CountAll(context.Background()); n != 0 {
		t.Errorf("workout count after failed create = %d, want 0", n)
	}
}

// TestUpdateWorkout_LockedAfterStart verifies a workout becomes view-only
// once its execution has moved past NotStarted.
func TestUpdateWorkout_LockedAfterStart(t *testing.T) {
	f := newComposerFixture()
	w, err := f.svc.CreateWorkout(context.Background(), f.teacherID, f.studentID, f.trainingType.ID, "", f.entries())
	if err != nil {
		t.Fatalf("CreateWorkout: %v", err)
	}

	f.timeRepo.times[w.ID].Status = domain.StatusInProgress

	_, err = f.svc.UpdateWorkout(context.Background(), f.teacherID, w.ID, f.trainingType.ID, "edited", f.entries())
	if !errors.Is(err, ErrWorkoutLocked) {
		t.Errorf("UpdateWorkout: error = %v, want ErrWorkoutLocked", err)
	}
}

// TestUpdateWorkout_OwnershipEnforced verifies only the owning teacher can
// edit a workout.
func TestUpdateWorkout_OwnershipEnforced(t *testing.T) {
	f := newComposerFixture()
	w, err := f.svc.CreateWorkout(context.Background(), f.teacherID, f.studentID, f.trainingType.ID, "", f.entries())
	if err != nil {
		t.Fatalf("CreateWorkout: %v", err)
	}

	_, err = f.svc.UpdateWorkout(context.Background(), primitive.NewObjectID(), w.ID, f.trainingType.ID, "edited", f.entries())
	if !errors.Is(err, ErrWorkoutAccessDenied) {
		t.Errorf("UpdateWorkout: error = %v, want ErrWorkoutAccessDenied", err)
	}
}

// TestDeleteWorkout_Cascades verifies deleting a workout removes its
// execution-state record with it.
func TestDeleteWorkout_Cascades(t *testing.T) {
	f := newComposerFixture()
	w, err := f.svc.CreateWorkout(context.Background(), f.teacherID, f.studentID, f.trainingType.ID, "", f.entries())
	if err != nil {
		t.Fatalf("CreateWorkout: %v", err)
	}

	if err := f.svc.DeleteWorkout(context.Background(), f.teacherID, w.ID); err != nil {
		t.Fatalf("DeleteWorkout: unexpected error: %v", err)
	}
	if _, err := f.timeRepo.GetByWorkoutID(context.Background(), w.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Error("time record should be gone after workout deletion")
	}
}

// TestAddStudentByEmail verifies roster assignment: linking succeeds for an
// unassigned student, is idempotent for an already-managed one, and is
// refused when the student belongs to another teacher.
func TestAddStudentByEmail(t *testing.T) {
	f := newComposerFixture()
	free := f.userRepo.add(&domain.User{Name: "Free", Email: "free@example.com", Role: domain.RoleStudent})

	got, err := f.svc.AddStudentByEmail(context.Background(), f.teacherID, free.Email)
	if err != nil {
		t.Fatalf("AddStudentByEmail: unexpected error: %v", err)
	}
	if got.TeacherID == nil || *got.TeacherID != f.teacherID {
		t.Error("student not linked to teacher")
	}

	// Already managed by this teacher: no-op success.
	if _, err := f.svc.AddStudentByEmail(context.Background(), f.teacherID, free.Email); err != nil {
		t.Errorf("AddStudentByEmail repeat: unexpected error: %v", err)
	}

	// Managed by someone else: refused.
	_, err = f.svc.AddStudentByEmail(context.Background(), primitive.NewObjectID(), free.Email)
	if !errors.Is(err, ErrStudentAlreadyAssigned) {
		t.Errorf("AddStudentByEmail: error = %v, want ErrStudentAlreadyAssigned", err)
	}

	// Not a student: refused.
	_, err = f.svc.AddStudentByEmail(context.Background(), f.teacherID, "t@example.com")
	if !errors.Is(err, ErrStudentNotRole) {
		t.Errorf("AddStudentByEmail: error = %v, want ErrStudentNotRole", err)
	}
}

// TestGetWorkoutsForStudent_BrokenReference verifies a deleted catalog item
// degrades to a placeholder name instead of failing the listing.
func TestGetWorkoutsForStudent_BrokenReference(t *testing.T) {
	f := newComposerFixture()
	w, err := f.svc.CreateWorkout(context.Background(), f.teacherID, f.studentID, f.trainingType.ID, "", f.entries())
	if err != nil {
		t.Fatalf("CreateWorkout: %v", err)
	}

	// Break the reference behind the composer's back.
	delete(f.catalogRepo.items, f.equipment.ID)

	details, err := f.svc.GetWorkoutsForStudent(context.Background(), f.studentID)
	if err != nil {
		t.Fatalf("GetWorkoutsForStudent: unexpected error: %v", err)
	}
	if len(details) != 1 {
		t.Fatalf("got %d workouts, want 1", len(details))
	}
	if details[0].Workout.ID != w.ID {
		t.Fatal("wrong workout returned")
	}
	if details[0].Entries[0].Equipment != displayNotAvailable {
		t.Errorf("equipment name = %q, want %q", details[0].Entries[0].Equipment, displayNotAvailable)
	}
	if details[0].Entries[0].Series != "3x" {
		t.Errorf("series name = %q, want %q", details[0].Entries[0].Series, "3x")
	}
}
