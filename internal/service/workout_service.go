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
	ErrStudentNotFound        = errors.New("student user not found")
	ErrStudentNotRole         = errors.New("user found but is not a student")
	ErrStudentAlreadyAssigned = errors.New("student is already assigned to a teacher")
	ErrStudentNotManaged      = errors.New("student is not managed by this teacher")
	ErrWorkoutNotFound        = errors.New("workout not found")
	ErrWorkoutAccessDenied    = errors.New("access denied to modify or delete this workout")
	ErrWorkoutLocked          = errors.New("workout has started and can no longer be edited")
	ErrWorkoutCreateFailed    = errors.New("failed to create workout")
)

// Placeholder shown when a referenced record cannot be resolved. Broken
// references degrade to this value instead of failing the whole view.
const displayNotAvailable = "Not available"

// EntryDetail is a workout entry joined against the catalog for display.
type EntryDetail struct {
	Equipment  string `json:"equipment"`
	Series     string `json:"series"`
	Repetition string `json:"repetition"`
}

// WorkoutDetail combines a workout, its execution-state record and the
// display names resolved from the catalog and user collections.
type WorkoutDetail struct {
	Workout          domain.Workout      `json:"workout"`
	Time             *domain.WorkoutTime `json:"time,omitempty"`
	StudentName      string              `json:"studentName"`
	TrainingTypeName string              `json:"trainingTypeName"`
	Entries          []EntryDetail       `json:"entries"`
}

// WorkoutService is the composer: it manages the teacher's students and the
// creation and editing of workouts with their paired time records.
type WorkoutService interface {
	// Student Management
	AddStudentByEmail(ctx context.Context, teacherID primitive.ObjectID, studentEmail string) (*domain.User, error)
	GetManagedStudents(ctx context.Context, teacherID primitive.ObjectID) ([]domain.User, error)

	// Workout Composition
	CreateWorkout(ctx context.Context, teacherID, studentID, trainingTypeID primitive.ObjectID, description string, entries []domain.WorkoutEntry) (*domain.Workout, error)
	UpdateWorkout(ctx context.Context, teacherID, workoutID, trainingTypeID primitive.ObjectID, description string, entries []domain.WorkoutEntry) (*domain.Workout, error)
	DeleteWorkout(ctx context.Context, teacherID, workoutID primitive.ObjectID) error

	// Workout Viewing
	GetWorkoutsForTeacher(ctx context.Context, teacherID primitive.ObjectID) ([]WorkoutDetail, error)
	GetWorkoutsForStudent(ctx context.Context, studentID primitive.ObjectID) ([]WorkoutDetail, error)
}

// workoutService implements the WorkoutService interface.
type workoutService struct {
	userRepo    repository.UserRepository
	catalogRepo repository.CatalogRepository
	workoutRepo repository.WorkoutRepository
	timeRepo    repository.WorkoutTimeRepository
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(
	userRepo repository.UserRepository,
	catalogRepo repository.CatalogRepository,
	workoutRepo repository.WorkoutRepository,
	timeRepo repository.WorkoutTimeRepository,
) WorkoutService {
	return &workoutService{
		userRepo:    userRepo,
		catalogRepo: catalogRepo,
		workoutRepo: workoutRepo,
		timeRepo:    timeRepo,
	}
}

// === Student Management ===

// AddStudentByEmail finds a student by email and assigns them to the teacher.
func (s *workoutService) AddStudentByEmail(ctx context.Context, teacherID primitive.ObjectID, studentEmail string) (*domain.User, error) {
	if teacherID == primitive.NilObjectID || studentEmail == "" {
		return nil, errors.New("teacher ID and student email are required")
	}

	student, err := s.userRepo.GetByEmail(ctx, studentEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	if student.Role != domain.RoleStudent {
		return nil, ErrStudentNotRole
	}

	if student.TeacherID != nil && *student.TeacherID != primitive.NilObjectID {
		if *student.TeacherID == teacherID {
			// Already managed by this teacher.
			return student, nil
		}
		return nil, ErrStudentAlreadyAssigned
	}

	// Assign student to teacher (update both records)
	err = s.userRepo.AddStudentIDToTeacher(ctx, teacherID, student.ID)
	if err != nil {
		return nil, err
	}
	err = s.userRepo.SetTeacherForStudent(ctx, student.ID, teacherID)
	if err != nil {
		return nil, err
	}

	student.TeacherID = &teacherID
	return student, nil
}

// GetManagedStudents retrieves the list of students managed by the teacher.
func (s *workoutService) GetManagedStudents(ctx context.Context, teacherID primitive.ObjectID) ([]domain.User, error) {
	if teacherID == primitive.NilObjectID {
		return nil, errors.New("teacher ID is required")
	}
	students, err := s.userRepo.GetStudentsByTeacherID(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	for i := range students {
		students[i].PasswordHash = ""
	}
	return students, nil
}

// === Workout Composition ===

// CreateWorkout validates and persists a new workout and its paired time
// record. The two writes are one logical unit: if the time record insert
// fails, the workout insert is compensated with a delete so no workout is
// ever left without its execution-state record.
func (s *workoutService) CreateWorkout(ctx context.Context, teacherID, studentID, trainingTypeID primitive.ObjectID, description string, entries []domain.WorkoutEntry) (*domain.Workout, error) {
	if teacherID == primitive.NilObjectID {
		return nil, errors.New("teacher ID is required")
	}
	if err := s.validateWorkoutInput(ctx, teacherID, studentID, trainingTypeID, entries); err != nil {
		return nil, err
	}

	workout := &domain.Workout{
		TeacherID:      teacherID,
		StudentID:      studentID,
		TrainingTypeID: trainingTypeID,
		Description:    description,
		Entries:        entries,
	}

	workoutID, err := s.workoutRepo.Create(ctx, workout)
	if err != nil {
		return nil, err
	}
	workout.ID = workoutID

	wt := &domain.WorkoutTime{
		WorkoutID: workoutID,
		StudentID: studentID,
		TeacherID: teacherID,
		Status:    domain.StatusNotStarted,
	}
	if _, err := s.timeRepo.Create(ctx, wt); err != nil {
		// Compensate: remove the workout so the pairing invariant holds.
		_ = s.workoutRepo.Delete(ctx, workoutID, teacherID)
		return nil, ErrWorkoutCreateFailed
	}

	return workout, nil
}

// UpdateWorkout edits a workout's description, training type and entries.
// Only permitted by the owning teacher and only while execution has not
// started; once the status has advanced the workout is view-only.
func (s *workoutService) UpdateWorkout(ctx context.Context, teacherID, workoutID, trainingTypeID primitive.ObjectID, description string, entries []domain.WorkoutEntry) (*domain.Workout, error) {
	if teacherID == primitive.NilObjectID || workoutID == primitive.NilObjectID {
		return nil, errors.New("teacher ID and workout ID are required")
	}

	workout, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	if workout.TeacherID != teacherID {
		return nil, ErrWorkoutAccessDenied
	}

	wt, err := s.timeRepo.GetByWorkoutID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Pairing invariant broken; refuse to edit.
			return nil, ErrWorkoutLocked
		}
		return nil, err
	}
	if wt.Status != domain.StatusNotStarted {
		return nil, ErrWorkoutLocked
	}

	if err := s.validateWorkoutInput(ctx, teacherID, workout.StudentID, trainingTypeID, entries); err != nil {
		return nil, err
	}

	workout.TrainingTypeID = trainingTypeID
	workout.Description = description
	workout.Entries = entries

	err = s.workoutRepo.Update(ctx, workout)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return workout, nil
}

// DeleteWorkout removes a workout and cascades to its time record.
func (s *workoutService) DeleteWorkout(ctx context.Context, teacherID, workoutID primitive.ObjectID) error {
	if teacherID == primitive.NilObjectID || workoutID == primitive.NilObjectID {
		return errors.New("teacher ID and workout ID are required")
	}

	err := s.workoutRepo.Delete(ctx, workoutID, teacherID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWorkoutNotFound
		}
		return err
	}

	// Cascade. A missing time record here means the pairing invariant was
	// already broken; the workout is gone either way.
	if err := s.timeRepo.DeleteByWorkoutID(ctx, workoutID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

// validateWorkoutInput checks the composer submission rules: a bound
// student managed by the teacher, a non-empty entry list, and every
// referenced catalog item present, correctly kinded, and owned by the
// submitting teacher.
func (s *workoutService) validateWorkoutInput(ctx context.Context, teacherID, studentID, trainingTypeID primitive.ObjectID, entries []domain.WorkoutEntry) error {
	if studentID == primitive.NilObjectID || trainingTypeID == primitive.NilObjectID {
		return ErrValidationFailed
	}
	if len(entries) == 0 {
		return ErrValidationFailed
	}
	for _, e := range entries {
		if e.EquipmentID == primitive.NilObjectID || e.SeriesID == primitive.NilObjectID || e.RepetitionID == primitive.NilObjectID {
			return ErrValidationFailed
		}
	}

	student, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrStudentNotFound
		}
		return err
	}
	if student.TeacherID == nil || *student.TeacherID != teacherID {
		return ErrStudentNotManaged
	}

	// Resolve every referenced catalog item in one query.
	wanted := map[primitive.ObjectID]domain.CatalogKind{
		trainingTypeID: domain.KindTrainingType,
	}
	for _, e := range entries {
		wanted[e.EquipmentID] = domain.KindEquipment
		wanted[e.SeriesID] = domain.KindSeries
		wanted[e.RepetitionID] = domain.KindRepetition
	}
	ids := make([]primitive.ObjectID, 0, len(wanted))
	for id := range wanted {
		ids = append(ids, id)
	}

	items, err := s.catalogRepo.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	found := make(map[primitive.ObjectID]domain.CatalogItem, len(items))
	for _, item := range items {
		found[item.ID] = item
	}
	for id, kind := range wanted {
		item, ok := found[id]
		if !ok || item.Kind != kind || item.TeacherID != teacherID {
			return ErrValidationFailed
		}
	}
	return nil
}

// === Workout Viewing ===

// GetWorkoutsForTeacher retrieves a teacher's workouts with execution state
// and display names joined in.
func (s *workoutService) GetWorkoutsForTeacher(ctx context.Context, teacherID primitive.ObjectID) ([]WorkoutDetail, error) {
	if teacherID == primitive.NilObjectID {
		return nil, errors.New("teacher ID is required")
	}
	return s.buildDetails(ctx, repository.WorkoutFilter{TeacherID: &teacherID})
}

// GetWorkoutsForStudent retrieves a student's assigned workouts with
// execution state and display names joined in.
func (s *workoutService) GetWorkoutsForStudent(ctx context.Context, studentID primitive.ObjectID) ([]WorkoutDetail, error) {
	if studentID == primitive.NilObjectID {
		return nil, errors.New("student ID is required")
	}
	return s.buildDetails(ctx, repository.WorkoutFilter{StudentID: &studentID})
}

func (s *workoutService) buildDetails(ctx context.Context, filter repository.WorkoutFilter) ([]WorkoutDetail, error) {
	workouts, err := s.workoutRepo.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(workouts) == 0 {
		return []WorkoutDetail{}, nil
	}

	workoutIDs := make([]primitive.ObjectID, len(workouts))
	catalogIDSet := make(map[primitive.ObjectID]struct{})
	studentIDSet := make(map[primitive.ObjectID]struct{})
	for i, w := range workouts {
		workoutIDs[i] = w.ID
		catalogIDSet[w.TrainingTypeID] = struct{}{}
		studentIDSet[w.StudentID] = struct{}{}
		for _, e := range w.Entries {
			catalogIDSet[e.EquipmentID] = struct{}{}
			catalogIDSet[e.SeriesID] = struct{}{}
			catalogIDSet[e.RepetitionID] = struct{}{}
		}
	}

	times, err := s.timeRepo.GetByWorkoutIDs(ctx, workoutIDs)
	if err != nil {
		return nil, err
	}
	timeByWorkout := make(map[primitive.ObjectID]domain.WorkoutTime, len(times))
	for _, t := range times {
		timeByWorkout[t.WorkoutID] = t
	}

	catalogNames, err := s.catalogNames(ctx, catalogIDSet)
	if err != nil {
		return nil, err
	}
	studentNames, err := s.studentNames(ctx, studentIDSet)
	if err != nil {
		return nil, err
	}

	details := make([]WorkoutDetail, 0, len(workouts))
	for _, w := range workouts {
		d := WorkoutDetail{
			Workout:          w,
			StudentName:      lookupName(studentNames, w.StudentID),
			TrainingTypeName: lookupName(catalogNames, w.TrainingTypeID),
			Entries:          make([]EntryDetail, 0, len(w.Entries)),
		}
		if t, ok := timeByWorkout[w.ID]; ok {
			tCopy := t
			d.Time = &tCopy
		}
		for _, e := range w.Entries {
			d.Entries = append(d.Entries, EntryDetail{
				Equipment:  lookupName(catalogNames, e.EquipmentID),
				Series:     lookupName(catalogNames, e.SeriesID),
				Repetition: lookupName(catalogNames, e.RepetitionID),
			})
		}
		details = append(details, d)
	}
	return details, nil
}

func (s *workoutService) catalogNames(ctx context.Context, idSet map[primitive.ObjectID]struct{}) (map[primitive.ObjectID]string, error) {
	ids := make([]primitive.ObjectID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	items, err := s.catalogRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[primitive.ObjectID]string, len(items))
	for _, item := range items {
		names[item.ID] = item.Name
	}
	return names, nil
}

func (s *workoutService) studentNames(ctx context.Context, idSet map[primitive.ObjectID]struct{}) (map[primitive.ObjectID]string, error) {
	ids := make([]primitive.ObjectID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}

// lookupName degrades a broken reference to the placeholder instead of
// failing the view.
func lookupName(names map[primitive.ObjectID]string, id primitive.ObjectID) string {
	if name, ok := names[id]; ok {
		return name
	}
	return displayNotAvailable
}
