package service

import (
	"context"
	"errors"
	"time"

	"fitcoach/training-app/internal/domain"
	"fitcoach/training-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrTimeRecordMissing   = errors.New("workout has no execution-state record")
	ErrInvalidTransition   = errors.New("operation not allowed in the workout's current status")
	ErrActiveWorkoutExists = errors.New("another workout is already in progress for this student")
	ErrRevertNotConfirmed  = errors.New("revert requires explicit confirmation")
	ErrNotWorkoutStudent   = errors.New("workout is not assigned to this student")
)

// ExecutionService is the workout execution state machine. Each operation
// locates the single time record paired with the workout and moves it along
// NotStarted -> InProgress -> Completed, with Revert as the only way back.
// Transitions are deliberately not idempotent: repeating Start against an
// already started workout fails instead of silently succeeding, so
// duplicate client requests cannot double-count elapsed time.
type ExecutionService interface {
	Start(ctx context.Context, workoutID, studentID primitive.ObjectID) (*domain.WorkoutTime, error)
	Revert(ctx context.Context, workoutID, studentID primitive.ObjectID, confirmed bool) (*domain.WorkoutTime, error)
	Complete(ctx context.Context, workoutID, studentID primitive.ObjectID) (*domain.WorkoutTime, error)
}

// executionService implements the ExecutionService interface.
type executionService struct {
	timeRepo  repository.WorkoutTimeRepository
	opTimeout time.Duration
}

// NewExecutionService creates a new instance of executionService.
// opTimeout bounds each store round trip; expiry surfaces ErrStoreTimeout.
func NewExecutionService(timeRepo repository.WorkoutTimeRepository, opTimeout time.Duration) ExecutionService {
	return &executionService{
		timeRepo:  timeRepo,
		opTimeout: opTimeout,
	}
}

// Start moves a workout from NotStarted to InProgress and stamps startedAt.
// Rejected when the caller is not the workout's student, when the status is
// not NotStarted, or when the student already has a workout in progress.
func (s *executionService) Start(ctx context.Context, workoutID, studentID primitive.ObjectID) (*domain.WorkoutTime, error) {
	wt, err := s.loadForStudent(ctx, workoutID, studentID)
	if err != nil {
		return nil, err
	}
	if wt.Status != domain.StatusNotStarted {
		return nil, ErrInvalidTransition
	}

	// At most one concurrently active workout per student. The UI disables
	// the control, but the rule is enforced here regardless.
	opCtx, cancel := withOpTimeout(ctx, s.opTimeout)
	active, err := s.timeRepo.CountByStudentAndStatus(opCtx, studentID, domain.StatusInProgress)
	cancel()
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if active > 0 {
		return nil, ErrActiveWorkoutExists
	}

	now := time.Now().UTC()
	if err := s.transition(ctx, workoutID, domain.StatusNotStarted, domain.StatusInProgress, &now, nil); err != nil {
		return nil, err
	}

	wt.Status = domain.StatusInProgress
	wt.StartedAt = &now
	wt.CompletedAt = nil
	return wt, nil
}

// Revert moves a workout from InProgress back to NotStarted, clearing
// startedAt. The caller must pass confirmed=true; the elapsed time so far
// is discarded. There is no revert from Completed.
func (s *executionService) Revert(ctx context.Context, workoutID, studentID primitive.ObjectID, confirmed bool) (*domain.WorkoutTime, error) {
	if !confirmed {
		return nil, ErrRevertNotConfirmed
	}

	wt, err := s.loadForStudent(ctx, workoutID, studentID)
	if err != nil {
		return nil, err
	}
	if wt.Status != domain.StatusInProgress {
		return nil, ErrInvalidTransition
	}

	if err := s.transition(ctx, workoutID, domain.StatusInProgress, domain.StatusNotStarted, nil, nil); err != nil {
		return nil, err
	}

	wt.Status = domain.StatusNotStarted
	wt.StartedAt = nil
	wt.CompletedAt = nil
	return wt, nil
}

// Complete moves a workout from InProgress to Completed and stamps
// completedAt. The duration is derived from the two timestamps; it is never
// stored separately.
func (s *executionService) Complete(ctx context.Context, workoutID, studentID primitive.ObjectID) (*domain.WorkoutTime, error) {
	wt, err := s.loadForStudent(ctx, workoutID, studentID)
	if err != nil {
		return nil, err
	}
	if wt.Status != domain.StatusInProgress {
		return nil, ErrInvalidTransition
	}

	now := time.Now().UTC()
	if err := s.transition(ctx, workoutID, domain.StatusInProgress, domain.StatusCompleted, wt.StartedAt, &now); err != nil {
		return nil, err
	}

	wt.Status = domain.StatusCompleted
	wt.CompletedAt = &now
	return wt, nil
}

// loadForStudent fetches the time record paired with the workout and
// verifies the caller owns it. A missing record is a data-integrity
// violation: the pairing is created with the workout itself.
func (s *executionService) loadForStudent(ctx context.Context, workoutID, studentID primitive.ObjectID) (*domain.WorkoutTime, error) {
	if workoutID == primitive.NilObjectID || studentID == primitive.NilObjectID {
		return nil, errors.New("workout ID and student ID are required")
	}

	opCtx, cancel := withOpTimeout(ctx, s.opTimeout)
	defer cancel()

	wt, err := s.timeRepo.GetByWorkoutID(opCtx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTimeRecordMissing
		}
		return nil, mapStoreErr(err)
	}
	if wt.StudentID != studentID {
		return nil, ErrNotWorkoutStudent
	}
	return wt, nil
}

// transition applies the guarded write. The repository re-checks the
// current status inside the update filter, so a concurrent transition that
// won the race surfaces here as ErrStatusConflict; we re-read once to
// distinguish a vanished record from a stale status.
func (s *executionService) transition(ctx context.Context, workoutID primitive.ObjectID, from, to domain.WorkoutStatus, startedAt, completedAt *time.Time) error {
	opCtx, cancel := withOpTimeout(ctx, s.opTimeout)
	err := s.timeRepo.TransitionStatus(opCtx, workoutID, from, to, startedAt, completedAt)
	cancel()
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrStatusConflict) {
		reCtx, reCancel := withOpTimeout(ctx, s.opTimeout)
		defer reCancel()
		if _, reErr := s.timeRepo.GetByWorkoutID(reCtx, workoutID); errors.Is(reErr, repository.ErrNotFound) {
			return ErrTimeRecordMissing
		}
		return ErrInvalidTransition
	}
	return mapStoreErr(err)
}
