package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutStatus type for the workout execution lifecycle
type WorkoutStatus string

const (
	StatusNotStarted WorkoutStatus = "not_started"
	StatusInProgress WorkoutStatus = "in_progress"
	StatusCompleted  WorkoutStatus = "completed" // Terminal; no transition out
)

// ValidWorkoutStatus reports whether s is one of the three known statuses.
func ValidWorkoutStatus(s WorkoutStatus) bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Label returns the display string for a status. Stored values stay
// enumerated; rendering happens at the formatting layer.
func (s WorkoutStatus) Label() string {
	switch s {
	case StatusNotStarted:
		return "Not Started"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	}
	return string(s)
}

// WorkoutTime is the sole mutable execution-state record, paired 1:1 with a
// Workout for the Workout's lifetime. Invariants: CompletedAt set implies
// status Completed implies StartedAt set (they may be equal, which yields a
// zero duration); status NotStarted implies both timestamps are nil.
type WorkoutTime struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutID   primitive.ObjectID `bson:"workoutId" json:"workoutId"`
	StudentID   primitive.ObjectID `bson:"studentId" json:"studentId"` // Denormalized for the active-workout guard
	TeacherID   primitive.ObjectID `bson:"teacherId" json:"teacherId"` // Denormalized for report scoping
	Status      WorkoutStatus      `bson:"status" json:"status"`
	StartedAt   *time.Time         `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Duration returns the elapsed execution time and whether it is known.
// Zero is a valid duration (started and completed in the same instant);
// a missing timestamp means the duration is simply not available.
func (wt *WorkoutTime) Duration() (time.Duration, bool) {
	if wt.StartedAt == nil || wt.CompletedAt == nil {
		return 0, false
	}
	return wt.CompletedAt.Sub(*wt.StartedAt), true
}
