package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutEntry is one exercise line within a workout: the equipment to use,
// the series scheme and the repetition count, all referencing the owning
// teacher's catalog.
type WorkoutEntry struct {
	EquipmentID  primitive.ObjectID `bson:"equipmentId" json:"equipmentId"`
	SeriesID     primitive.ObjectID `bson:"seriesId" json:"seriesId"`
	RepetitionID primitive.ObjectID `bson:"repetitionId" json:"repetitionId"`
}

// Workout is a teacher-assigned training session for one student. Its
// execution state lives in the paired WorkoutTime record, created atomically
// alongside it. Description, entries and training type are mutable by the
// owning teacher only while the paired record is still in its initial state.
type Workout struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TeacherID      primitive.ObjectID `bson:"teacherId" json:"teacherId"`
	StudentID      primitive.ObjectID `bson:"studentId" json:"studentId"`
	TrainingTypeID primitive.ObjectID `bson:"trainingTypeId" json:"trainingTypeId"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	Entries        []WorkoutEntry     `bson:"entries" json:"entries"` // Ordered; non-empty once submitted
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
