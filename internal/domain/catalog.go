package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CatalogKind identifies which reference list a CatalogItem belongs to.
type CatalogKind string

const (
	KindEquipment    CatalogKind = "equipment"
	KindSeries       CatalogKind = "series"
	KindRepetition   CatalogKind = "repetition"
	KindTrainingType CatalogKind = "training_type"
)

// ValidCatalogKind reports whether k is one of the four known kinds.
func ValidCatalogKind(k CatalogKind) bool {
	switch k {
	case KindEquipment, KindSeries, KindRepetition, KindTrainingType:
		return true
	}
	return false
}

// CatalogItem is a named reusable reference entity (equipment, series,
// repetition count or training type) owned by a teacher. Workout entries
// reference catalog items by ID; an item in use by at least one workout
// must not be deletable.
type CatalogItem struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TeacherID primitive.ObjectID `bson:"teacherId" json:"teacherId"` // Owning teacher
	Kind      CatalogKind        `bson:"kind" json:"kind"`
	Name      string             `bson:"name" json:"name"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
