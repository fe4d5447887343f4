package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportExport stores metadata about a rendered report file.
// The actual file resides in S3 under S3ObjectKey.
type ReportExport struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TeacherID   primitive.ObjectID `bson:"teacherId" json:"teacherId"` // Who requested the export
	S3ObjectKey string             `bson:"s3ObjectKey" json:"-"`       // Internal use only
	FileName    string             `bson:"fileName" json:"fileName"`
	ContentType string             `bson:"contentType" json:"contentType"`
	RowCount    int                `bson:"rowCount" json:"rowCount"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
