package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// User represents a user in the system (a Teacher, a Student, or an Admin).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Teacher-specific ---
	// Stores ObjectIDs of Students managed by this Teacher.
	StudentIDs []primitive.ObjectID `bson:"studentIds,omitempty" json:"studentIds,omitempty"`

	// --- Student-specific ---
	// Stores the ObjectID of the Teacher managing this Student.
	TeacherID *primitive.ObjectID `bson:"teacherId,omitempty" json:"teacherId,omitempty"`
}

func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
