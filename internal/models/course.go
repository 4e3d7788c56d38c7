package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Course associates professors with a teachable subject. A review submission
// is only valid against a course whose Professors list contains the ratee.
type Course struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title      string               `bson:"title" json:"title"`
	Code       string               `bson:"code" json:"code"`
	Credits    int                  `bson:"credits" json:"credits"`
	Professors []primitive.ObjectID `bson:"professors" json:"professors"`
	CreatedAt  time.Time            `bson:"createdAt" json:"created_at"`
	UpdatedAt  time.Time            `bson:"updatedAt" json:"updated_at"`
}

// HasProfessor reports whether the course lists the given professor.
func (c *Course) HasProfessor(id primitive.ObjectID) bool {
	for _, p := range c.Professors {
		if p == id {
			return true
		}
	}
	return false
}

// CourseAssociationRequest defines the request body for adding or removing a
// professor-course association.
type CourseAssociationRequest struct {
	CourseID string `json:"course_id" validate:"required"`
}
