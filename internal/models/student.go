package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StudentAccount holds the rater-side review copies. GPA doubles as the
// review-eligibility gate and the weighting qualifier: a student with no GPA
// set cannot submit reviews.
type StudentAccount struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FirstName    string              `bson:"firstName" json:"first_name"`
	LastName     string              `bson:"lastName" json:"last_name"`
	Institution  *primitive.ObjectID `bson:"institution,omitempty" json:"institution,omitempty"`
	FieldOfStudy string              `bson:"fieldOfStudy,omitempty" json:"field_of_study,omitempty"`
	GPA          *float64            `bson:"GPA" json:"gpa"`
	Reviews      []Review            `bson:"reviews" json:"reviews"`
	ReviewCount  int                 `bson:"reviewCount" json:"review_count"`
	CreatedAt    time.Time           `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updated_at"`
}

// FindReview returns the rater-side review copy with the given id, or nil.
func (s *StudentAccount) FindReview(id primitive.ObjectID) *Review {
	for i := range s.Reviews {
		if s.Reviews[i].ID == id {
			return &s.Reviews[i]
		}
	}
	return nil
}
