package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is one half of a mirrored review pair. The same ID is shared by both
// copies: the professor-side copy carries StudentID and the Comments array,
// the student-side copy carries ProfessorID and no comments. The two copies
// are only ever written together inside one transaction.
type Review struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	StudentID   primitive.ObjectID `bson:"studentId,omitempty" json:"student_id,omitempty"`
	ProfessorID primitive.ObjectID `bson:"professorId,omitempty" json:"professor_id,omitempty"`
	CourseID    primitive.ObjectID `bson:"courseId" json:"course_id"`
	Text        string             `bson:"text" json:"text"`
	Rating      float64            `bson:"rating" json:"rating"`
	Comments    []Comment          `bson:"comments,omitempty" json:"comments,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updated_at"`
}

// Comment lives only inside the professor-side review copy.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"user_id"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
}

// CreateReviewRequest defines the request body for submitting a review
type CreateReviewRequest struct {
	CourseID string   `json:"course_id" validate:"required"`
	Text     string   `json:"text" validate:"required,min=1,max=1000"`
	Rating   *float64 `json:"rating" validate:"required,min=0,max=5"`
}

// UpdateReviewRequest defines the request body for editing a review. Rating
// is optional so an admin edit can carry text only.
type UpdateReviewRequest struct {
	Text   string   `json:"text" validate:"required,min=1,max=1000"`
	Rating *float64 `json:"rating" validate:"omitempty,min=0,max=5"`
}

// CreateCommentRequest defines the request body for commenting on a review
type CreateCommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=500"`
}

// UpdateCommentRequest defines the request body for editing a comment
type UpdateCommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=500"`
}
