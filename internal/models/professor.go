package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfessorAccount holds the ratee-side review copies together with the
// derived aggregate. ReviewCount and AverageRating are only ever mutated by
// the review ledger's transactions; AverageRating is stored clamped to [0,5].
type ProfessorAccount struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FirstName     string              `bson:"firstName" json:"first_name"`
	LastName      string              `bson:"lastName" json:"last_name"`
	Bio           string              `bson:"bio,omitempty" json:"bio,omitempty"`
	Institution   *primitive.ObjectID `bson:"institution,omitempty" json:"institution,omitempty"`
	Department    string              `bson:"department,omitempty" json:"department,omitempty"`
	Reviews       []Review            `bson:"reviews" json:"reviews"`
	ReviewCount   int                 `bson:"reviewCount" json:"review_count"`
	AverageRating float64             `bson:"averageRating" json:"average_rating"`
	CreatedAt     time.Time           `bson:"createdAt" json:"created_at"`
	UpdatedAt     time.Time           `bson:"updatedAt" json:"updated_at"`
}

// FindReview returns the ratee-side review copy with the given id, or nil.
func (p *ProfessorAccount) FindReview(id primitive.ObjectID) *Review {
	for i := range p.Reviews {
		if p.Reviews[i].ID == id {
			return &p.Reviews[i]
		}
	}
	return nil
}

// FindComment returns the comment with the given id together with the review
// holding it, or nils.
func (p *ProfessorAccount) FindComment(id primitive.ObjectID) (*Review, *Comment) {
	for i := range p.Reviews {
		for j := range p.Reviews[i].Comments {
			if p.Reviews[i].Comments[j].ID == id {
				return &p.Reviews[i], &p.Reviews[i].Comments[j]
			}
		}
	}
	return nil, nil
}
