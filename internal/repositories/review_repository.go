package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/campusrate/backend/internal/models"
	"github.com/campusrate/backend/internal/rating"
	"github.com/campusrate/backend/pkg/apperrors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Caller identifies who is acting on a comment.
type Caller struct {
	UserID  primitive.ObjectID
	IsAdmin bool
}

// CreateReviewParams carries a validated review submission. GPA is the
// rater's qualifier, already checked to be set by the handler.
type CreateReviewParams struct {
	StudentID   primitive.ObjectID
	ProfessorID primitive.ObjectID
	CourseID    primitive.ObjectID
	Text        string
	Rating      float64
	GPA         float64
}

// UpdateReviewParams carries a rater's edit of their own review.
type UpdateReviewParams struct {
	StudentID   primitive.ObjectID
	ProfessorID primitive.ObjectID
	ReviewID    primitive.ObjectID
	Text        string
	Rating      float64
	GPA         float64
}

// ReviewRepository owns the mirrored review pair and the professor's derived
// aggregate. Every write that touches a review touches both copies and the
// aggregate inside one transaction; no caller can mutate either side
// directly.
type ReviewRepository interface {
	CreateReview(ctx context.Context, p CreateReviewParams) (*models.ProfessorAccount, error)
	UpdateReviewByStudent(ctx context.Context, p UpdateReviewParams) (*models.ProfessorAccount, error)
	UpdateReviewTextByAdmin(ctx context.Context, professorID, reviewID primitive.ObjectID, text string) (*models.ProfessorAccount, error)
	DeleteReview(ctx context.Context, professorID, reviewID primitive.ObjectID, studentID *primitive.ObjectID) error
	AddComment(ctx context.Context, professorID, reviewID primitive.ObjectID, comment models.Comment) (*models.Review, error)
	UpdateComment(ctx context.Context, professorID, reviewID, commentID primitive.ObjectID, caller Caller, text string) (*models.Review, error)
	RemoveComment(ctx context.Context, professorID, reviewID, commentID primitive.ObjectID, caller Caller) (*models.Review, error)
}

// MongoReviewRepository implements ReviewRepository over the professor and
// student collections, using sessions for the multi-document write groups.
type MongoReviewRepository struct {
	client     *mongo.Client
	professors *mongo.Collection
	students   *mongo.Collection
}

// NewMongoReviewRepository creates a new MongoReviewRepository
func NewMongoReviewRepository(client *mongo.Client, db *mongo.Database) *MongoReviewRepository {
	return &MongoReviewRepository{
		client:     client,
		professors: db.Collection("professoraccounts"),
		students:   db.Collection("studentaccounts"),
	}
}

// CreateReview writes both ledger copies and the incorporated aggregate as
// one atomic unit and returns the professor with the new state.
func (r *MongoReviewRepository) CreateReview(ctx context.Context, p CreateReviewParams) (*models.ProfessorAccount, error) {
	return r.professorTxn(ctx, func(sc mongo.SessionContext) (*models.ProfessorAccount, error) {
		professor, err := r.getProfessor(sc, p.ProfessorID)
		if err != nil {
			return nil, err
		}

		for i := range professor.Reviews {
			if professor.Reviews[i].StudentID == p.StudentID && professor.Reviews[i].CourseID == p.CourseID {
				return nil, apperrors.Conflict("a review for this professor and course already exists")
			}
		}

		agg := rating.Aggregate{Count: professor.ReviewCount, Average: professor.AverageRating}
		agg = agg.Incorporate(rating.Weight(p.GPA, p.Rating))

		reviewID := primitive.NewObjectID()
		now := time.Now()

		professorCopy := models.Review{
			ID:        reviewID,
			StudentID: p.StudentID,
			CourseID:  p.CourseID,
			Text:      p.Text,
			Rating:    p.Rating,
			Comments:  []models.Comment{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		studentCopy := models.Review{
			ID:          reviewID,
			ProfessorID: p.ProfessorID,
			CourseID:    p.CourseID,
			Text:        p.Text,
			Rating:      p.Rating,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		_, err = r.professors.UpdateOne(sc, bson.M{"_id": p.ProfessorID}, bson.M{
			"$push": bson.M{"reviews": professorCopy},
			"$set": bson.M{
				"reviewCount":   agg.Count,
				"averageRating": agg.Average,
				"updatedAt":     now,
			},
		})
		if err != nil {
			return nil, apperrors.Internal(err)
		}

		res, err := r.students.UpdateOne(sc, bson.M{"_id": p.StudentID}, bson.M{
			"$push": bson.M{"reviews": studentCopy},
			"$inc":  bson.M{"reviewCount": 1},
			"$set":  bson.M{"updatedAt": now},
		})
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		if res.MatchedCount == 0 {
			return nil, apperrors.NotFound("student")
		}

		return r.getProfessor(sc, p.ProfessorID)
	})
}

// UpdateReviewByStudent edits the rater's own review in both copies and
// replaces its weighted contribution in the aggregate.
func (r *MongoReviewRepository) UpdateReviewByStudent(ctx context.Context, p UpdateReviewParams) (*models.ProfessorAccount, error) {
	return r.professorTxn(ctx, func(sc mongo.SessionContext) (*models.ProfessorAccount, error) {
		professor, err := r.getProfessor(sc, p.ProfessorID)
		if err != nil {
			return nil, err
		}

		review := professor.FindReview(p.ReviewID)
		if review == nil {
			return nil, apperrors.NotFound("review")
		}
		if review.StudentID != p.StudentID {
			return nil, apperrors.Forbidden("you can only edit your own review")
		}

		agg := rating.Aggregate{Count: professor.ReviewCount, Average: professor.AverageRating}
		agg = agg.Replace(rating.Weight(p.GPA, review.Rating), rating.Weight(p.GPA, p.Rating))

		now := time.Now()

		_, err = r.professors.UpdateOne(sc, bson.M{"_id": p.ProfessorID}, bson.M{
			"$set": bson.M{
				"reviews.$[r].text":      p.Text,
				"reviews.$[r].rating":    p.Rating,
				"reviews.$[r].updatedAt": now,
				"averageRating":          agg.Average,
				"updatedAt":              now,
			},
		}, options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"r._id": p.ReviewID}},
		}))
		if err != nil {
			return nil, apperrors.Internal(err)
		}

		res, err := r.students.UpdateOne(sc, bson.M{"_id": p.StudentID}, bson.M{
			"$set": bson.M{
				"reviews.$[r].text":      p.Text,
				"reviews.$[r].rating":    p.Rating,
				"reviews.$[r].updatedAt": now,
				"updatedAt":              now,
			},
		}, options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"r._id": p.ReviewID, "r.professorId": p.ProfessorID}},
		}))
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		if res.MatchedCount == 0 {
			return nil, apperrors.NotFound("student review")
		}

		return r.getProfessor(sc, p.ProfessorID)
	})
}

// UpdateReviewTextByAdmin edits the text of any review in both copies. The
// rating and the aggregate stay untouched: an administrator cannot represent
// the rater's intent for a numeric score.
func (r *MongoReviewRepository) UpdateReviewTextByAdmin(ctx context.Context, professorID, reviewID primitive.ObjectID, text string) (*models.ProfessorAccount, error) {
	return r.professorTxn(ctx, func(sc mongo.SessionContext) (*models.ProfessorAccount, error) {
		professor, err := r.getProfessor(sc, professorID)
		if err != nil {
			return nil, err
		}

		review := professor.FindReview(reviewID)
		if review == nil {
			return nil, apperrors.NotFound("review")
		}

		now := time.Now()

		_, err = r.professors.UpdateOne(sc, bson.M{"_id": professorID}, bson.M{
			"$set": bson.M{
				"reviews.$[r].text":      text,
				"reviews.$[r].updatedAt": now,
				"updatedAt":              now,
			},
		}, options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"r._id": reviewID}},
		}))
		if err != nil {
			return nil, apperrors.Internal(err)
		}

		res, err := r.students.UpdateOne(sc, bson.M{"_id": review.StudentID}, bson.M{
			"$set": bson.M{
				"reviews.$[r].text":      text,
				"reviews.$[r].updatedAt": now,
				"updatedAt":              now,
			},
		}, options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"r._id": reviewID, "r.professorId": professorID}},
		}))
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		if res.MatchedCount == 0 {
			return nil, apperrors.NotFound("student review")
		}

		return r.getProfessor(sc, professorID)
	})
}

// DeleteReview removes both ledger copies and the review's weighted
// contribution as one atomic unit. studentID nil means an admin delete.
func (r *MongoReviewRepository) DeleteReview(ctx context.Context, professorID, reviewID primitive.ObjectID, studentID *primitive.ObjectID) error {
	_, err := r.professorTxn(ctx, func(sc mongo.SessionContext) (*models.ProfessorAccount, error) {
		professor, err := r.getProfessor(sc, professorID)
		if err != nil {
			return nil, err
		}

		review := professor.FindReview(reviewID)
		if review == nil {
			return nil, apperrors.NotFound("review")
		}
		if studentID != nil && review.StudentID != *studentID {
			return nil, apperrors.Forbidden("you can only delete your own review")
		}

		// The removed weight uses the rater's current qualifier, same as
		// the replace path on edits. A missing rater weighs zero.
		var gpa float64
		var student models.StudentAccount
		err = r.students.FindOne(sc, bson.M{"_id": review.StudentID}).Decode(&student)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.Internal(err)
		}
		if err == nil && student.GPA != nil {
			gpa = *student.GPA
		}

		agg := rating.Aggregate{Count: professor.ReviewCount, Average: professor.AverageRating}
		agg = agg.Remove(rating.Weight(gpa, review.Rating))

		now := time.Now()

		_, err = r.professors.UpdateOne(sc, bson.M{"_id": professorID}, bson.M{
			"$pull": bson.M{"reviews": bson.M{"_id": reviewID}},
			"$set": bson.M{
				"reviewCount":   agg.Count,
				"averageRating": agg.Average,
				"updatedAt":     now,
			},
		})
		if err != nil {
			return nil, apperrors.Internal(err)
		}

		newCount := student.ReviewCount - 1
		if newCount < 0 {
			newCount = 0
		}
		_, err = r.students.UpdateOne(sc, bson.M{"_id": review.StudentID}, bson.M{
			"$pull": bson.M{"reviews": bson.M{"_id": reviewID, "professorId": professorID}},
			"$set":  bson.M{"reviewCount": newCount, "updatedAt": now},
		})
		if err != nil {
			return nil, apperrors.Internal(err)
		}

		return nil, nil
	})
	return err
}

// AddComment appends a comment to the professor-side review copy and returns
// the updated review. A single-document update, atomic on its own.
func (r *MongoReviewRepository) AddComment(ctx context.Context, professorID, reviewID primitive.ObjectID, comment models.Comment) (*models.Review, error) {
	res, err := r.professors.UpdateOne(ctx,
		bson.M{"_id": professorID, "reviews._id": reviewID},
		bson.M{"$push": bson.M{"reviews.$.comments": comment}},
	)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if res.MatchedCount == 0 {
		return nil, apperrors.NotFound("review")
	}
	return r.getReview(ctx, professorID, reviewID)
}

// UpdateComment edits a comment's text; only its author or an admin may.
func (r *MongoReviewRepository) UpdateComment(ctx context.Context, professorID, reviewID, commentID primitive.ObjectID, caller Caller, text string) (*models.Review, error) {
	if err := r.authorizeComment(ctx, professorID, reviewID, commentID, caller); err != nil {
		return nil, err
	}

	_, err := r.professors.UpdateOne(ctx, bson.M{"_id": professorID}, bson.M{
		"$set": bson.M{"reviews.$[r].comments.$[c].text": text},
	}, options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"r._id": reviewID}, bson.M{"c._id": commentID}},
	}))
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return r.getReview(ctx, professorID, reviewID)
}

// RemoveComment deletes a comment; only its author or an admin may.
func (r *MongoReviewRepository) RemoveComment(ctx context.Context, professorID, reviewID, commentID primitive.ObjectID, caller Caller) (*models.Review, error) {
	if err := r.authorizeComment(ctx, professorID, reviewID, commentID, caller); err != nil {
		return nil, err
	}

	_, err := r.professors.UpdateOne(ctx, bson.M{"_id": professorID}, bson.M{
		"$pull": bson.M{"reviews.$[r].comments": bson.M{"_id": commentID}},
	}, options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"r._id": reviewID}},
	}))
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return r.getReview(ctx, professorID, reviewID)
}

func (r *MongoReviewRepository) authorizeComment(ctx context.Context, professorID, reviewID, commentID primitive.ObjectID, caller Caller) error {
	review, err := r.getReview(ctx, professorID, reviewID)
	if err != nil {
		return err
	}

	for i := range review.Comments {
		if review.Comments[i].ID == commentID {
			if caller.IsAdmin || review.Comments[i].UserID == caller.UserID {
				return nil
			}
			return apperrors.Forbidden("you can only modify your own comments")
		}
	}
	return apperrors.NotFound("comment")
}

func (r *MongoReviewRepository) getReview(ctx context.Context, professorID, reviewID primitive.ObjectID) (*models.Review, error) {
	professor, err := r.getProfessor(ctx, professorID)
	if err != nil {
		return nil, err
	}
	review := professor.FindReview(reviewID)
	if review == nil {
		return nil, apperrors.NotFound("review")
	}
	return review, nil
}

func (r *MongoReviewRepository) getProfessor(ctx context.Context, id primitive.ObjectID) (*models.ProfessorAccount, error) {
	var professor models.ProfessorAccount
	err := r.professors.FindOne(ctx, bson.M{"_id": id}).Decode(&professor)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("professor")
		}
		return nil, apperrors.Internal(err)
	}
	return &professor, nil
}

// professorTxn runs fn inside a session transaction. Expected failures
// (NotFound, Forbidden, Conflict) abort the transaction like any other error,
// so nothing partially persists; transient transaction errors are retried by
// the driver.
func (r *MongoReviewRepository) professorTxn(ctx context.Context, fn func(mongo.SessionContext) (*models.ProfessorAccount, error)) (*models.ProfessorAccount, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return fn(sc)
	})
	if err != nil {
		return nil, err
	}
	professor, _ := result.(*models.ProfessorAccount)
	return professor, nil
}
