package repositories

import (
	"context"
	"errors"

	"github.com/campusrate/backend/internal/models"
	"github.com/campusrate/backend/pkg/apperrors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProfessorRepository defines the interface for professor account reads.
// Review and aggregate writes go through ReviewRepository, never here.
type ProfessorRepository interface {
	GetProfessorByID(ctx context.Context, id primitive.ObjectID) (*models.ProfessorAccount, error)
	SearchProfessors(ctx context.Context, name string, skip, limit int64) ([]models.ProfessorAccount, int64, error)
	GetProfessorByReviewID(ctx context.Context, reviewID primitive.ObjectID) (*models.ProfessorAccount, error)
	GetProfessorByCommentID(ctx context.Context, commentID primitive.ObjectID) (*models.ProfessorAccount, error)
}

// MongoProfessorRepository implements ProfessorRepository for MongoDB
type MongoProfessorRepository struct {
	collection *mongo.Collection
}

// NewMongoProfessorRepository creates a new MongoProfessorRepository
func NewMongoProfessorRepository(db *mongo.Database) *MongoProfessorRepository {
	return &MongoProfessorRepository{collection: db.Collection("professoraccounts")}
}

// GetProfessorByID retrieves a professor account by ID from MongoDB
func (r *MongoProfessorRepository) GetProfessorByID(ctx context.Context, id primitive.ObjectID) (*models.ProfessorAccount, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// SearchProfessors retrieves professors matching a name fragment, with
// pagination, sorted by name.
func (r *MongoProfessorRepository) SearchProfessors(ctx context.Context, name string, skip, limit int64) ([]models.ProfessorAccount, int64, error) {
	filter := bson.M{}
	if name != "" {
		filter = bson.M{"$or": bson.A{
			bson.M{"firstName": bson.M{"$regex": name, "$options": "i"}},
			bson.M{"lastName": bson.M{"$regex": name, "$options": "i"}},
		}}
	}

	findOptions := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.D{{Key: "firstName", Value: 1}, {Key: "lastName", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, apperrors.Internal(err)
	}
	defer cursor.Close(ctx)

	var professors []models.ProfessorAccount
	if err = cursor.All(ctx, &professors); err != nil {
		return nil, 0, apperrors.Internal(err)
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.Internal(err)
	}
	return professors, total, nil
}

// GetProfessorByReviewID retrieves the professor holding the given ratee-side
// review copy.
func (r *MongoProfessorRepository) GetProfessorByReviewID(ctx context.Context, reviewID primitive.ObjectID) (*models.ProfessorAccount, error) {
	return r.findOne(ctx, bson.M{"reviews._id": reviewID})
}

// GetProfessorByCommentID retrieves the professor holding the review the
// given comment is nested under.
func (r *MongoProfessorRepository) GetProfessorByCommentID(ctx context.Context, commentID primitive.ObjectID) (*models.ProfessorAccount, error) {
	return r.findOne(ctx, bson.M{"reviews.comments._id": commentID})
}

func (r *MongoProfessorRepository) findOne(ctx context.Context, filter bson.M) (*models.ProfessorAccount, error) {
	var professor models.ProfessorAccount
	err := r.collection.FindOne(ctx, filter).Decode(&professor)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("professor")
		}
		return nil, apperrors.Internal(err)
	}
	return &professor, nil
}
