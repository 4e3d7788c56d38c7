package repositories

import (
	"context"
	"errors"

	"github.com/campusrate/backend/internal/models"
	"github.com/campusrate/backend/pkg/apperrors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// StudentRepository defines the interface for student account lookups
type StudentRepository interface {
	GetStudentByID(ctx context.Context, id primitive.ObjectID) (*models.StudentAccount, error)
}

// MongoStudentRepository implements StudentRepository for MongoDB
type MongoStudentRepository struct {
	collection *mongo.Collection
}

// NewMongoStudentRepository creates a new MongoStudentRepository
func NewMongoStudentRepository(db *mongo.Database) *MongoStudentRepository {
	return &MongoStudentRepository{collection: db.Collection("studentaccounts")}
}

// GetStudentByID retrieves a student account by ID from MongoDB
func (r *MongoStudentRepository) GetStudentByID(ctx context.Context, id primitive.ObjectID) (*models.StudentAccount, error) {
	var student models.StudentAccount
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&student)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("student")
		}
		return nil, apperrors.Internal(err)
	}
	return &student, nil
}
