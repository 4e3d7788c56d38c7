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

// UserRepository defines the interface for user account lookups
type UserRepository interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByStudentAccount(ctx context.Context, accountID primitive.ObjectID) (*models.User, error)
	GetUserByProfessorAccount(ctx context.Context, accountID primitive.ObjectID) (*models.User, error)
	AddBookmark(ctx context.Context, userID, professorID primitive.ObjectID) (*models.User, error)
	RemoveBookmark(ctx context.Context, userID, professorID primitive.ObjectID) (*models.User, error)
}

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// GetUserByID retrieves a user by ID from MongoDB
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetUserByStudentAccount retrieves the user owning the given student account
func (r *MongoUserRepository) GetUserByStudentAccount(ctx context.Context, accountID primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"studentAccount": accountID})
}

// GetUserByProfessorAccount retrieves the user owning the given professor account
func (r *MongoUserRepository) GetUserByProfessorAccount(ctx context.Context, accountID primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"professorAccount": accountID})
}

// AddBookmark adds a professor to the user's bookmark list
func (r *MongoUserRepository) AddBookmark(ctx context.Context, userID, professorID primitive.ObjectID) (*models.User, error) {
	return r.updateBookmarks(ctx, userID, bson.M{"$addToSet": bson.M{"bookMarkedProfessor": professorID}})
}

// RemoveBookmark removes a professor from the user's bookmark list
func (r *MongoUserRepository) RemoveBookmark(ctx context.Context, userID, professorID primitive.ObjectID) (*models.User, error) {
	return r.updateBookmarks(ctx, userID, bson.M{"$pull": bson.M{"bookMarkedProfessor": professorID}})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("user")
		}
		return nil, apperrors.Internal(err)
	}
	return &user, nil
}

func (r *MongoUserRepository) updateBookmarks(ctx context.Context, userID primitive.ObjectID, update bson.M) (*models.User, error) {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if res.MatchedCount == 0 {
		return nil, apperrors.NotFound("user")
	}
	return r.GetUserByID(ctx, userID)
}
