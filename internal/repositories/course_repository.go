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

// CourseRepository defines the interface for course data operations
type CourseRepository interface {
	GetCourseByID(ctx context.Context, id primitive.ObjectID) (*models.Course, error)
	GetCoursesByProfessor(ctx context.Context, professorID primitive.ObjectID) ([]models.Course, error)
	AddProfessor(ctx context.Context, courseID, professorID primitive.ObjectID) error
	RemoveProfessor(ctx context.Context, courseID, professorID primitive.ObjectID) error
}

// MongoCourseRepository implements CourseRepository for MongoDB
type MongoCourseRepository struct {
	collection *mongo.Collection
}

// NewMongoCourseRepository creates a new MongoCourseRepository
func NewMongoCourseRepository(db *mongo.Database) *MongoCourseRepository {
	return &MongoCourseRepository{collection: db.Collection("courses")}
}

// GetCourseByID retrieves a course by ID from MongoDB
func (r *MongoCourseRepository) GetCourseByID(ctx context.Context, id primitive.ObjectID) (*models.Course, error) {
	var course models.Course
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&course)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("course")
		}
		return nil, apperrors.Internal(err)
	}
	return &course, nil
}

// GetCoursesByProfessor retrieves all courses listing the given professor
func (r *MongoCourseRepository) GetCoursesByProfessor(ctx context.Context, professorID primitive.ObjectID) ([]models.Course, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"professors": professorID})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	defer cursor.Close(ctx)

	var courses []models.Course
	if err = cursor.All(ctx, &courses); err != nil {
		return nil, apperrors.Internal(err)
	}
	return courses, nil
}

// AddProfessor associates a professor with a course
func (r *MongoCourseRepository) AddProfessor(ctx context.Context, courseID, professorID primitive.ObjectID) error {
	return r.updateProfessors(ctx, courseID, bson.M{"$addToSet": bson.M{"professors": professorID}})
}

// RemoveProfessor removes a professor's association with a course
func (r *MongoCourseRepository) RemoveProfessor(ctx context.Context, courseID, professorID primitive.ObjectID) error {
	return r.updateProfessors(ctx, courseID, bson.M{"$pull": bson.M{"professors": professorID}})
}

func (r *MongoCourseRepository) updateProfessors(ctx context.Context, courseID primitive.ObjectID, update bson.M) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": courseID}, update)
	if err != nil {
		return apperrors.Internal(err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("course")
	}
	return nil
}
