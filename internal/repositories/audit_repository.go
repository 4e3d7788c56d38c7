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

// AuditCollection is the audit log's own collection name. It must never
// appear in the watched set.
const AuditCollection = "audittrails"

// ErrDuplicateAudit marks an insert rejected by the unique index on the
// dedup key. The pipeline treats it as benign.
var ErrDuplicateAudit = errors.New("duplicate audit record")

// AuditRepository defines the interface for the append-only audit log.
// Records are never updated; deletion is admin-triggered only.
type AuditRepository interface {
	EnsureIndexes(ctx context.Context) error
	InsertRecord(ctx context.Context, record *models.AuditRecord) error
	ListRecords(ctx context.Context, collectionName string) ([]models.AuditRecord, error)
	DeleteRecord(ctx context.Context, id primitive.ObjectID) error
}

// MongoAuditRepository implements AuditRepository for MongoDB
type MongoAuditRepository struct {
	collection *mongo.Collection
}

// NewMongoAuditRepository creates a new MongoAuditRepository
func NewMongoAuditRepository(db *mongo.Database) *MongoAuditRepository {
	return &MongoAuditRepository{collection: db.Collection(AuditCollection)}
}

// EnsureIndexes creates the unique index backing the dedup key.
func (r *MongoAuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "uniqueId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// InsertRecord appends an audit record. A duplicate dedup key comes back as
// ErrDuplicateAudit, not as an internal failure.
func (r *MongoAuditRepository) InsertRecord(ctx context.Context, record *models.AuditRecord) error {
	record.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateAudit
		}
		return apperrors.Internal(err)
	}
	return nil
}

// ListRecords retrieves audit records ordered newest first, optionally
// filtered by source collection. An empty result is a valid result.
func (r *MongoAuditRepository) ListRecords(ctx context.Context, collectionName string) ([]models.AuditRecord, error) {
	filter := bson.M{}
	if collectionName != "" {
		filter["collectionName"] = collectionName
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	defer cursor.Close(ctx)

	records := []models.AuditRecord{}
	if err = cursor.All(ctx, &records); err != nil {
		return nil, apperrors.Internal(err)
	}
	return records, nil
}

// DeleteRecord removes one audit record by id.
func (r *MongoAuditRepository) DeleteRecord(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperrors.Internal(err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("audit record")
	}
	return nil
}
