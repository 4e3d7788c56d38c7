package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Operation kinds captured by the audit pipeline.
const (
	OperationInsert = "insert"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// AuditRecord is one captured mutation. Records are append-only: the pipeline
// never updates or deletes them, and the audit collection itself is never
// watched. FullDocument is nil for deletes, UpdateDescription is nil for
// deletes and inserts. UniqueID is derived from (collection, key, timestamp)
// and carries a unique index, so a re-delivered event is rejected on insert.
type AuditRecord struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CollectionName    string             `bson:"collectionName" json:"collectionName"`
	OperationType     string             `bson:"operationType" json:"operationType"`
	DocumentKey       string             `bson:"documentKey" json:"documentKey"`
	FullDocument      bson.M             `bson:"fullDocument" json:"fullDocument"`
	UpdateDescription bson.M             `bson:"updateDescription" json:"updateDescription"`
	Timestamp         time.Time          `bson:"timestamp" json:"timestamp"`
	UniqueID          string             `bson:"uniqueId" json:"uniqueId"`
}
