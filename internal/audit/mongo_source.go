package audit

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSource opens change streams against a database's collections.
type MongoSource struct {
	db *mongo.Database
}

// NewMongoSource creates a change-stream backed Source
func NewMongoSource(db *mongo.Database) *MongoSource {
	return &MongoSource{db: db}
}

// Subscribe opens a change stream on the collection and pumps its events
// into a channel until the stream dies or ctx is cancelled.
func (s *MongoSource) Subscribe(ctx context.Context, collection string) (Subscription, error) {
	streamOptions := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := s.db.Collection(collection).Watch(ctx, mongo.Pipeline{}, streamOptions)
	if err != nil {
		return nil, err
	}

	sub := &mongoSubscription{
		collection: collection,
		stream:     stream,
		events:     make(chan Event),
	}
	go sub.pump(ctx)
	return sub, nil
}

type mongoSubscription struct {
	collection string
	stream     *mongo.ChangeStream
	events     chan Event
	err        error
}

// changeDocument is the portion of a change-stream document the pipeline
// cares about.
type changeDocument struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID interface{} `bson:"_id"`
	} `bson:"documentKey"`
	FullDocument      bson.M `bson:"fullDocument"`
	UpdateDescription bson.M `bson:"updateDescription"`
}

func (s *mongoSubscription) pump(ctx context.Context) {
	defer close(s.events)

	for s.stream.Next(ctx) {
		var change changeDocument
		if err := s.stream.Decode(&change); err != nil {
			s.err = err
			return
		}

		event := Event{
			Collection:        s.collection,
			OperationType:     change.OperationType,
			DocumentKey:       documentKeyString(change.DocumentKey.ID),
			FullDocument:      change.FullDocument,
			UpdateDescription: change.UpdateDescription,
		}

		select {
		case s.events <- event:
		case <-ctx.Done():
			s.err = ctx.Err()
			return
		}
	}
	s.err = s.stream.Err()
}

func (s *mongoSubscription) Events() <-chan Event {
	return s.events
}

func (s *mongoSubscription) Err() error {
	return s.err
}

func (s *mongoSubscription) Close(ctx context.Context) error {
	return s.stream.Close(ctx)
}

func documentKeyString(id interface{}) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(id)
}
