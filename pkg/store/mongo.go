package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HunRotation/umato/pkg/errors"
)

// MongoStore persists runs in a MongoDB collection. It is the backend for
// server deployments where run history must survive individual replicas.
type MongoStore struct {
	client *mongo.Client
	runs   *mongo.Collection
}

// NewMongoStore connects to the MongoDB instance at uri and uses the "runs"
// collection of the given database.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to %s", uri)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "ping %s", uri)
	}
	return &MongoStore{
		client: client,
		runs:   client.Database(database).Collection("runs"),
	}, nil
}

// Save writes a run. Saving an existing ID overwrites it.
func (s *MongoStore) Save(ctx context.Context, run *Run) error {
	if err := errors.ValidateRunID(run.ID); err != nil {
		return err
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.runs.ReplaceOne(ctx, bson.M{"_id": run.ID}, run, opts); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "save run %s", run.ID)
	}
	return nil
}

// Get retrieves a run by ID.
func (s *MongoStore) Get(ctx context.Context, id string) (*Run, error) {
	if err := errors.ValidateRunID(id); err != nil {
		return nil, err
	}
	var run Run
	err := s.runs.FindOne(ctx, bson.M{"_id": id}).Decode(&run)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeRunNotFound, "run %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "get run %s", id)
	}
	return &run, nil
}

// List returns summaries of all runs, newest first. The coordinate payload
// is projected away server-side.
func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{
			"_id":          1,
			"created_at":   1,
			"dataset_path": 1,
			"points":       bson.M{"$size": bson.M{"$ifNull": bson.A{"$embedding", bson.A{}}}},
		})

	cur, err := s.runs.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list runs")
	}
	defer cur.Close(ctx)

	var out []Summary
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "decode run summaries")
	}
	return out, nil
}

// Delete removes a run. Deleting a missing run is not an error.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateRunID(id); err != nil {
		return err
	}
	if _, err := s.runs.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete run %s", id)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
