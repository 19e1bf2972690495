package audit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRecorder stores entries in a MongoDB collection.
type MongoRecorder struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoRecorder(ctx context.Context, uri, database, collection string) (*MongoRecorder, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &MongoRecorder{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func (m *MongoRecorder) Record(ctx context.Context, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if _, err := m.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (m *MongoRecorder) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
