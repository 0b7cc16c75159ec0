package db

import (
	"context"
	"errors"
	"fmt"

	"podcast-transcripts/pkg/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errCollectionNotInitialized = errors.New("collection not initialized")

// MongoClient wraps the MongoDB client and the transcript collection
type MongoClient struct {
	mongoClient *mongo.Client
	database    *mongo.Database
	collection  *mongo.Collection
}

// NewMongoClient creates a new database client
func NewMongoClient(connectionString, databaseName, collectionName string) *MongoClient {
	clientOptions := options.Client().ApplyURI(connectionString)
	mongoClient, err := mongo.Connect(context.Background(), clientOptions)
	if err != nil {
		// Return client with nil - error will be caught during Connect()
		return &MongoClient{}
	}

	database := mongoClient.Database(databaseName)
	return &MongoClient{
		mongoClient: mongoClient,
		database:    database,
		collection:  database.Collection(collectionName),
	}
}

// Connect verifies the connection to MongoDB
func (c *MongoClient) Connect(ctx context.Context) error {
	if c.mongoClient == nil {
		return fmt.Errorf("mongo client not initialized")
	}
	return c.mongoClient.Ping(ctx, nil)
}

// Close closes the MongoDB connection
func (c *MongoClient) Close(ctx context.Context) error {
	if c.mongoClient == nil {
		return nil
	}
	return c.mongoClient.Disconnect(ctx)
}

// SaveTranscript upserts a transcript record by URL
func (c *MongoClient) SaveTranscript(ctx context.Context, record *domain.TranscriptRecord) error {
	if c.collection == nil {
		return errCollectionNotInitialized
	}
	if record == nil || record.URL == "" {
		return ErrInvalidRecord
	}

	filter := bson.M{"url": record.URL}
	update := bson.M{"$set": record}
	opts := options.Update().SetUpsert(true)

	if _, err := c.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("upsert transcript url=%q: %w", record.URL, err)
	}
	return nil
}

// GetTranscript loads the record stored for url. mongo.ErrNoDocuments is
// returned when there is none.
func (c *MongoClient) GetTranscript(ctx context.Context, url string) (*domain.TranscriptRecord, error) {
	if c.collection == nil {
		return nil, errCollectionNotInitialized
	}

	var record domain.TranscriptRecord
	if err := c.collection.FindOne(ctx, bson.M{"url": url}).Decode(&record); err != nil {
		return nil, err
	}
	return &record, nil
}
