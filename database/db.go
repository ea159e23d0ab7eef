package database

import (
	"context"
	"fmt"
	"time"

	"ragdesk/config"
	"ragdesk/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoClient is the global MongoDB client instance, set by InitDB.
var MongoClient *mongo.Client

// InitDB connects to MongoDB using DATABASE_URL.
func InitDB(ctx context.Context) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(config.AppConfig.DatabaseURL)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	MongoClient = client
	utils.GetLogger().Sugar().Infof("database: connected to MongoDB")
	return client, nil
}

// ChunkCollection returns the collection holding indexed chunks.
func ChunkCollection(client *mongo.Client) *mongo.Collection {
	return client.Database(config.AppConfig.MongoDatabase).Collection(config.AppConfig.MongoCollection)
}

// CloseDB disconnects the global client, if any.
func CloseDB(ctx context.Context) error {
	if MongoClient == nil {
		return nil
	}
	err := MongoClient.Disconnect(ctx)
	MongoClient = nil
	return err
}
