package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/shashiranjanraj/storefront/config"
)

var Mongo *mongo.Database

// ConnectMongo connects to MONGO_URI and selects MONGO_DATABASE.
func ConnectMongo(ctx context.Context) error {
	c := config.Current()
	db, err := OpenMongo(ctx, c.MongoURI, c.MongoDatabase, c.MongoTimeout)
	if err != nil {
		return err
	}
	Mongo = db
	return nil
}

// OpenMongo connects, pings the primary and returns the named database.
func OpenMongo(ctx context.Context, uri, name string, timeout time.Duration) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout).
		SetMaxPoolSize(100).
		SetMinPoolSize(5)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("database: mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("database: mongo ping: %w", err)
	}

	return client.Database(name), nil
}

// PingMongo reports whether the document store answers.
func PingMongo(ctx context.Context) error {
	if Mongo == nil {
		return fmt.Errorf("database: mongo not connected")
	}
	return Mongo.Client().Ping(ctx, readpref.Primary())
}

// DisconnectMongo closes the client, if any.
func DisconnectMongo(ctx context.Context) error {
	if Mongo == nil {
		return nil
	}
	return Mongo.Client().Disconnect(ctx)
}
