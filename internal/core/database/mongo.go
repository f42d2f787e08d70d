package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

type MongoOpts struct {
	URI            string
	Database       string // URI 里带库名时以 URI 为准
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
}

type Mongo struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongo(ctx context.Context, o MongoOpts) (*Mongo, error) {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 10 * time.Second
	}
	name, err := databaseName(o.URI, o.Database)
	if err != nil {
		return nil, err
	}

	clientOpts := options.Client().ApplyURI(o.URI)
	if o.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(o.MaxPoolSize)
	}
	ctx, cancel := context.WithTimeout(ctx, o.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &Mongo{Client: client, Database: client.Database(name)}, nil
}

func (m *Mongo) Close(ctx context.Context) error { return m.Client.Disconnect(ctx) }

func databaseName(uri, fallback string) (string, error) {
	cs, err := connstring.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse mongodb uri: %w", err)
	}
	if cs.Database != "" {
		return cs.Database, nil
	}
	if fallback == "" {
		return "", fmt.Errorf("mongodb database name missing")
	}
	return fallback, nil
}
