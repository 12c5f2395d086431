package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo opens a client, pings the primary and returns the named database.
func ConnectMongo(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client.Database(database), nil
}

// SupportsTransactions reports whether the deployment behind db accepts
// multi-document transactions (replica set members and mongos routers do,
// standalone servers do not).
func SupportsTransactions(ctx context.Context, db *mongo.Database) (bool, error) {
	var hello struct {
		SetName string `bson:"setName"`
		Msg     string `bson:"msg"`
	}
	if err := db.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		return false, fmt.Errorf("hello: %w", err)
	}
	return hello.SetName != "" || hello.Msg == "isdbgrid", nil
}

// Mongo bundles an open database with what its deployment supports.
type Mongo struct {
	Database     *mongo.Database
	Transactions bool
}

// OpenMongo connects and probes transaction support in one step.
func OpenMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	mdb, err := ConnectMongo(ctx, uri, database)
	if err != nil {
		return nil, err
	}
	tx, err := SupportsTransactions(ctx, mdb)
	if err != nil {
		_ = mdb.Client().Disconnect(context.Background())
		return nil, err
	}
	return &Mongo{Database: mdb, Transactions: tx}, nil
}

// Close disconnects the underlying client.
func (m *Mongo) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = m.Database.Client().Disconnect(ctx)
}
