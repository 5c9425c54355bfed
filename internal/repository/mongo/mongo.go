// Package mongo implements the repository interfaces on MongoDB, the store
// the restaurant data set is published in.
//
// Collections:
//   - restaurants   documents with embedded comments
//   - neighborhoods {name, geometry} with GeoJSON polygons
//   - users         accounts with a unique username
//
// Every comment mutation is a single-document update, which MongoDB applies
// atomically, so no transactions or replica set are needed.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/restaurant-guide/internal/repository"
)

const (
	restaurantsCollection   = "restaurants"
	neighborhoodsCollection = "neighborhoods"
	usersCollection         = "users"
)

var _ repository.Store = (*Store)(nil)

// Store holds the client and the three collections.
type Store struct {
	client        *mongo.Client
	restaurants   *mongo.Collection
	neighborhoods *mongo.Collection
	users         *mongo.Collection
}

// New connects to uri, verifies the connection and ensures indexes.
func New(ctx context.Context, uri, database string) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connecting: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: pinging: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:        client,
		restaurants:   db.Collection(restaurantsCollection),
		neighborhoods: db.Collection(neighborhoodsCollection),
		users:         db.Collection(usersCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// ensureIndexes creates the indexes the queries rely on. CreateMany is a
// no-op for indexes that already exist with the same definition.
func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.restaurants.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "cuisine", Value: 1}, {Key: "borough", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo: creating restaurant indexes: %w", err)
	}

	_, err = s.neighborhoods.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("mongo: creating neighborhood index: %w", err)
	}

	_, err = s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo: creating user index: %w", err)
	}
	return nil
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
