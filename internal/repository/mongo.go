package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mkaczor/bankapi/internal/model"
)

// MongoRepository persists accounts as one document each in a MongoDB
// collection.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository creates a repository over the given collection.
func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

// SaveAll clears the collection, then upserts every account under its
// identity key. Business accounts select on nip, personal accounts on pesel.
func (r *MongoRepository) SaveAll(ctx context.Context, accounts []model.Identifiable) error {
	if _, err := r.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("failed to clear accounts collection: %w", err)
	}

	for _, account := range accounts {
		doc, err := encodeAccount(account)
		if err != nil {
			return err
		}

		selector := bson.M{"pesel": doc.Pesel}
		if doc.NIP != "" {
			selector = bson.M{"nip": doc.NIP}
		}

		_, err = r.coll.UpdateOne(ctx, selector,
			bson.M{"$set": doc},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert account %s: %w", doc.key(), err)
		}
	}

	return nil
}

// LoadAll reads every document and reconstructs the typed accounts.
// Documents carrying neither identity field are skipped rather than failing
// the whole load.
func (r *MongoRepository) LoadAll(ctx context.Context) ([]model.Identifiable, error) {
	cursor, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts collection: %w", err)
	}
	defer cursor.Close(ctx)

	var accounts []model.Identifiable
	for cursor.Next(ctx) {
		var doc accountDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode account document: %w", err)
		}

		account, err := decodeAccount(doc)
		if err != nil {
			continue
		}
		accounts = append(accounts, account)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts collection: %w", err)
	}

	return accounts, nil
}
