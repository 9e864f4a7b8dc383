package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore maps collections to MongoDB collections and document keys to _id.
type MongoStore struct {
	client   *mongo.Client
	database *mongo.Database
}

// ConnectMongo connects and pings the server before returning.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connection failed: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	log.Println("Connected to MongoDB")
	return &MongoStore{client: client, database: client.Database(database)}, nil
}

// Database exposes the underlying database for GridFS.
func (s *MongoStore) Database() *mongo.Database {
	return s.database
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	var raw bson.M
	err := s.database.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	return toSnapshot(raw), nil
}

func (s *MongoStore) List(ctx context.Context, collection string) ([]Snapshot, error) {
	return s.find(ctx, collection, bson.M{})
}

// FindContaining relies on MongoDB matching a scalar filter against array elements.
func (s *MongoStore) FindContaining(ctx context.Context, collection, field, value string) ([]Snapshot, error) {
	return s.find(ctx, collection, bson.M{field: value})
}

func (s *MongoStore) find(ctx context.Context, collection string, filter bson.M) ([]Snapshot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.database.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var raws []bson.M
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(raws))
	for _, raw := range raws {
		out = append(out, toSnapshot(raw))
	}
	return out, nil
}

func (s *MongoStore) Set(ctx context.Context, collection, id string, data Document) error {
	_, err := s.database.Collection(collection).ReplaceOne(
		ctx,
		bson.M{"_id": id},
		withID(id, data),
		options.Replace().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) Create(ctx context.Context, collection, id string, data Document) error {
	_, err := s.database.Collection(collection).InsertOne(ctx, withID(id, data))
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyExists
	}
	return err
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.database.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// Update uses a multi-statement transaction, which needs a replica set. The
// transaction is committed once; write conflicts surface as ErrAborted.
func (s *MongoStore) Update(ctx context.Context, collection, id string, fn UpdateFunc) error {
	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	coll := s.database.Collection(collection)
	return mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
		if err := session.StartTransaction(); err != nil {
			return err
		}

		var raw bson.M
		err := coll.FindOne(sc, bson.M{"_id": id}).Decode(&raw)
		if err != nil {
			_ = session.AbortTransaction(sc)
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrNotFound
			}
			return err
		}

		next, err := fn(toSnapshot(raw).Data)
		if err != nil {
			_ = session.AbortTransaction(sc)
			return err
		}

		if _, err := coll.ReplaceOne(sc, bson.M{"_id": id}, withID(id, next)); err != nil {
			_ = session.AbortTransaction(sc)
			return fmt.Errorf("%w: %v", ErrAborted, err)
		}
		if err := session.CommitTransaction(sc); err != nil {
			return fmt.Errorf("%w: %v", ErrAborted, err)
		}
		return nil
	})
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func toSnapshot(raw bson.M) Snapshot {
	id, _ := raw["_id"].(string)
	delete(raw, "_id")
	return Snapshot{ID: id, Data: NormalizeDocument(raw)}
}

func withID(id string, data Document) bson.M {
	doc := bson.M{}
	for k, v := range data {
		doc[k] = v
	}
	doc["_id"] = id
	return doc
}
