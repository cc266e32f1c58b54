/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mongo implements datastore.Store over MongoDB. It is the default
// backend: filters map to equality documents, InsertIfAbsent to a
// $setOnInsert upsert and IncrementOne to FindOneAndUpdate with $inc, both
// single atomic server-side operations.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/suparena/dyndata/datastore"
	"github.com/suparena/dyndata/errors"
	"github.com/suparena/dyndata/model"
)

// Config holds the MongoDB connection parameters.
type Config struct {
	URL      string
	Port     int
	Database string
}

// Store implements datastore.Store over a MongoDB database.
type Store struct {
	client *driver.Client
	db     *driver.Database
}

// New connects to MongoDB and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	uri := fmt.Sprintf("mongodb://%s:%d", cfg.URL, cfg.Port)
	client, err := driver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB at %s: %w", uri, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to reach MongoDB at %s: %w", uri, err)
	}
	return &Store{client: client, db: client.Database(cfg.Database)}, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Find returns the documents matching filter, shaped by proj.
func (s *Store) Find(ctx context.Context, collection string, filter datastore.Filter, proj *datastore.Projection) ([]model.Document, error) {
	opts := options.Find()
	if proj != nil {
		opts.SetProjection(projectionDoc(proj))
	}
	cursor, err := s.db.Collection(collection).Find(ctx, filterDoc(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []model.Document
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		result = append(result, normalizeDocument(raw))
	}
	return result, cursor.Err()
}

// UpsertOne replaces the document matching filter, inserting when absent.
func (s *Store) UpsertOne(ctx context.Context, collection string, filter datastore.Filter, doc model.Document) error {
	_, err := s.db.Collection(collection).ReplaceOne(ctx, filterDoc(filter), doc, options.Replace().SetUpsert(true))
	if driver.IsDuplicateKeyError(err) {
		return errors.NewAlreadyExistsError(collection, "")
	}
	return err
}

// InsertIfAbsent inserts doc unless filter matches an existing document. The
// $setOnInsert upsert makes the existence check and the insert one operation;
// unique-index violations surface the same way.
func (s *Store) InsertIfAbsent(ctx context.Context, collection string, filter datastore.Filter, doc model.Document) error {
	res, err := s.db.Collection(collection).UpdateOne(ctx, filterDoc(filter), bson.M{"$setOnInsert": doc}, options.Update().SetUpsert(true))
	if driver.IsDuplicateKeyError(err) {
		return errors.NewAlreadyExistsError(collection, "")
	}
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return errors.NewAlreadyExistsError(collection, "")
	}
	return nil
}

// DeleteOne removes at most one document matching filter.
func (s *Store) DeleteOne(ctx context.Context, collection string, filter datastore.Filter) error {
	_, err := s.db.Collection(collection).DeleteOne(ctx, filterDoc(filter))
	return err
}

// IncrementOne atomically increments field on the record matching filter,
// creating it when absent, and returns the new value.
func (s *Store) IncrementOne(ctx context.Context, collection string, filter datastore.Filter, field string) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated bson.M
	err := s.db.Collection(collection).
		FindOneAndUpdate(ctx, filterDoc(filter), bson.M{"$inc": bson.M{field: int64(1)}}, opts).
		Decode(&updated)
	if err != nil {
		return 0, err
	}
	switch v := updated[field].(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("counter field %q has non-integer value %v", field, updated[field])
	}
}

// EnsureUniqueIndex idempotently creates a unique index over fields.
func (s *Store) EnsureUniqueIndex(ctx context.Context, collection string, fields []string) error {
	keys := bson.D{}
	for _, f := range fields {
		keys = append(keys, bson.E{Key: f, Value: 1})
	}
	_, err := s.db.Collection(collection).Indexes().CreateOne(ctx, driver.IndexModel{
		Keys:    keys,
		Options: options.Index().SetUnique(true),
	})
	return err
}

func filterDoc(filter datastore.Filter) bson.D {
	doc := bson.D{}
	for _, c := range filter {
		doc = append(doc, bson.E{Key: c.Field, Value: c.Value})
	}
	return doc
}

// projectionDoc builds the inclusion projection, withholding _id unless it is
// itself an included field name.
func projectionDoc(proj *datastore.Projection) bson.D {
	doc := bson.D{}
	for _, f := range proj.Include {
		doc = append(doc, bson.E{Key: f, Value: 1})
	}
	if !proj.Includes("_id") {
		doc = append(doc, bson.E{Key: "_id", Value: 0})
	}
	return doc
}

// normalizeDocument converts driver decode types back onto the codec's typed
// value set, so values read back equal the values written.
func normalizeDocument(raw bson.M) model.Document {
	doc := make(model.Document, len(raw))
	for k, v := range raw {
		doc[k] = normalizeValue(v)
	}
	return doc
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t.UTC()
	case primitive.A:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeValue(item)
		}
		return out
	case bson.M:
		return normalizeDocument(t)
	case bson.D:
		out := make(model.Document, len(t))
		for _, e := range t {
			out[e.Key] = normalizeValue(e.Value)
		}
		return out
	default:
		return v
	}
}
