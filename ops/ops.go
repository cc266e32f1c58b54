/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package ops implements the descriptor-driven store operations: key filter
// building, field projection, and the find/replace/insert/delete primitives
// used by both schema management and dynamic entity data.
package ops

import (
	"context"

	"github.com/suparena/dyndata/codec"
	"github.com/suparena/dyndata/datastore"
	"github.com/suparena/dyndata/errors"
	"github.com/suparena/dyndata/model"
)

// Operations builds filters and projections from entity descriptors and runs
// document operations through the store gateway.
type Operations struct {
	store datastore.Store
	codec *codec.Codec
}

// New creates Operations over the given store and codec.
func New(store datastore.Store, c *codec.Codec) *Operations {
	return &Operations{store: store, codec: c}
}

// KeyFilterFromIDs builds the key equality filter from an ordered value list.
// The list order must match the descriptor's declared key order, and its
// length must equal the key length. Values are coerced through the codec to
// the key field's declared kind; identical clauses are de-duplicated.
func (o *Operations) KeyFilterFromIDs(ctx context.Context, descriptor *model.EntityDescriptor, ids []string) (datastore.Filter, error) {
	if len(ids) != len(descriptor.Keys) {
		return nil, errors.NewValidationError("number of key values does not match the entity key length")
	}
	var filter datastore.Filter
	for i, key := range descriptor.Keys {
		value, err := o.coerceKeyValue(ctx, descriptor, key, ids[i])
		if err != nil {
			return nil, err
		}
		filter = filter.And(key, value)
	}
	return filter, nil
}

// KeyFilterFromMap builds the key equality filter reading values by field
// name from an attribute map. Missing keys produce null clauses; nullability
// of keys is enforced during document coercion, not here.
func (o *Operations) KeyFilterFromMap(ctx context.Context, descriptor *model.EntityDescriptor, values map[string]any) (datastore.Filter, error) {
	var filter datastore.Filter
	for _, key := range descriptor.Keys {
		value, err := o.coerceKeyValue(ctx, descriptor, key, values[key])
		if err != nil {
			return nil, err
		}
		filter = filter.And(key, value)
	}
	return filter, nil
}

func (o *Operations) coerceKeyValue(ctx context.Context, descriptor *model.EntityDescriptor, key string, raw any) (any, error) {
	fd := descriptor.FieldByName(key)
	if fd == nil {
		return nil, errors.NewSchemaError("key %q is not declared in the field list", key)
	}
	kind, err := o.codec.Registry().Lookup(fd.FieldType)
	if err != nil {
		return nil, err
	}
	return o.codec.CoerceValue(ctx, raw, kind, fd.DocumentFields)
}

// BuildProjection returns the inclusion list of all declared field names.
// Store identity attributes stay excluded unless declared as fields.
func (o *Operations) BuildProjection(descriptor *model.EntityDescriptor) *datastore.Projection {
	return &datastore.Projection{Include: descriptor.FieldNames()}
}

// Query finds documents in the entity's collection. A nil filter returns all.
func (o *Operations) Query(ctx context.Context, descriptor *model.EntityDescriptor, filter datastore.Filter) ([]model.Document, error) {
	return o.store.Find(ctx, descriptor.CollectionName(), filter, o.BuildProjection(descriptor))
}

// Get returns the document matching the ordered key values, or nil when no
// document matches.
func (o *Operations) Get(ctx context.Context, descriptor *model.EntityDescriptor, ids []string) (model.Document, error) {
	if err := requireKeys(descriptor); err != nil {
		return nil, err
	}
	filter, err := o.KeyFilterFromIDs(ctx, descriptor, ids)
	if err != nil {
		return nil, err
	}
	docs, err := o.Query(ctx, descriptor, filter)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

// ReplaceOne coerces the full document through the codec and upserts it keyed
// by the filter built from the raw attribute map. Applying it twice with the
// same input leaves a single document.
func (o *Operations) ReplaceOne(ctx context.Context, descriptor *model.EntityDescriptor, values map[string]any) error {
	doc, filter, err := o.shape(ctx, descriptor, values)
	if err != nil {
		return err
	}
	return o.store.UpsertOne(ctx, descriptor.CollectionName(), filter, doc)
}

// InsertOne coerces the full document and inserts it only when no document
// matches its key filter, atomically.
func (o *Operations) InsertOne(ctx context.Context, descriptor *model.EntityDescriptor, values map[string]any) error {
	doc, filter, err := o.shape(ctx, descriptor, values)
	if err != nil {
		return err
	}
	return o.store.InsertIfAbsent(ctx, descriptor.CollectionName(), filter, doc)
}

func (o *Operations) shape(ctx context.Context, descriptor *model.EntityDescriptor, values map[string]any) (model.Document, datastore.Filter, error) {
	if err := requireKeys(descriptor); err != nil {
		return nil, nil, err
	}
	doc, err := o.codec.ToDocument(ctx, descriptor, values)
	if err != nil {
		return nil, nil, err
	}
	filter, err := o.KeyFilterFromMap(ctx, descriptor, values)
	if err != nil {
		return nil, nil, err
	}
	return doc, filter, nil
}

// DeleteOne removes the single document matching the ordered key values.
func (o *Operations) DeleteOne(ctx context.Context, descriptor *model.EntityDescriptor, ids []string) error {
	if err := requireKeys(descriptor); err != nil {
		return err
	}
	filter, err := o.KeyFilterFromIDs(ctx, descriptor, ids)
	if err != nil {
		return err
	}
	return o.store.DeleteOne(ctx, descriptor.CollectionName(), filter)
}

func requireKeys(descriptor *model.EntityDescriptor) error {
	if len(descriptor.Keys) == 0 {
		return errors.NewValidationError("entities must declare a key")
	}
	return nil
}
