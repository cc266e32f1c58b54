/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory datastore.Store for testing.
//
// Filter semantics mirror MongoDB: an equality condition on a null value
// matches documents where the field is null or missing. InsertIfAbsent and
// IncrementOne are atomic under the store mutex, and unique indexes created
// through EnsureUniqueIndex are enforced on writes.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/suparena/dyndata/datastore"
	"github.com/suparena/dyndata/errors"
	"github.com/suparena/dyndata/model"
)

// Store is an in-memory implementation of datastore.Store.
type Store struct {
	mu          sync.Mutex
	collections map[string][]model.Document
	indexes     map[string][][]string

	findErr      error
	upsertErr    error
	insertErr    error
	deleteErr    error
	incrementErr error
}

// New creates an empty mock Store.
func New() *Store {
	return &Store{
		collections: make(map[string][]model.Document),
		indexes:     make(map[string][][]string),
	}
}

// WithFindError makes Find return an error
func (s *Store) WithFindError(err error) *Store {
	s.findErr = err
	return s
}

// WithUpsertError makes UpsertOne return an error
func (s *Store) WithUpsertError(err error) *Store {
	s.upsertErr = err
	return s
}

// WithInsertError makes InsertIfAbsent return an error
func (s *Store) WithInsertError(err error) *Store {
	s.insertErr = err
	return s
}

// WithDeleteError makes DeleteOne return an error
func (s *Store) WithDeleteError(err error) *Store {
	s.deleteErr = err
	return s
}

// WithIncrementError makes IncrementOne return an error
func (s *Store) WithIncrementError(err error) *Store {
	s.incrementErr = err
	return s
}

// Count returns the number of documents in a collection.
func (s *Store) Count(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collections[collection])
}

// Find returns copies of the documents matching filter, shaped by proj.
func (s *Store) Find(ctx context.Context, collection string, filter datastore.Filter, proj *datastore.Projection) ([]model.Document, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []model.Document
	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			result = append(result, project(doc, proj))
		}
	}
	return result, nil
}

// UpsertOne replaces the first document matching filter or inserts doc.
func (s *Store) UpsertOne(ctx context.Context, collection string, filter datastore.Filter, doc model.Document) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	for i, existing := range docs {
		if matches(existing, filter) {
			if err := s.checkUnique(collection, doc, i); err != nil {
				return err
			}
			docs[i] = copyDocument(doc)
			return nil
		}
	}
	if err := s.checkUnique(collection, doc, -1); err != nil {
		return err
	}
	s.collections[collection] = append(docs, copyDocument(doc))
	return nil
}

// InsertIfAbsent inserts doc unless filter matches an existing document.
func (s *Store) InsertIfAbsent(ctx context.Context, collection string, filter datastore.Filter, doc model.Document) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.collections[collection] {
		if matches(existing, filter) {
			return errors.NewAlreadyExistsError(collection, renderFilter(filter))
		}
	}
	if err := s.checkUnique(collection, doc, -1); err != nil {
		return err
	}
	s.collections[collection] = append(s.collections[collection], copyDocument(doc))
	return nil
}

// DeleteOne removes the first document matching filter, if any.
func (s *Store) DeleteOne(ctx context.Context, collection string, filter datastore.Filter) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	for i, existing := range docs {
		if matches(existing, filter) {
			s.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			return nil
		}
	}
	return nil
}

// IncrementOne atomically increments field on the document matching filter,
// creating the record from the filter's conditions when absent.
func (s *Store) IncrementOne(ctx context.Context, collection string, filter datastore.Filter, field string) (int64, error) {
	if s.incrementErr != nil {
		return 0, s.incrementErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.collections[collection] {
		if matches(existing, filter) {
			last := asInt64(existing[field])
			existing[field] = last + 1
			return last + 1, nil
		}
	}
	record := model.Document{field: int64(1)}
	for _, c := range filter {
		record[c.Field] = c.Value
	}
	s.collections[collection] = append(s.collections[collection], record)
	return 1, nil
}

// EnsureUniqueIndex records a unique index to enforce on subsequent writes.
func (s *Store) EnsureUniqueIndex(ctx context.Context, collection string, fields []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.indexes[collection] {
		if strings.Join(existing, ",") == strings.Join(fields, ",") {
			return nil
		}
	}
	s.indexes[collection] = append(s.indexes[collection], append([]string(nil), fields...))
	return nil
}

// checkUnique verifies doc against the collection's unique indexes, skipping
// the document at skip (the one being replaced).
func (s *Store) checkUnique(collection string, doc model.Document, skip int) error {
	for _, fields := range s.indexes[collection] {
		for i, existing := range s.collections[collection] {
			if i == skip {
				continue
			}
			same := true
			for _, f := range fields {
				if !valuesEqual(existing[f], doc[f]) {
					same = false
					break
				}
			}
			if same {
				return errors.NewAlreadyExistsError(collection, strings.Join(fields, ","))
			}
		}
	}
	return nil
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	default:
		return 0
	}
}

func matches(doc model.Document, filter datastore.Filter) bool {
	for _, c := range filter {
		if c.Value == nil {
			if v, ok := doc[c.Field]; ok && v != nil {
				return false
			}
			continue
		}
		if !valuesEqual(doc[c.Field], c.Value) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return fmt.Sprintf("%T:%v", a, a) == fmt.Sprintf("%T:%v", b, b)
}

func project(doc model.Document, proj *datastore.Projection) model.Document {
	if proj == nil {
		return copyDocument(doc)
	}
	out := model.Document{}
	for _, f := range proj.Include {
		if v, ok := doc[f]; ok {
			out[f] = copyValue(v)
		}
	}
	return out
}

func copyDocument(doc model.Document) model.Document {
	out := make(model.Document, len(doc))
	for k, v := range doc {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case model.Document:
		return copyDocument(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}

func renderFilter(filter datastore.Filter) string {
	parts := make([]string, len(filter))
	for i, c := range filter {
		parts[i] = fmt.Sprintf("%s=%v", c.Field, c.Value)
	}
	return strings.Join(parts, ",")
}
