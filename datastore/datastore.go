/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"fmt"

	"github.com/suparena/dyndata/model"
)

// Condition is one equality clause of a filter.
type Condition struct {
	Field string
	Value any
}

// Filter is an ordered conjunction of equality conditions. A nil Filter
// matches every document.
type Filter []Condition

// Eq returns a single-condition filter.
func Eq(field string, value any) Filter {
	return Filter{{Field: field, Value: value}}
}

// And appends a condition, dropping exact duplicates (same field and value).
func (f Filter) And(field string, value any) Filter {
	for _, c := range f {
		if c.Field == field && fmt.Sprint(c.Value) == fmt.Sprint(value) {
			return f
		}
	}
	return append(f, Condition{Field: field, Value: value})
}

// Projection is the inclusion list applied when reading documents. Backends
// withhold their own identity attributes unless explicitly included.
type Projection struct {
	Include []string
}

// Includes reports whether a field name is part of the inclusion list.
func (p *Projection) Includes(name string) bool {
	if p == nil {
		return true
	}
	for _, f := range p.Include {
		if f == name {
			return true
		}
	}
	return false
}

// Store is the minimal CRUD+index protocol the core consumes from a document
// store. Implementations own connection handling and timeouts; the core
// imposes none of its own and performs no retries.
type Store interface {
	// Find returns the documents matching filter (all documents when filter
	// is nil), shaped by proj. Result ordering is unspecified.
	Find(ctx context.Context, collection string, filter Filter, proj *Projection) ([]model.Document, error)

	// UpsertOne replaces the single document matching filter, or inserts the
	// document if none matches.
	UpsertOne(ctx context.Context, collection string, filter Filter, doc model.Document) error

	// InsertIfAbsent atomically inserts the document when no document matches
	// filter, and returns errors.ErrAlreadyExists otherwise. The check and
	// the insert are one store operation.
	InsertIfAbsent(ctx context.Context, collection string, filter Filter, doc model.Document) error

	// DeleteOne removes at most one document matching filter.
	DeleteOne(ctx context.Context, collection string, filter Filter) error

	// IncrementOne atomically increments the named integer field of the
	// document matching filter, creating the record (with the filter's
	// conditions as its fields) when absent, and returns the new value.
	IncrementOne(ctx context.Context, collection string, filter Filter, field string) (int64, error)

	// EnsureUniqueIndex idempotently creates a unique index over the given
	// fields.
	EnsureUniqueIndex(ctx context.Context, collection string, fields []string) error
}
