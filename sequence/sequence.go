/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package sequence produces per-entity monotonically increasing integers.
package sequence

import (
	"context"

	"github.com/suparena/dyndata/datastore"
	"github.com/suparena/dyndata/model"
)

// Generator hands out sequence numbers backed by one counter record per
// entity in the counter collection. The increment is a single atomic store
// operation, so values are unique and monotonic per uriName regardless of
// caller concurrency; the counter record is created lazily on first use and
// never deleted.
type Generator struct {
	store datastore.Store
}

// New creates a Generator over the given store.
func New(store datastore.Store) *Generator {
	return &Generator{store: store}
}

// Next returns the next sequence number for the entity.
func (g *Generator) Next(ctx context.Context, uriName string) (int64, error) {
	return g.store.IncrementOne(ctx, model.SequenceCollection, datastore.Eq(model.URINameField, uriName), model.SequenceLastIDField)
}
