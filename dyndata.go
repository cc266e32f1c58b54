/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package dyndata

import (
	"context"

	"github.com/suparena/dyndata/codec"
	"github.com/suparena/dyndata/datastore"
	"github.com/suparena/dyndata/dynamic"
	"github.com/suparena/dyndata/ops"
	"github.com/suparena/dyndata/schema"
	"github.com/suparena/dyndata/sequence"
)

// Service is the assembled dyndata core: schema management and dynamic entity
// data over one document store. Safe for concurrent use.
type Service struct {
	Schema    *schema.Manager
	Data      *dynamic.Service
	Sequences *sequence.Generator
}

// New wires the core over a store gateway: kind registry, sequence generator,
// codec, descriptor-driven operations, schema manager and data orchestrator.
func New(store datastore.Store) *Service {
	reg := codec.NewRegistry()
	seq := sequence.New(store)
	c := codec.New(reg, seq)
	operations := ops.New(store, c)
	manager := schema.New(store, operations, reg)

	return &Service{
		Schema:    manager,
		Data:      dynamic.New(manager, operations),
		Sequences: seq,
	}
}

// Bootstrap creates the unique indexes the core relies on. Idempotent; call
// once at startup.
func (s *Service) Bootstrap(ctx context.Context) error {
	return s.Schema.EnsureIndexes(ctx)
}
