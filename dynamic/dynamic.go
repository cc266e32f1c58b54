/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package dynamic orchestrates CRUD over entity instances: it resolves the
// entity descriptor by URI and delegates to the descriptor-driven store
// operations.
package dynamic

import (
	"context"
	"strings"

	"github.com/suparena/dyndata/errors"
	"github.com/suparena/dyndata/model"
	"github.com/suparena/dyndata/ops"
	"github.com/suparena/dyndata/schema"
)

// Service implements the entity data operations. Stateless; every call
// re-materializes the descriptor from the configuration collection, so schema
// changes take effect immediately.
type Service struct {
	schema *schema.Manager
	ops    *ops.Operations
}

// New creates a Service.
func New(manager *schema.Manager, operations *ops.Operations) *Service {
	return &Service{schema: manager, ops: operations}
}

// List returns all instances of the entity.
func (s *Service) List(ctx context.Context, entityURI string) ([]model.Document, error) {
	descriptor, err := s.schema.Descriptor(ctx, entityURI)
	if err != nil {
		return nil, err
	}
	return s.ops.Query(ctx, descriptor, nil)
}

// Get returns the instance matching the ordered key values, or nil when no
// instance matches.
func (s *Service) Get(ctx context.Context, entityURI string, ids []string) (model.Document, error) {
	descriptor, err := s.schema.Descriptor(ctx, entityURI)
	if err != nil {
		return nil, err
	}
	return s.ops.Get(ctx, descriptor, ids)
}

// Create inserts a new instance. The insert is atomic on the instance key: a
// concurrent create of the same key cannot slip past the existence check,
// the loser gets AlreadyExists.
func (s *Service) Create(ctx context.Context, entityURI string, data map[string]any) error {
	descriptor, err := s.schema.Descriptor(ctx, entityURI)
	if err != nil {
		return err
	}
	return s.ops.InsertOne(ctx, descriptor, data)
}

// Update replaces the instance identified by the ordered key values. Key
// fields keep their current stored values; callers cannot change key values
// through update.
func (s *Service) Update(ctx context.Context, entityURI string, data map[string]any, ids []string) error {
	descriptor, err := s.schema.Descriptor(ctx, entityURI)
	if err != nil {
		return err
	}
	current, err := s.ops.Get(ctx, descriptor, ids)
	if err != nil {
		return err
	}
	if current == nil {
		return errors.NewNotFoundError(entityURI, strings.Join(ids, "/"))
	}
	for _, key := range descriptor.Keys {
		data[key] = current[key]
	}
	return s.ops.ReplaceOne(ctx, descriptor, data)
}

// Delete removes the instance identified by the ordered key values.
func (s *Service) Delete(ctx context.Context, entityURI string, ids []string) error {
	descriptor, err := s.schema.Descriptor(ctx, entityURI)
	if err != nil {
		return err
	}
	current, err := s.ops.Get(ctx, descriptor, ids)
	if err != nil {
		return err
	}
	if current == nil {
		return errors.NewNotFoundError(entityURI, strings.Join(ids, "/"))
	}
	return s.ops.DeleteOne(ctx, descriptor, ids)
}
