/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package schema validates and persists entity descriptors. Schema records
// live in a configuration collection described by a descriptor of its own
// kind, so they pass through the same codec as ordinary entity data.
package schema

import (
	"context"
	"regexp"
	"strings"

	"github.com/suparena/dyndata/codec"
	"github.com/suparena/dyndata/datastore"
	"github.com/suparena/dyndata/errors"
	"github.com/suparena/dyndata/model"
	"github.com/suparena/dyndata/ops"
)

var uriNamePattern = regexp.MustCompile(model.URINamePattern)

// Manager implements entity schema management: list, find, create, update and
// delete of entity descriptors, with the registration rule chain applied on
// every create and update.
type Manager struct {
	store  datastore.Store
	ops    *ops.Operations
	reg    *codec.Registry
	config *model.EntityDescriptor
}

// New creates a Manager. The configuration-collection descriptor is built
// here, once, from the kind registry.
func New(store datastore.Store, operations *ops.Operations, reg *codec.Registry) *Manager {
	return &Manager{
		store:  store,
		ops:    operations,
		reg:    reg,
		config: newConfigDescriptor(reg),
	}
}

// ConfigDescriptor returns the descriptor describing the configuration
// collection itself. Callers must treat it as immutable.
func (m *Manager) ConfigDescriptor() *model.EntityDescriptor {
	return m.config
}

// EnsureIndexes idempotently creates the unique uriName indexes on the
// configuration and counter collections. Called once at startup.
func (m *Manager) EnsureIndexes(ctx context.Context) error {
	if err := m.store.EnsureUniqueIndex(ctx, m.config.CollectionName(), []string{model.URINameField}); err != nil {
		return err
	}
	return m.store.EnsureUniqueIndex(ctx, model.SequenceCollection, []string{model.URINameField})
}

// ListEntities returns all registered entity descriptors.
func (m *Manager) ListEntities(ctx context.Context) ([]model.Document, error) {
	return m.ops.Query(ctx, m.config, nil)
}

// FindEntity returns the stored schema record for uriName, or nil when no
// entity is registered under that name.
func (m *Manager) FindEntity(ctx context.Context, uriName string) (model.Document, error) {
	docs, err := m.ops.Query(ctx, m.config, datastore.Eq(model.URINameField, uriName))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

// Descriptor re-materializes the EntityDescriptor registered under entityURI.
// Unknown URIs are an invalid argument: the caller referenced an entity that
// does not exist.
func (m *Manager) Descriptor(ctx context.Context, entityURI string) (*model.EntityDescriptor, error) {
	doc, err := m.FindEntity(ctx, entityURI)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.NewValidationError("invalid entity URI %q", entityURI)
	}
	return model.DescriptorFromDocument(doc)
}

// CreateEntity validates and registers a new entity descriptor. The insert is
// atomic: a concurrent create of the same uriName loses with AlreadyExists.
func (m *Manager) CreateEntity(ctx context.Context, data map[string]any) error {
	if data[model.URINameField] == nil {
		return errors.NewSchemaError("entity URI cannot be null")
	}
	uriName := strings.TrimSpace(stringValue(data[model.URINameField]))
	existing, err := m.FindEntity(ctx, uriName)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.NewAlreadyExistsError("entity", uriName)
	}
	return m.saveEntity(ctx, data, true)
}

// UpdateEntity replaces the descriptor registered under uriName wholesale.
// The previous record is resolved only to confirm existence; keys and
// sequence field are redefined by the incoming payload.
func (m *Manager) UpdateEntity(ctx context.Context, data map[string]any, uriName string) error {
	uriName = strings.TrimSpace(uriName)
	existing, err := m.FindEntity(ctx, uriName)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.NewNotFoundError("entity", uriName)
	}
	data[model.URINameField] = uriName
	return m.saveEntity(ctx, data, false)
}

// DeleteEntity removes the schema record only. The entity's data collection
// and its sequence counter are left in place.
func (m *Manager) DeleteEntity(ctx context.Context, uriName string) error {
	uriName = strings.TrimSpace(uriName)
	existing, err := m.FindEntity(ctx, uriName)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.NewNotFoundError("entity", uriName)
	}
	return m.ops.DeleteOne(ctx, m.config, []string{uriName})
}

// saveEntity runs the shared registration rule chain and persists the record
// through the configuration descriptor. insert selects the atomic insert path
// (create) over the replacing upsert (update).
func (m *Manager) saveEntity(ctx context.Context, data map[string]any, insert bool) error {
	uriName, err := m.validateURIName(data)
	if err != nil {
		return err
	}
	entityName, err := requireNonEmpty(data, model.EntityNameField, "entity name")
	if err != nil {
		return err
	}
	keys, err := m.validateFields(data)
	if err != nil {
		return err
	}

	data[model.URINameField] = uriName
	data[model.EntityNameField] = entityName

	if insert {
		err = m.ops.InsertOne(ctx, m.config, data)
	} else {
		err = m.ops.ReplaceOne(ctx, m.config, data)
	}
	if err != nil {
		return err
	}

	// Key uniqueness of the data collection is store-enforced from here on,
	// so concurrent creates cannot both pass an existence check.
	return m.store.EnsureUniqueIndex(ctx, model.CollectionPrefix+uriName, keys)
}

func (m *Manager) validateURIName(data map[string]any) (string, error) {
	uriName, err := requireNonEmpty(data, model.URINameField, "entity URI")
	if err != nil {
		return "", err
	}
	if !uriNamePattern.MatchString(uriName) {
		return "", errors.NewSchemaError("entity URI must contain only letters, digits, '.' and '_', 1 to 100 characters")
	}
	return uriName, nil
}

// validateFields applies rules 3 to 7 of the registration chain: keys and
// fields are non-empty lists, field names are pairwise distinct, every key
// names a declared field of an allowed key kind, and the sequence field (if
// any) names a declared integer field.
func (m *Manager) validateFields(data map[string]any) ([]string, error) {
	keys, err := stringList(data[model.KeysField], "keys")
	if err != nil {
		return nil, err
	}
	keys = distinct(keys)
	if len(keys) == 0 {
		return nil, errors.NewSchemaError("key list cannot be empty")
	}

	fields, err := documentList(data[model.FieldsField], "fields")
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, field := range fields {
		name := stringValue(field["fieldName"])
		if seen[name] {
			return nil, errors.NewSchemaError("all fields must have distinct names")
		}
		seen[name] = true
	}

	for _, key := range keys {
		if !seen[key] {
			return nil, errors.NewSchemaError("all declared keys must be present in the field list; keys: %s", strings.Join(keys, ", "))
		}
	}
	for _, field := range fields {
		name := stringValue(field["fieldName"])
		if !contains(keys, name) {
			continue
		}
		fieldType := stringValue(field["fieldType"])
		if !contains(allowedKeyKinds, fieldType) {
			return nil, errors.NewKeyError(name, "must be of kind Bool, String, Timestamp, Integer or Long; found: %s", fieldType)
		}
	}

	if data[model.SequenceField] != nil {
		if err := validateSequenceField(stringValue(data[model.SequenceField]), fields, seen); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// allowedKeyKinds are the kinds permitted for key fields; document and array
// kinds cannot be keys.
var allowedKeyKinds = []string{"Integer", "Long", "String", "Bool", "Timestamp"}

// allowedSequenceKinds are the kinds permitted for the sequence field.
var allowedSequenceKinds = []string{"Integer", "Long"}

func validateSequenceField(seqField string, fields []map[string]any, declared map[string]bool) error {
	if !declared[seqField] {
		return errors.NewSchemaError("the declared sequence field must be present in the field list")
	}
	for _, field := range fields {
		if stringValue(field["fieldName"]) != seqField {
			continue
		}
		fieldType := stringValue(field["fieldType"])
		if !contains(allowedSequenceKinds, fieldType) {
			return errors.NewSchemaError("sequence field %q must be of kind Integer or Long; found: %s", seqField, fieldType)
		}
	}
	return nil
}
