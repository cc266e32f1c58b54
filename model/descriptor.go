/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

// Wire names shared by the schema collection, the counter collection and the
// HTTP payloads. These are stable identifiers; changing them breaks stored
// configuration.
const (
	URINameField    = "uriName"
	EntityNameField = "entityName"
	KeysField       = "keys"
	SequenceField   = "sequenceField"
	FieldsField     = "fields"

	// CollectionPrefix prefixes every per-entity data collection.
	CollectionPrefix = "dyn."

	// SequenceCollection holds one {uriName, lastId} record per entity.
	SequenceCollection = "seq.collections"

	// SequenceLastIDField is the counter value field inside SequenceCollection.
	SequenceLastIDField = "lastId"

	// ConfigDescriptorURI is the uriName of the descriptor that describes the
	// configuration collection itself. The leading "@" keeps it out of the
	// namespace reachable through the entity URI pattern.
	ConfigDescriptorURI = "@collectionDescriptor"
)

// URINamePattern constrains entity URI names.
const URINamePattern = `^[0-9a-zA-Z._]{1,100}$`

// FieldDescriptor declares one field of an entity: its name, kind and
// validation constraints. AllowedValues and MinLength/MaxLength are mutually
// exclusive validation modes; a non-empty AllowedValues alone governs
// acceptance.
type FieldDescriptor struct {
	FieldName      string            `json:"fieldName"`
	FieldType      string            `json:"fieldType"`
	Nullable       *bool             `json:"nullable,omitempty"`
	AllowedValues  []string          `json:"allowedValues,omitempty"`
	Min            *float64          `json:"min,omitempty"`
	Max            *float64          `json:"max,omitempty"`
	MinLength      *int              `json:"minLength,omitempty"`
	MaxLength      *int              `json:"maxLength,omitempty"`
	DefaultValue   any               `json:"defaultValue,omitempty"`
	DocumentFields []FieldDescriptor `json:"documentFields,omitempty"`
}

// IsNullable reports the nullable flag, defaulting to true when unset.
func (f *FieldDescriptor) IsNullable() bool {
	return f.Nullable == nil || *f.Nullable
}

// EntityDescriptor is the runtime definition of one entity: a URI name, a
// display label, an ordered field list, an ordered composite key and an
// optional auto-incrementing field. Treated as immutable once constructed.
type EntityDescriptor struct {
	URIName       string            `json:"uriName"`
	EntityName    string            `json:"entityName,omitempty"`
	SequenceField string            `json:"sequenceField,omitempty"`
	Keys          []string          `json:"keys"`
	Fields        []FieldDescriptor `json:"fields"`
}

// CollectionName derives the storage collection identifier. It is never
// persisted; stored descriptors carry only the uriName.
func (d *EntityDescriptor) CollectionName() string {
	return CollectionPrefix + d.URIName
}

// FieldByName returns the declared field with the given name, or nil.
func (d *EntityDescriptor) FieldByName(name string) *FieldDescriptor {
	for i := range d.Fields {
		if d.Fields[i].FieldName == name {
			return &d.Fields[i]
		}
	}
	return nil
}

// FieldNames returns the declared field names in declaration order.
func (d *EntityDescriptor) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i := range d.Fields {
		names[i] = d.Fields[i].FieldName
	}
	return names
}
