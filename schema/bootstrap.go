/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"github.com/suparena/dyndata/codec"
	"github.com/suparena/dyndata/model"
)

// newConfigDescriptor builds the descriptor of descriptors: the configuration
// collection described as an EntityDescriptor, so schema records are shaped
// and validated by the same codec as ordinary data. Constructed once at
// process start and treated as immutable thereafter.
func newConfigDescriptor(reg *codec.Registry) *model.EntityDescriptor {
	// fieldFields describes one FieldDescriptor. Its documentFields entry
	// points back at the same slice, so nested document declarations are
	// accepted at any depth.
	fieldFields := []model.FieldDescriptor{
		{FieldName: "fieldName", FieldType: "String", Nullable: boolPtr(false)},
		{FieldName: "fieldType", FieldType: "String", Nullable: boolPtr(false), AllowedValues: reg.Names()},
		{FieldName: "nullable", FieldType: "Bool", Nullable: boolPtr(false), DefaultValue: "true"},
		{FieldName: "allowedValues", FieldType: "String[]"},
		{FieldName: "min", FieldType: "Decimal"},
		{FieldName: "max", FieldType: "Decimal"},
		{FieldName: "minLength", FieldType: "Integer"},
		{FieldName: "maxLength", FieldType: "Integer"},
		{FieldName: "defaultValue", FieldType: "String"},
		{FieldName: "documentFields", FieldType: "Document[]"},
	}
	fieldFields[len(fieldFields)-1].DocumentFields = fieldFields

	return &model.EntityDescriptor{
		URIName: model.ConfigDescriptorURI,
		Keys:    []string{model.URINameField},
		Fields: []model.FieldDescriptor{
			{FieldName: model.URINameField, FieldType: "String", Nullable: boolPtr(false)},
			{FieldName: model.EntityNameField, FieldType: "String", Nullable: boolPtr(false)},
			{FieldName: model.SequenceField, FieldType: "String"},
			{FieldName: model.KeysField, FieldType: "String[]", Nullable: boolPtr(false), MinLength: intPtr(1)},
			{FieldName: model.FieldsField, FieldType: "Document[]", Nullable: boolPtr(false), DocumentFields: fieldFields},
		},
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func intPtr(i int) *int {
	return &i
}
