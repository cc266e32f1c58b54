/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

import (
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/suparena/dyndata/errors"
)

// Document is an untyped attribute map as read from or written to the store.
type Document = map[string]any

// DescriptorFromDocument re-materializes an EntityDescriptor from a stored
// schema document. Store backends surface numbers in their own native forms
// (int32/int64, Decimal128, json.Number), so decoding runs through hooks that
// normalize them onto the descriptor's field types.
func DescriptorFromDocument(doc Document) (*EntityDescriptor, error) {
	var descriptor EntityDescriptor
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &descriptor,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       decimalDecodeHook,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(doc); err != nil {
		return nil, errors.NewSchemaError("stored entity descriptor is malformed: %v", err)
	}
	return &descriptor, nil
}

// decimalDecodeHook converts primitive.Decimal128 values (the typed form of
// min/max in stored descriptors) into float64 for the decoder.
func decimalDecodeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	dec, ok := data.(primitive.Decimal128)
	if !ok {
		return data, nil
	}
	f, err := strconv.ParseFloat(dec.String(), 64)
	if err != nil {
		return nil, &errors.NumberError{Kind: "Decimal", Value: dec.String()}
	}
	return f, nil
}
