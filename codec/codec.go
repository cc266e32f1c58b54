/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/suparena/dyndata/errors"
	"github.com/suparena/dyndata/model"
)

// TimestampLayout is the accepted timestamp literal form: ISO-8601 with
// millisecond precision and a zone offset.
const TimestampLayout = "2006-01-02T15:04:05.000-0700"

// SequenceSource produces the next per-entity sequence number. The codec
// calls it when a declared sequence field arrives null.
type SequenceSource interface {
	Next(ctx context.Context, uriName string) (int64, error)
}

// Codec converts untyped attribute maps into typed, constraint-checked
// documents, driven by an EntityDescriptor. Stateless and safe for
// concurrent use.
type Codec struct {
	reg *Registry
	seq SequenceSource
}

// New constructs a Codec over the given registry. seq may be nil for callers
// that never shape documents with sequence fields (e.g. filter building).
func New(reg *Registry, seq SequenceSource) *Codec {
	return &Codec{reg: reg, seq: seq}
}

// Registry returns the kind registry the codec was built with.
func (c *Codec) Registry() *Registry {
	return c.reg
}

// ToDocument shapes values into a typed document per the descriptor's field
// list, applying coercion, the null-precedence rules (sequence field over
// default value over key rejection over nullability) and the per-field
// constraints. Keys of values not declared in the descriptor are dropped.
// Failures carry the field path, rendered as "[a=>b=>c] message".
func (c *Codec) ToDocument(ctx context.Context, descriptor *model.EntityDescriptor, values map[string]any) (model.Document, error) {
	tr := &tracker{}
	return c.buildDocument(ctx, descriptor.Fields, values, tr, descriptor)
}

// CoerceValue applies the coercion rule for a single value of the given kind.
// nested describes the field list for Document kinds. Null is accepted and
// returned as nil; nullability is the caller's concern.
func (c *Codec) CoerceValue(ctx context.Context, value any, kind Kind, nested []model.FieldDescriptor) (any, error) {
	return c.coerce(ctx, value, kind, nested, &tracker{})
}

// buildDocument walks the field list. descriptor is non-nil only at the top
// level; nested documents get no sequence or key treatment.
func (c *Codec) buildDocument(ctx context.Context, fields []model.FieldDescriptor, values map[string]any, tr *tracker, descriptor *model.EntityDescriptor) (model.Document, error) {
	result := model.Document{}
	for i := range fields {
		fd := &fields[i]
		tr.push(fd.FieldName)

		if !c.reg.Contains(fd.FieldType) {
			return nil, errors.WithPath(tr.items, errors.NewSchemaError("field type not registered (%s)", fd.FieldType))
		}
		kind := c.reg.kinds[fd.FieldType]

		value, err := c.coerce(ctx, values[fd.FieldName], kind, fd.DocumentFields, tr)
		if err != nil {
			return nil, errors.WithPath(tr.items, err)
		}

		if value == nil {
			value, err = c.resolveNull(ctx, fd, kind, tr, descriptor)
			if err != nil {
				return nil, errors.WithPath(tr.items, err)
			}
		} else if kind.IsNumeric() {
			if err := validateNumeric(fd, value); err != nil {
				return nil, errors.WithPath(tr.items, err)
			}
		} else if kind.IsText() || kind.IsArray() {
			if err := validateTextOrArray(fd, kind, value); err != nil {
				return nil, errors.WithPath(tr.items, err)
			}
		}

		result[fd.FieldName] = value
		tr.pop()
	}
	return result, nil
}

// resolveNull applies the null-precedence order: sequence substitution wins
// over default value, which wins over key rejection, which wins over general
// nullability rejection.
func (c *Codec) resolveNull(ctx context.Context, fd *model.FieldDescriptor, kind Kind, tr *tracker, descriptor *model.EntityDescriptor) (any, error) {
	if descriptor != nil && descriptor.SequenceField != "" && fd.FieldName == descriptor.SequenceField {
		if c.seq == nil {
			return nil, errors.NewValidationError("no sequence source configured for entity %q", descriptor.URIName)
		}
		next, err := c.seq.Next(ctx, descriptor.URIName)
		if err != nil {
			return nil, err
		}
		return c.coerce(ctx, next, kind, fd.DocumentFields, tr)
	}
	if fd.DefaultValue != nil {
		return c.coerce(ctx, fd.DefaultValue, kind, fd.DocumentFields, tr)
	}
	if descriptor != nil {
		for _, key := range descriptor.Keys {
			if key == fd.FieldName {
				return nil, errors.NewKeyError(fd.FieldName, "is an entity key and cannot be null")
			}
		}
	}
	if !fd.IsNullable() {
		return nil, errors.NewFieldError(fd.FieldName, "value cannot be null")
	}
	return nil, nil
}

// coerce applies the kind/array rule: an array kind requires a sequence value
// and coerces each element by the scalar rule; a scalar kind rejects
// sequences.
func (c *Codec) coerce(ctx context.Context, value any, kind Kind, nested []model.FieldDescriptor, tr *tracker) (any, error) {
	if value == nil {
		return nil, nil
	}

	isSequence := isSequenceValue(value)
	if kind.Array != isSequence {
		if kind.Array {
			return nil, errors.NewFieldError("", "value must be an array")
		}
		return nil, errors.NewFieldError("", "value must not be an array")
	}

	if kind.Array {
		rv := reflect.ValueOf(value)
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := c.coerceScalar(ctx, rv.Index(i).Interface(), kind.Scalar, nested, tr)
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		return out, nil
	}
	return c.coerceScalar(ctx, value, kind.Scalar, nested, tr)
}

func (c *Codec) coerceScalar(ctx context.Context, value any, s Scalar, nested []model.FieldDescriptor, tr *tracker) (any, error) {
	switch s {
	case Text:
		return stringify(value), nil

	case Int64:
		if v, ok := value.(int64); ok {
			return v, nil
		}
		v, err := strconv.ParseInt(stringify(value), 10, 64)
		if err != nil {
			return nil, &errors.NumberError{Kind: "Long", Value: stringify(value)}
		}
		return v, nil

	case Int32:
		if v, ok := value.(int32); ok {
			return v, nil
		}
		v, err := strconv.ParseInt(stringify(value), 10, 32)
		if err != nil {
			return nil, &errors.NumberError{Kind: "Integer", Value: stringify(value)}
		}
		return int32(v), nil

	case Decimal:
		if v, ok := value.(primitive.Decimal128); ok {
			return v, nil
		}
		v, err := primitive.ParseDecimal128(stringify(value))
		if err != nil {
			return nil, &errors.NumberError{Kind: "Decimal", Value: stringify(value)}
		}
		return v, nil

	case Bool:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			return strings.EqualFold(v, "true"), nil
		default:
			return nil, errors.NewFieldError("", "cannot cast %T to Bool", value)
		}

	case Timestamp:
		return coerceTimestamp(value)

	case Nested:
		m, ok := value.(map[string]any)
		if !ok {
			return nil, errors.NewParseError("element should be a map of values, found %T", value)
		}
		return c.buildDocument(ctx, nested, m, tr, nil)

	default:
		return nil, errors.NewValidationError("unhandled scalar kind %v", s)
	}
}

func coerceTimestamp(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case strfmt.DateTime:
		return time.Time(v), nil
	case string:
		t, err := time.Parse(TimestampLayout, v)
		if err != nil {
			return nil, &errors.TimestampError{Value: v}
		}
		return t, nil
	case json.Number:
		millis, err := v.Int64()
		if err != nil {
			return nil, &errors.TimestampError{Value: v.String()}
		}
		return time.UnixMilli(millis).UTC(), nil
	case int64:
		return time.UnixMilli(v).UTC(), nil
	case int:
		return time.UnixMilli(int64(v)).UTC(), nil
	case float64:
		return time.UnixMilli(int64(v)).UTC(), nil
	default:
		return nil, &errors.TimestampError{Value: fmt.Sprint(value)}
	}
}

// stringify is the natural string representation used by the parse-from-text
// coercion paths.
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// isSequenceValue reports whether the value is an array/slice (strings and
// byte slices do not count as sequences here).
func isSequenceValue(value any) bool {
	switch value.(type) {
	case string, []byte:
		return false
	}
	k := reflect.ValueOf(value).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// tracker is the field-path stack threaded through coercion for error context.
type tracker struct {
	items []string
}

func (t *tracker) push(name string) {
	t.items = append(t.items, name)
}

func (t *tracker) pop() {
	t.items = t.items[:len(t.items)-1]
}
