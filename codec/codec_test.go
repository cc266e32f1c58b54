/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/suparena/dyndata/errors"
	"github.com/suparena/dyndata/model"
)

// fakeSequence hands out consecutive numbers and records the entity it was
// asked for.
type fakeSequence struct {
	next    int64
	uriName string
	err     error
}

func (f *fakeSequence) Next(ctx context.Context, uriName string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.uriName = uriName
	f.next++
	return f.next, nil
}

func newTestCodec(seq SequenceSource) *Codec {
	return New(NewRegistry(), seq)
}

func boolPtr(b bool) *bool       { return &b }
func intPtr(i int) *int          { return &i }
func floatPtr(f float64) *float64 { return &f }

func mustDecimal(t *testing.T, s string) primitive.Decimal128 {
	t.Helper()
	d, err := primitive.ParseDecimal128(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func TestCoerceScalars(t *testing.T) {
	c := newTestCodec(nil)
	ctx := context.Background()

	wantTime, _ := time.Parse(TimestampLayout, "2024-03-01T10:30:00.000+0100")

	tests := []struct {
		name  string
		kind  string
		value any
		want  any
	}{
		{"string passes through", "String", "hello", "hello"},
		{"number becomes string", "String", json.Number("42"), "42"},
		{"bool becomes string", "String", true, "true"},
		{"long from int64", "Long", int64(9), int64(9)},
		{"long from json number", "Long", json.Number("12345678901"), int64(12345678901)},
		{"long from string", "Long", "77", int64(77)},
		{"integer from int32", "Integer", int32(5), int32(5)},
		{"integer from json number", "Integer", json.Number("41"), int32(41)},
		{"bool passes through", "Bool", true, true},
		{"bool from string is case insensitive", "Bool", "TRUE", true},
		{"bool from other string is false", "Bool", "yes", false},
		{"timestamp from literal", "Timestamp", "2024-03-01T10:30:00.000+0100", wantTime},
		{"timestamp from epoch millis", "Timestamp", json.Number("1700000000000"), time.UnixMilli(1700000000000).UTC()},
		{"timestamp passes through", "Timestamp", wantTime, wantTime},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kind, err := c.Registry().Lookup(tc.kind)
			if err != nil {
				t.Fatalf("lookup %s: %v", tc.kind, err)
			}
			got, err := c.CoerceValue(ctx, tc.value, kind, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotTime, ok := got.(time.Time); ok {
				if !gotTime.Equal(tc.want.(time.Time)) {
					t.Errorf("got %v, want %v", gotTime, tc.want)
				}
				return
			}
			if got != tc.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, tc.want, tc.want)
			}
		})
	}

	t.Run("decimal from json number", func(t *testing.T) {
		kind, _ := c.Registry().Lookup("Decimal")
		got, err := c.CoerceValue(ctx, json.Number("3.14"), kind, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.(primitive.Decimal128).String() != "3.14" {
			t.Errorf("got %v, want 3.14", got)
		}
	})

	t.Run("decimal passes through", func(t *testing.T) {
		kind, _ := c.Registry().Lookup("Decimal")
		d := mustDecimal(t, "2.5")
		got, err := c.CoerceValue(ctx, d, kind, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != d {
			t.Errorf("got %v, want %v", got, d)
		}
	})
}

func TestCoerceFailures(t *testing.T) {
	c := newTestCodec(nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		kind     string
		value    any
		sentinel error
	}{
		{"long from letters", "Long", "abc", errors.ErrNumberFormat},
		{"integer overflow", "Integer", json.Number("3000000000"), errors.ErrNumberFormat},
		{"decimal from letters", "Decimal", "abc", errors.ErrNumberFormat},
		{"bool from number", "Bool", json.Number("1"), errors.ErrFieldValidation},
		{"timestamp from bad literal", "Timestamp", "2024-03-01", errors.ErrTimestampFormat},
		{"timestamp from bool", "Timestamp", true, errors.ErrTimestampFormat},
		{"document from string", "Document", "oops", errors.ErrDocumentParse},
		{"scalar given an array", "Long", []any{int64(1)}, errors.ErrFieldValidation},
		{"array given a scalar", "Long[]", int64(1), errors.ErrFieldValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kind, err := c.Registry().Lookup(tc.kind)
			if err != nil {
				t.Fatalf("lookup %s: %v", tc.kind, err)
			}
			_, err = c.CoerceValue(ctx, tc.value, kind, nil)
			if !errors.Is(err, tc.sentinel) {
				t.Errorf("got %v, want sentinel %v", err, tc.sentinel)
			}
		})
	}
}

func TestCoerceArrays(t *testing.T) {
	c := newTestCodec(nil)
	ctx := context.Background()

	t.Run("coerces each element", func(t *testing.T) {
		kind, _ := c.Registry().Lookup("Long[]")
		got, err := c.CoerceValue(ctx, []any{json.Number("1"), "2", int64(3)}, kind, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		items := got.([]any)
		want := []int64{1, 2, 3}
		if len(items) != len(want) {
			t.Fatalf("got %d items, want %d", len(items), len(want))
		}
		for i, w := range want {
			if items[i] != w {
				t.Errorf("item %d: got %v, want %v", i, items[i], w)
			}
		}
	})

	t.Run("element failure propagates", func(t *testing.T) {
		kind, _ := c.Registry().Lookup("Long[]")
		_, err := c.CoerceValue(ctx, []any{int64(1), "abc"}, kind, nil)
		if !errors.Is(err, errors.ErrNumberFormat) {
			t.Errorf("got %v, want number format error", err)
		}
	})

	t.Run("string is not an array", func(t *testing.T) {
		kind, _ := c.Registry().Lookup("String[]")
		_, err := c.CoerceValue(ctx, "abc", kind, nil)
		if !errors.Is(err, errors.ErrFieldValidation) {
			t.Errorf("got %v, want field validation error", err)
		}
	})
}

func TestToDocument(t *testing.T) {
	ctx := context.Background()

	descriptor := &model.EntityDescriptor{
		URIName:    "person",
		EntityName: "Person",
		Keys:       []string{"id"},
		Fields: []model.FieldDescriptor{
			{FieldName: "id", FieldType: "Long", Nullable: boolPtr(false)},
			{FieldName: "name", FieldType: "String", Nullable: boolPtr(false)},
			{FieldName: "nickname", FieldType: "String"},
		},
	}

	t.Run("shapes and drops undeclared attributes", func(t *testing.T) {
		c := newTestCodec(nil)
		doc, err := c.ToDocument(ctx, descriptor, map[string]any{
			"id":       json.Number("1"),
			"name":     "Ada",
			"unknown":  "dropped",
			"nickname": nil,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc["id"] != int64(1) || doc["name"] != "Ada" {
			t.Errorf("unexpected document: %v", doc)
		}
		if _, present := doc["unknown"]; present {
			t.Error("undeclared attribute was not dropped")
		}
		if v, present := doc["nickname"]; !present || v != nil {
			t.Errorf("nullable field should be present as null, got %v (present=%v)", v, present)
		}
	})

	t.Run("null key is rejected", func(t *testing.T) {
		c := newTestCodec(nil)
		_, err := c.ToDocument(ctx, descriptor, map[string]any{"name": "Ada"})
		if !errors.Is(err, errors.ErrEntityKey) {
			t.Errorf("got %v, want entity key error", err)
		}
	})

	t.Run("null non-nullable field is rejected", func(t *testing.T) {
		c := newTestCodec(nil)
		_, err := c.ToDocument(ctx, descriptor, map[string]any{"id": int64(1)})
		if !errors.Is(err, errors.ErrFieldValidation) {
			t.Errorf("got %v, want field validation error", err)
		}
	})
}

func TestNullPrecedence(t *testing.T) {
	ctx := context.Background()

	t.Run("sequence wins over default and key rejection", func(t *testing.T) {
		seq := &fakeSequence{}
		c := newTestCodec(seq)
		descriptor := &model.EntityDescriptor{
			URIName:       "invoice",
			SequenceField: "id",
			Keys:          []string{"id"},
			Fields: []model.FieldDescriptor{
				{FieldName: "id", FieldType: "Long", Nullable: boolPtr(false), DefaultValue: "99"},
			},
		}
		doc, err := c.ToDocument(ctx, descriptor, map[string]any{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc["id"] != int64(1) {
			t.Errorf("got %v, want the sequence value 1", doc["id"])
		}
		if seq.uriName != "invoice" {
			t.Errorf("sequence asked for %q, want invoice", seq.uriName)
		}
	})

	t.Run("explicit value bypasses the sequence", func(t *testing.T) {
		seq := &fakeSequence{}
		c := newTestCodec(seq)
		descriptor := &model.EntityDescriptor{
			URIName:       "invoice",
			SequenceField: "id",
			Keys:          []string{"id"},
			Fields:        []model.FieldDescriptor{{FieldName: "id", FieldType: "Long"}},
		}
		doc, err := c.ToDocument(ctx, descriptor, map[string]any{"id": int64(7)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc["id"] != int64(7) {
			t.Errorf("got %v, want 7", doc["id"])
		}
		if seq.next != 0 {
			t.Error("sequence was consulted for a non-null value")
		}
	})

	t.Run("default value wins over rejection", func(t *testing.T) {
		c := newTestCodec(nil)
		descriptor := &model.EntityDescriptor{
			URIName: "person",
			Fields: []model.FieldDescriptor{
				{FieldName: "role", FieldType: "String", Nullable: boolPtr(false), DefaultValue: "user"},
			},
		}
		doc, err := c.ToDocument(ctx, descriptor, map[string]any{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc["role"] != "user" {
			t.Errorf("got %v, want the default value", doc["role"])
		}
	})

	t.Run("default value is coerced to the field kind", func(t *testing.T) {
		c := newTestCodec(nil)
		descriptor := &model.EntityDescriptor{
			URIName: "person",
			Fields: []model.FieldDescriptor{
				{FieldName: "age", FieldType: "Integer", DefaultValue: "18"},
			},
		}
		doc, err := c.ToDocument(ctx, descriptor, map[string]any{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc["age"] != int32(18) {
			t.Errorf("got %v (%T), want int32(18)", doc["age"], doc["age"])
		}
	})

	t.Run("sequence error propagates", func(t *testing.T) {
		seq := &fakeSequence{err: context.DeadlineExceeded}
		c := newTestCodec(seq)
		descriptor := &model.EntityDescriptor{
			URIName:       "invoice",
			SequenceField: "id",
			Fields:        []model.FieldDescriptor{{FieldName: "id", FieldType: "Long"}},
		}
		if _, err := c.ToDocument(ctx, descriptor, map[string]any{}); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("got %v, want the sequence failure", err)
		}
	})
}

func TestConstraints(t *testing.T) {
	ctx := context.Background()
	c := newTestCodec(nil)

	t.Run("numeric bounds are inclusive", func(t *testing.T) {
		descriptor := &model.EntityDescriptor{
			URIName: "person",
			Fields: []model.FieldDescriptor{
				{FieldName: "age", FieldType: "Integer", Min: floatPtr(18), Max: floatPtr(65)},
			},
		}
		for _, v := range []int64{18, 65} {
			if _, err := c.ToDocument(ctx, descriptor, map[string]any{"age": v}); err != nil {
				t.Errorf("boundary value %d rejected: %v", v, err)
			}
		}
		for _, v := range []int64{17, 66} {
			if _, err := c.ToDocument(ctx, descriptor, map[string]any{"age": v}); !errors.Is(err, errors.ErrFieldValidation) {
				t.Errorf("out-of-bounds value %d: got %v, want field validation error", v, err)
			}
		}
	})

	t.Run("decimal bounds", func(t *testing.T) {
		descriptor := &model.EntityDescriptor{
			URIName: "product",
			Fields: []model.FieldDescriptor{
				{FieldName: "price", FieldType: "Decimal", Min: floatPtr(0)},
			},
		}
		if _, err := c.ToDocument(ctx, descriptor, map[string]any{"price": json.Number("-0.01")}); !errors.Is(err, errors.ErrFieldValidation) {
			t.Errorf("got %v, want field validation error", err)
		}
	})

	t.Run("whitelist wins over length bounds", func(t *testing.T) {
		descriptor := &model.EntityDescriptor{
			URIName: "person",
			Fields: []model.FieldDescriptor{
				{
					FieldName: "role", FieldType: "String",
					AllowedValues: []string{"admin", "user"},
					MaxLength:     intPtr(2),
				},
			},
		}
		// "admin" exceeds maxLength but the whitelist alone governs.
		if _, err := c.ToDocument(ctx, descriptor, map[string]any{"role": "admin"}); err != nil {
			t.Errorf("whitelisted value rejected: %v", err)
		}
		if _, err := c.ToDocument(ctx, descriptor, map[string]any{"role": "guest"}); !errors.Is(err, errors.ErrFieldValidation) {
			t.Errorf("got %v, want field validation error", err)
		}
	})

	t.Run("text length counts characters", func(t *testing.T) {
		descriptor := &model.EntityDescriptor{
			URIName: "person",
			Fields: []model.FieldDescriptor{
				{FieldName: "name", FieldType: "String", MinLength: intPtr(2), MaxLength: intPtr(4)},
			},
		}
		if _, err := c.ToDocument(ctx, descriptor, map[string]any{"name": "日本語"}); err != nil {
			t.Errorf("three-rune value rejected: %v", err)
		}
		if _, err := c.ToDocument(ctx, descriptor, map[string]any{"name": "x"}); !errors.Is(err, errors.ErrFieldValidation) {
			t.Errorf("got %v, want field validation error", err)
		}
	})

	t.Run("array length counts elements", func(t *testing.T) {
		descriptor := &model.EntityDescriptor{
			URIName: "person",
			Fields: []model.FieldDescriptor{
				{FieldName: "tags", FieldType: "String[]", MinLength: intPtr(1), MaxLength: intPtr(2)},
			},
		}
		if _, err := c.ToDocument(ctx, descriptor, map[string]any{"tags": []any{"a", "b"}}); err != nil {
			t.Errorf("in-bounds array rejected: %v", err)
		}
		if _, err := c.ToDocument(ctx, descriptor, map[string]any{"tags": []any{"a", "b", "c"}}); !errors.Is(err, errors.ErrFieldValidation) {
			t.Errorf("got %v, want field validation error", err)
		}
	})

	t.Run("constraints skip null values", func(t *testing.T) {
		descriptor := &model.EntityDescriptor{
			URIName: "person",
			Fields: []model.FieldDescriptor{
				{FieldName: "age", FieldType: "Integer", Min: floatPtr(18)},
			},
		}
		if _, err := c.ToDocument(ctx, descriptor, map[string]any{}); err != nil {
			t.Errorf("null value should bypass bounds: %v", err)
		}
	})
}

func TestNestedDocuments(t *testing.T) {
	ctx := context.Background()
	c := newTestCodec(nil)

	descriptor := &model.EntityDescriptor{
		URIName: "person",
		Fields: []model.FieldDescriptor{
			{
				FieldName: "address", FieldType: "Document",
				DocumentFields: []model.FieldDescriptor{
					{FieldName: "city", FieldType: "String", Nullable: boolPtr(false)},
					{
						FieldName: "geo", FieldType: "Document",
						DocumentFields: []model.FieldDescriptor{
							{FieldName: "lat", FieldType: "Decimal", Nullable: boolPtr(false)},
						},
					},
				},
			},
		},
	}

	t.Run("recursive shaping", func(t *testing.T) {
		doc, err := c.ToDocument(ctx, descriptor, map[string]any{
			"address": map[string]any{
				"city": "Berlin",
				"geo":  map[string]any{"lat": json.Number("52.52")},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		address := doc["address"].(model.Document)
		if address["city"] != "Berlin" {
			t.Errorf("unexpected nested document: %v", address)
		}
		geo := address["geo"].(model.Document)
		if geo["lat"].(primitive.Decimal128).String() != "52.52" {
			t.Errorf("unexpected deep value: %v", geo["lat"])
		}
	})

	t.Run("failure path names every level", func(t *testing.T) {
		_, err := c.ToDocument(ctx, descriptor, map[string]any{
			"address": map[string]any{
				"city": "Berlin",
				"geo":  map[string]any{},
			},
		})
		if err == nil {
			t.Fatal("expected an error for a null non-nullable deep field")
		}
		want := "[address=>geo=>lat] " + `field "lat": value cannot be null`
		if err.Error() != want {
			t.Errorf("got %q, want %q", err.Error(), want)
		}
	})

	t.Run("document array", func(t *testing.T) {
		d := &model.EntityDescriptor{
			URIName: "person",
			Fields: []model.FieldDescriptor{
				{
					FieldName: "contacts", FieldType: "Document[]",
					DocumentFields: []model.FieldDescriptor{
						{FieldName: "email", FieldType: "String"},
					},
				},
			},
		}
		doc, err := c.ToDocument(ctx, d, map[string]any{
			"contacts": []any{
				map[string]any{"email": "a@example.com"},
				map[string]any{"email": "b@example.com"},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		contacts := doc["contacts"].([]any)
		if len(contacts) != 2 {
			t.Fatalf("got %d contacts, want 2", len(contacts))
		}
		if contacts[1].(model.Document)["email"] != "b@example.com" {
			t.Errorf("unexpected element: %v", contacts[1])
		}
	})
}

func TestUnregisteredFieldType(t *testing.T) {
	c := newTestCodec(nil)
	descriptor := &model.EntityDescriptor{
		URIName: "person",
		Fields:  []model.FieldDescriptor{{FieldName: "x", FieldType: "Float"}},
	}
	_, err := c.ToDocument(context.Background(), descriptor, map[string]any{"x": 1})
	if !errors.Is(err, errors.ErrSchemaValidation) {
		t.Errorf("got %v, want schema validation error", err)
	}
}
