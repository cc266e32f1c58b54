/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"fmt"
	"testing"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"not found", NewNotFoundError("person", "42"), ErrNotFound},
		{"already exists", NewAlreadyExistsError("entity", "person"), ErrAlreadyExists},
		{"validation", NewValidationError("bad request"), ErrInvalidInput},
		{"schema", NewSchemaError("bad descriptor"), ErrSchemaValidation},
		{"field", NewFieldError("age", "value cannot be null"), ErrFieldValidation},
		{"key", NewKeyError("id", "cannot be null"), ErrEntityKey},
		{"parse", NewParseError("not a map"), ErrDocumentParse},
		{"timestamp", &TimestampError{Value: "yesterday"}, ErrTimestampFormat},
		{"number", &NumberError{Kind: "Long", Value: "abc"}, ErrNumberFormat},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if !Is(tc.err, tc.sentinel) {
				t.Errorf("expected %v to match sentinel %v", tc.err, tc.sentinel)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", NewNotFoundError("person", "42"), `person with key "42" not found`},
		{"already exists", NewAlreadyExistsError("entity", "person"), `entity: key "person" already registered`},
		{"field with name", NewFieldError("age", "value cannot be null"), `field "age": value cannot be null`},
		{"field without name", NewFieldError("", "value must be an array"), "value must be an array"},
		{"key", NewKeyError("id", "is an entity key and cannot be null"), `key field "id": is an entity key and cannot be null`},
		{"timestamp", &TimestampError{Value: "yesterday"}, `timestamp fields must use the ISO format, got "yesterday"`},
		{"number", &NumberError{Kind: "Integer", Value: "1e9"}, `invalid Integer literal: "1e9"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestWithPath(t *testing.T) {
	t.Run("renders the path", func(t *testing.T) {
		err := WithPath([]string{"a", "b", "c"}, NewFieldError("", "value cannot be null"))
		want := "[a=>b=>c] value cannot be null"
		if err.Error() != want {
			t.Errorf("got %q, want %q", err.Error(), want)
		}
	})

	t.Run("wrapped error stays reachable", func(t *testing.T) {
		err := WithPath([]string{"a"}, NewFieldError("x", "too small"))
		if !Is(err, ErrFieldValidation) {
			t.Error("expected wrapped field error to match ErrFieldValidation")
		}
		var fe *FieldError
		if !As(err, &fe) || fe.Field != "x" {
			t.Errorf("expected to unwrap FieldError for field x, got %+v", fe)
		}
	})

	t.Run("does not wrap twice", func(t *testing.T) {
		inner := WithPath([]string{"a", "b"}, NewParseError("not a map"))
		outer := WithPath([]string{"a"}, inner)
		if outer != inner {
			t.Errorf("expected pass-through, got %v", outer)
		}
	})

	t.Run("nil and empty path pass through", func(t *testing.T) {
		if WithPath([]string{"a"}, nil) != nil {
			t.Error("expected nil for nil error")
		}
		plain := NewParseError("x")
		if WithPath(nil, plain) != plain {
			t.Error("expected unchanged error for empty path")
		}
	})

	t.Run("copies the path", func(t *testing.T) {
		path := []string{"a", "b"}
		err := WithPath(path, NewParseError("x"))
		path[1] = "changed"
		if err.Error() != "[a=>b] x" {
			t.Errorf("path was not copied: %q", err.Error())
		}
	})
}

func TestIsClientError(t *testing.T) {
	client := []error{
		NewValidationError("bad"),
		NewSchemaError("bad"),
		NewFieldError("f", "bad"),
		NewKeyError("k", "bad"),
		NewParseError("bad"),
		&TimestampError{},
		&NumberError{Kind: "Long", Value: "x"},
		NewAlreadyExistsError("entity", "person"),
		WithPath([]string{"a"}, NewFieldError("f", "bad")),
	}
	for _, err := range client {
		if !IsClientError(err) {
			t.Errorf("expected %v to be a client error", err)
		}
	}

	server := []error{
		fmt.Errorf("connection refused"),
		NewNotFoundError("person", "1"),
	}
	for _, err := range server {
		if IsClientError(err) {
			t.Errorf("did not expect %v to be a client error", err)
		}
	}
}

func TestIsNotFoundAndIsAlreadyExists(t *testing.T) {
	if !IsNotFound(NewNotFoundError("person", "1")) {
		t.Error("expected IsNotFound to match")
	}
	if IsNotFound(NewValidationError("x")) {
		t.Error("did not expect IsNotFound to match a validation error")
	}
	if !IsAlreadyExists(NewAlreadyExistsError("entity", "p")) {
		t.Error("expected IsAlreadyExists to match")
	}
}
