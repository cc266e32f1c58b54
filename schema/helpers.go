/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"fmt"
	"strings"

	"github.com/suparena/dyndata/errors"
)

func stringValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func requireNonEmpty(data map[string]any, field, label string) (string, error) {
	if data[field] == nil {
		return "", errors.NewSchemaError("%s cannot be null", label)
	}
	value := strings.TrimSpace(stringValue(data[field]))
	if value == "" {
		return "", errors.NewSchemaError("%s cannot be empty", label)
	}
	return value, nil
}

// stringList accepts []string or the []any form JSON decoding produces.
func stringList(v any, label string) ([]string, error) {
	switch list := v.(type) {
	case nil:
		return nil, errors.NewSchemaError("%s list cannot be null", label)
	case []string:
		return list, nil
	case []any:
		out := make([]string, len(list))
		for i, item := range list {
			out[i] = stringValue(item)
		}
		return out, nil
	default:
		return nil, errors.NewSchemaError("%s must be an array", label)
	}
}

// documentList accepts []map[string]any or the []any form JSON decoding
// produces.
func documentList(v any, label string) ([]map[string]any, error) {
	switch list := v.(type) {
	case nil:
		return nil, errors.NewSchemaError("%s list cannot be null", label)
	case []map[string]any:
		return list, nil
	case []any:
		out := make([]map[string]any, len(list))
		for i, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, errors.NewSchemaError("%s entries must be objects, found %T", label, item)
			}
			out[i] = m
		}
		return out, nil
	default:
		return nil, errors.NewSchemaError("%s must be an array", label)
	}
}

func distinct(values []string) []string {
	seen := map[string]bool{}
	out := values[:0:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
