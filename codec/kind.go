/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

// Scalar enumerates the closed set of scalar kinds. Kind-exhaustiveness is a
// compile-time concern: adding a scalar means visiting every switch over it.
type Scalar int

const (
	Text Scalar = iota
	Int64
	Int32
	Decimal
	Bool
	Timestamp
	Nested
)

// scalarNames are the public wire names, stable across stored configuration.
var scalarNames = map[Scalar]string{
	Text:      "String",
	Int64:     "Long",
	Int32:     "Integer",
	Decimal:   "Decimal",
	Bool:      "Bool",
	Timestamp: "Timestamp",
	Nested:    "Document",
}

func (s Scalar) String() string {
	return scalarNames[s]
}

// Kind identifies a field's type: a scalar or its array form.
type Kind struct {
	Scalar Scalar
	Array  bool
}

// Name returns the registry name of the kind, e.g. "Long" or "Long[]".
func (k Kind) Name() string {
	if k.Array {
		return k.Scalar.String() + "[]"
	}
	return k.Scalar.String()
}

// IsArray reports whether the kind is an array form.
func (k Kind) IsArray() bool {
	return k.Array
}

// IsNumeric reports whether the kind is a scalar numeric kind, the ones
// subject to min/max bounds.
func (k Kind) IsNumeric() bool {
	if k.Array {
		return false
	}
	switch k.Scalar {
	case Int64, Int32, Decimal:
		return true
	default:
		return false
	}
}

// IsText reports whether the kind is scalar text, the one subject to
// allowed-value whitelists and character-length bounds.
func (k Kind) IsText() bool {
	return !k.Array && k.Scalar == Text
}
