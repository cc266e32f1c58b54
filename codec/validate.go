/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/suparena/dyndata/errors"
	"github.com/suparena/dyndata/model"
)

// validateNumeric enforces the inclusive [min, max] bounds on a coerced
// numeric value.
func validateNumeric(fd *model.FieldDescriptor, value any) error {
	if fd.Min == nil && fd.Max == nil {
		return nil
	}
	f, err := numericValue(value)
	if err != nil {
		return err
	}
	if fd.Min != nil && f < *fd.Min {
		return errors.NewFieldError(fd.FieldName, "value must be greater than or equal to %v", *fd.Min)
	}
	if fd.Max != nil && f > *fd.Max {
		return errors.NewFieldError(fd.FieldName, "value must be less than or equal to %v", *fd.Max)
	}
	return nil
}

func numericValue(value any) (float64, error) {
	switch v := value.(type) {
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return 0, &errors.NumberError{Kind: "Decimal", Value: v.String()}
		}
		return f, nil
	default:
		return 0, errors.NewValidationError("value %v is not numeric", value)
	}
}

// validateTextOrArray enforces the whitelist or the length bounds. A
// non-empty whitelist on a text field alone governs acceptance; otherwise
// minLength/maxLength apply to the character count of text or the element
// count of arrays.
func validateTextOrArray(fd *model.FieldDescriptor, kind Kind, value any) error {
	if kind.IsText() && len(fd.AllowedValues) > 0 {
		s := value.(string)
		for _, allowed := range fd.AllowedValues {
			if s == allowed {
				return nil
			}
		}
		return errors.NewFieldError(fd.FieldName, "invalid value %q; must be one of %v", s, fd.AllowedValues)
	}

	length := 0
	unit := "characters"
	if kind.IsText() {
		length = len([]rune(value.(string)))
	} else {
		length = len(value.([]any))
		unit = "items"
	}
	if fd.MinLength != nil && length < *fd.MinLength {
		return errors.NewFieldError(fd.FieldName, "must contain at least %d %s", *fd.MinLength, unit)
	}
	if fd.MaxLength != nil && length > *fd.MaxLength {
		return errors.NewFieldError(fd.FieldName, "must contain at most %d %s", *fd.MaxLength, unit)
	}
	return nil
}
