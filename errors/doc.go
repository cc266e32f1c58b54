/*
Package errors provides the semantic error taxonomy surfaced by the dyndata core.

Each error scenario has a sentinel checked with errors.Is and a concrete type
carrying context, plus a New* constructor:

	var (
	    ErrNotFound         = errors.New("not found")
	    ErrAlreadyExists    = errors.New("already exists")
	    ErrInvalidInput     = errors.New("invalid input")
	    ErrSchemaValidation = errors.New("schema validation failed")
	    ErrFieldValidation  = errors.New("field validation failed")
	    ErrEntityKey        = errors.New("entity key violation")
	    ErrDocumentParse    = errors.New("document parse failed")
	    ErrTimestampFormat  = errors.New("timestamp format invalid")
	    ErrNumberFormat     = errors.New("number format invalid")
	)

Coercion failures inside nested documents are wrapped in a FieldPathError,
which renders the field path as "[order=>items=>price] message" while keeping
the underlying kind reachable:

	if errors.Is(err, errors.ErrNumberFormat) {
	    // 400, not 500
	}

None of these errors are retried by the core; they are surfaced to the caller
with their message.
*/
package errors
