package eip712

import "errors"

// Error categories. Everything returned by this package wraps one of these,
// so callers can classify failures with errors.Is.
var (
	// ErrSchemaDefinition reports an invalid width/length parameter on a
	// member type, a duplicate member name, or mutation of a sealed schema.
	ErrSchemaDefinition = errors.New("invalid schema definition")

	// ErrValidation reports a value that does not satisfy its declared
	// member type: missing, mistyped, out of range, or oversized.
	ErrValidation = errors.New("invalid value")

	// ErrResolution reports an unresolvable type graph (cyclic schema
	// references, inconsistent type tables) or a missing domain at digest
	// composition time.
	ErrResolution = errors.New("resolution failed")
)
