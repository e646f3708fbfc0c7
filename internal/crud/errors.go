package crud

import "errors"

// Sentinel errors used by the API layer for status mapping. Service
// methods wrap them with context via fmt.Errorf and %w.
var (
	// ErrNotFound reports a missing group, view, display group or category.
	ErrNotFound = errors.New("not found")

	// ErrProtected reports a delete blocked by a referential-integrity rule,
	// such as removing a group still referenced by views.
	ErrProtected = errors.New("protected")

	// ErrInvalid reports a validation failure, such as a display group
	// claiming a property the layer does not declare.
	ErrInvalid = errors.New("invalid")
)
