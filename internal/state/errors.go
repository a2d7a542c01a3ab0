package state

import "errors"

// Error taxonomy. Configuration and input errors fail fast at the call
// boundary; regression inexactness is never an error (see engine.Quality).
var (
	// ErrUnknownDimension: a dimension id that no registry entry covers.
	ErrUnknownDimension = errors.New("unknown dimension")

	// ErrDimensionInactive: an event or query referenced a dimension not
	// active for the entity's configured type.
	ErrDimensionInactive = errors.New("dimension not active for entity")

	// ErrAnchorExists: an attempt to pin a second anchor.
	ErrAnchorExists = errors.New("anchor already set")

	// ErrNoAnchor: a query against an entity with no anchor pinned.
	ErrNoAnchor = errors.New("no anchor set")

	// ErrOutOfRange: a requested delta or base shift outside [-1, 1] or
	// the dimension's declared bounds, rejected at event construction.
	ErrOutOfRange = errors.New("value out of range")
)
