package types

import "errors"

// Sentinel errors for SYNOPSIS operations.
var (
	// ErrNotFound indicates a catalog lookup for a nonexistent ASDP id.
	ErrNotFound = errors.New("data product not found")

	// ErrNoRowsUpdated indicates a catalog update that affected zero rows.
	ErrNoRowsUpdated = errors.New("update affected no rows")

	// ErrTimeout indicates the prioritization time budget expired.
	ErrTimeout = errors.New("processing time budget exceeded")

	// ErrNotInitialized indicates use of a component before initialization.
	ErrNotInitialized = errors.New("component not initialized")

	// ErrInvalidDownlinkState indicates a stored state outside the enum.
	ErrInvalidDownlinkState = errors.New("invalid downlink state")

	// ErrMalformedNode indicates an AST node that is not an object with
	// __type__ and __contents__ keys.
	ErrMalformedNode = errors.New("malformed expression node")

	// ErrUnknownNodeType indicates an unrecognized __type__ value.
	ErrUnknownNodeType = errors.New("unknown expression node type")

	// ErrMissingArgument indicates an absent __contents__ argument.
	ErrMissingArgument = errors.New("missing expression argument")

	// ErrWrongArgumentType indicates an argument of the wrong JSON type.
	ErrWrongArgumentType = errors.New("wrong expression argument type")

	// ErrExpressionTooDeep indicates AST nesting beyond MaxExpressionDepth.
	ErrExpressionTooDeep = errors.New("expression exceeds maximum depth")
)
