// Package types provides domain models shared across SYNOPSIS components.
//
// types.go, value.go, and errors.go use only the standard library. The ID
// utilities in ids.go import uuid, so every importer of this package
// depends on uuid as well.
package types

// Status is the outcome of a top-level engine operation.
// Values are stable and mirrored by CLI exit codes.
type Status int

const (
	StatusSuccess Status = 0
	StatusFailure Status = 1
	StatusTimeout Status = 2
)

// String returns the canonical upper-case name for logs and CLI output.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusFailure:
		return "FAILURE"
	case StatusTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// DownlinkState tracks an ASDP through the downlink lifecycle.
// DOWNLINKED products are excluded from future prioritizations.
type DownlinkState int

const (
	Untransmitted DownlinkState = 0
	Transmitted   DownlinkState = 1
	Downlinked    DownlinkState = 2
)

// String returns the canonical upper-case name for logs and CLI output.
func (d DownlinkState) String() string {
	switch d {
	case Untransmitted:
		return "UNTRANSMITTED"
	case Transmitted:
		return "TRANSMITTED"
	case Downlinked:
		return "DOWNLINKED"
	default:
		return "UNKNOWN"
	}
}

// ParseDownlinkState converts a stored integer to a DownlinkState.
// Rejects values outside the enum so corrupted rows surface at read time.
func ParseDownlinkState(v int) (DownlinkState, error) {
	switch DownlinkState(v) {
	case Untransmitted, Transmitted, Downlinked:
		return DownlinkState(v), nil
	default:
		return 0, ErrInvalidDownlinkState
	}
}

// MetadataType tags the active variant of a MetadataValue.
// Values match the catalog METADATA.type column encoding.
type MetadataType int

const (
	MetadataInt    MetadataType = 0
	MetadataFloat  MetadataType = 1
	MetadataString MetadataType = 2
)

// Limits on rule configurations.
const (
	// MaxExpressionDepth bounds AST nesting to prevent stack exhaustion on
	// corrupted rule configurations. 64 levels is far beyond any
	// operational rule while keeping recursive descent cheap to guard.
	MaxExpressionDepth = 64

	// MaxRuleVariables is the largest quantifier arity with defined
	// application semantics. Parsing accepts any arity; when applied, rules
	// above it are inert and constraints above one variable are vacuously
	// satisfied.
	MaxRuleVariables = 2
)

// Promoted first-class ASDP fields. Every populated AsdpEntry carries these
// keys in addition to its free-form metadata bag.
const (
	FieldID         = "id"
	FieldInstrument = "instrument_name"
	FieldType       = "type"
	FieldSize       = "size"
	FieldSUE        = "science_utility_estimate"
	FieldBin        = "priority_bin"
	FieldFinalSUE   = "final_science_utility_estimate"
)
