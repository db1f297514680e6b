package types

import (
	"encoding/json"
	"math"
)

/*
 * ASDP metadata value model.
 *
 * MetadataValue is a tagged union of int, float, and string. Exactly one
 * variant is active, selected by Type; the inactive fields hold zero
 * values. The layout mirrors the catalog METADATA table (type tag plus one
 * column per variant) so values round-trip through storage without
 * conversion.
 *
 * Numeric semantics: integers participate in numeric expressions as
 * doubles. Numeric() is defined only when IsNumeric() is true; for string
 * values it returns NaN, the evaluator's neutral element, rather than
 * panicking.
 */

// MetadataValue is one typed metadata field value.
type MetadataValue struct {
	Type   MetadataType
	Int    int64
	Float  float64
	String string
}

// IntValue constructs an integer-variant value.
func IntValue(v int64) MetadataValue {
	return MetadataValue{Type: MetadataInt, Int: v}
}

// FloatValue constructs a float-variant value.
func FloatValue(v float64) MetadataValue {
	return MetadataValue{Type: MetadataFloat, Float: v}
}

// StringValue constructs a string-variant value.
func StringValue(v string) MetadataValue {
	return MetadataValue{Type: MetadataString, String: v}
}

// NaNValue is the neutral numeric value produced by failed evaluations.
func NaNValue() MetadataValue {
	return FloatValue(math.NaN())
}

// IsNumeric reports whether the value is an int or float variant.
func (v MetadataValue) IsNumeric() bool {
	return v.Type == MetadataInt || v.Type == MetadataFloat
}

// Numeric returns the value as a double, casting integer variants.
// Returns NaN for string variants.
func (v MetadataValue) Numeric() float64 {
	switch v.Type {
	case MetadataInt:
		return float64(v.Int)
	case MetadataFloat:
		return v.Float
	default:
		return math.NaN()
	}
}

// MarshalJSON renders the active variant as its native JSON scalar.
func (v MetadataValue) MarshalJSON() ([]byte, error) {
	switch v.Type {
	case MetadataInt:
		return json.Marshal(v.Int)
	case MetadataFloat:
		return json.Marshal(v.Float)
	default:
		return json.Marshal(v.String)
	}
}

// AsdpEntry maps field names to metadata values for a single ASDP.
// A populated entry always carries the promoted Field* keys.
type AsdpEntry map[string]MetadataValue

// AsdpList is an ordered ASDP sequence: either the queue under
// construction or the pool of remaining candidates. Order is significant.
type AsdpList []AsdpEntry

// AsdpAssignments binds quantifier variable names to ASDPs during
// expression evaluation.
type AsdpAssignments map[string]AsdpEntry

// Clone returns a copy of the assignments with one additional binding.
// Used by existential quantification so outer bindings are preserved.
func (a AsdpAssignments) Clone(variable string, asdp AsdpEntry) AsdpAssignments {
	next := make(AsdpAssignments, len(a)+1)
	for k, v := range a {
		next[k] = v
	}
	next[variable] = asdp
	return next
}

// ID returns the promoted ASDP identifier, or 0 if unset.
func (e AsdpEntry) ID() int64 {
	return e[FieldID].Int
}

// Size returns the promoted product size in bytes, or 0 if unset.
func (e AsdpEntry) Size() int64 {
	return e[FieldSize].Int
}
