package types

import (
	"encoding/json"
	"math"
	"testing"
)

func TestMetadataValueVariants(t *testing.T) {
	tests := []struct {
		name        string
		value       MetadataValue
		wantType    MetadataType
		wantNumeric bool
		wantDouble  float64
	}{
		{
			name:        "int variant",
			value:       IntValue(42),
			wantType:    MetadataInt,
			wantNumeric: true,
			wantDouble:  42.0,
		},
		{
			name:        "float variant",
			value:       FloatValue(0.125),
			wantType:    MetadataFloat,
			wantNumeric: true,
			wantDouble:  0.125,
		},
		{
			name:        "string variant",
			value:       StringValue("cntx"),
			wantType:    MetadataString,
			wantNumeric: false,
		},
		{
			name:        "zero value is int",
			value:       MetadataValue{},
			wantType:    MetadataInt,
			wantNumeric: true,
			wantDouble:  0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", tt.value.Type, tt.wantType)
			}
			if tt.value.IsNumeric() != tt.wantNumeric {
				t.Errorf("IsNumeric() = %v, want %v", tt.value.IsNumeric(), tt.wantNumeric)
			}
			if tt.wantNumeric && tt.value.Numeric() != tt.wantDouble {
				t.Errorf("Numeric() = %v, want %v", tt.value.Numeric(), tt.wantDouble)
			}
		})
	}
}

func TestMetadataValueNumericOnString(t *testing.T) {
	v := StringValue("not a number")
	if !math.IsNaN(v.Numeric()) {
		t.Errorf("Numeric() on string = %v, want NaN", v.Numeric())
	}
}

func TestNaNValue(t *testing.T) {
	v := NaNValue()
	if !v.IsNumeric() {
		t.Errorf("IsNumeric() = false, want true")
	}
	if !math.IsNaN(v.Numeric()) {
		t.Errorf("Numeric() = %v, want NaN", v.Numeric())
	}
}

func TestMetadataValueMarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		value MetadataValue
		want  string
	}{
		{name: "int", value: IntValue(7), want: "7"},
		{name: "float", value: FloatValue(2.5), want: "2.5"},
		{name: "string", value: StringValue("ocean"), want: `"ocean"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.value)
			if err != nil {
				t.Fatalf("Marshal() error = %v, want nil", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAssignmentsClone(t *testing.T) {
	a := AsdpEntry{FieldID: IntValue(1)}
	b := AsdpEntry{FieldID: IntValue(2)}

	outer := AsdpAssignments{"x": a}
	inner := outer.Clone("y", b)

	if len(outer) != 1 {
		t.Errorf("outer assignments mutated: len = %d, want 1", len(outer))
	}
	if inner["x"].ID() != 1 {
		t.Errorf("inner[x].ID() = %d, want 1", inner["x"].ID())
	}
	if inner["y"].ID() != 2 {
		t.Errorf("inner[y].ID() = %d, want 2", inner["y"].ID())
	}

	// Rebinding an existing variable shadows without touching the outer map
	shadowed := outer.Clone("x", b)
	if shadowed["x"].ID() != 2 {
		t.Errorf("shadowed[x].ID() = %d, want 2", shadowed["x"].ID())
	}
	if outer["x"].ID() != 1 {
		t.Errorf("outer[x].ID() = %d, want 1 after shadowing clone", outer["x"].ID())
	}
}

func TestParseDownlinkState(t *testing.T) {
	for _, valid := range []int{0, 1, 2} {
		if _, err := ParseDownlinkState(valid); err != nil {
			t.Errorf("ParseDownlinkState(%d) error = %v, want nil", valid, err)
		}
	}
	if _, err := ParseDownlinkState(3); err == nil {
		t.Errorf("ParseDownlinkState(3) error = nil, want error")
	}
}
