package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/NASA-AMMOS/synopsis/internal/types"
)

const orphanContextConfig = `{
  "default": {
    "rules": [
      {
        "__type__": "Rule",
        "__contents__": {
          "variables": ["x"],
          "application": {
            "__type__": "BinaryLogicalExpression",
            "__contents__": {
              "operator": "AND",
              "left_expression": {
                "__type__": "ComparatorExpression",
                "__contents__": {
                  "comparator": "==",
                  "left_expression": {
                    "__type__": "Field",
                    "__contents__": {"variable_name": "x", "field_name": "type"}
                  },
                  "right_expression": {
                    "__type__": "StringConstant",
                    "__contents__": {"value": "cntx"}
                  }
                }
              },
              "right_expression": {
                "__type__": "LogicalNot",
                "__contents__": {
                  "expression": {
                    "__type__": "ExistentialExpression",
                    "__contents__": {
                      "variable": "y",
                      "expression": {
                        "__type__": "ComparatorExpression",
                        "__contents__": {
                          "comparator": "==",
                          "left_expression": {
                            "__type__": "Field",
                            "__contents__": {"variable_name": "y", "field_name": "cntx_time"}
                          },
                          "right_expression": {
                            "__type__": "Field",
                            "__contents__": {"variable_name": "x", "field_name": "time"}
                          }
                        }
                      }
                    }
                  }
                }
              }
            }
          },
          "adjustment": {
            "__type__": "BinaryExpression",
            "__contents__": {
              "operator": "*",
              "left_expression": {
                "__type__": "MinusExpression",
                "__contents__": {
                  "expression": {
                    "__type__": "ConstExpression",
                    "__contents__": {"value": 0.5}
                  }
                }
              },
              "right_expression": {
                "__type__": "Field",
                "__contents__": {"variable_name": "x", "field_name": "final_science_utility_estimate"}
              }
            }
          },
          "max_applications": -1
        }
      }
    ],
    "constraints": []
  }
}`

func cntxEntry(id int64, kind string, fields map[string]types.MetadataValue) types.AsdpEntry {
	e := types.AsdpEntry{
		types.FieldID:   types.IntValue(id),
		types.FieldType: types.StringValue(kind),
	}
	for k, v := range fields {
		e[k] = v
	}
	return e
}

func TestParseOrphanContextRule(t *testing.T) {
	rs := ParseRuleConfig([]byte(orphanContextConfig), nil)

	rules := rs.Rules(0)
	if len(rules) != 1 {
		t.Fatalf("Rules(0) len = %d, want 1 (default fallback)", len(rules))
	}

	// One orphan context image and one context image with a matching zoom:
	// only the orphan's adjustment applies
	orphan := cntxEntry(1, "cntx", map[string]types.MetadataValue{
		"time":              types.IntValue(10),
		types.FieldFinalSUE: types.FloatValue(1.0),
	})
	paired := cntxEntry(2, "cntx", map[string]types.MetadataValue{
		"time":              types.IntValue(20),
		types.FieldFinalSUE: types.FloatValue(1.0),
	})
	zoom := cntxEntry(3, "zoom", map[string]types.MetadataValue{
		"cntx_time": types.IntValue(20),
	})

	queue := types.AsdpList{orphan, paired, zoom}
	ok, adjustment := rs.Apply(0, queue)
	if !ok {
		t.Fatalf("Apply() ok = false, want true")
	}
	if adjustment != -0.5 {
		t.Errorf("Apply() adjustment = %v, want -0.5", adjustment)
	}
}

func TestParseConstraintWithSumField(t *testing.T) {
	doc := `{
	  "7": {
	    "rules": [],
	    "constraints": [
	      {
	        "__type__": "Constraint",
	        "__contents__": {
	          "variables": ["x"],
	          "application": {
	            "__type__": "LogicalConstant",
	            "__contents__": {"value": true}
	          },
	          "sum_field": {
	            "__type__": "Field",
	            "__contents__": {"variable_name": "x", "field_name": "size"}
	          },
	          "constraint_value": 100
	        }
	      }
	    ]
	  }
	}`

	rs := ParseRuleConfig([]byte(doc), nil)
	constraints := rs.Constraints(7)
	if len(constraints) != 1 {
		t.Fatalf("Constraints(7) len = %d, want 1", len(constraints))
	}

	small := types.AsdpList{asdpWithSize(1, 60)}
	if got := constraints[0].Apply(small); !got {
		t.Errorf("Apply(60) = false, want true")
	}
	large := types.AsdpList{asdpWithSize(1, 60), asdpWithSize(2, 50)}
	if got := constraints[0].Apply(large); got {
		t.Errorf("Apply(110) = true, want false")
	}
}

func TestParseNullSumFieldSelectsCountMode(t *testing.T) {
	doc := `{
	  "default": {
	    "rules": [],
	    "constraints": [
	      {
	        "__type__": "Constraint",
	        "__contents__": {
	          "variables": ["x"],
	          "application": {
	            "__type__": "LogicalConstant",
	            "__contents__": {"value": true}
	          },
	          "sum_field": null,
	          "constraint_value": 2
	        }
	      }
	    ]
	  }
	}`

	rs := ParseRuleConfig([]byte(doc), nil)
	constraints := rs.Constraints(0)
	if len(constraints) != 1 {
		t.Fatalf("Constraints(0) len = %d, want 1", len(constraints))
	}
	if constraints[0].SumField != nil {
		t.Errorf("SumField != nil, want nil for count mode")
	}

	one := types.AsdpList{asdpWithSize(1, 10)}
	if got := constraints[0].Apply(one); !got {
		t.Errorf("Apply(1 product) = false, want true: 1 < 2")
	}
	two := types.AsdpList{asdpWithSize(1, 10), asdpWithSize(2, 10)}
	if got := constraints[0].Apply(two); got {
		t.Errorf("Apply(2 products) = true, want false: 2 >= 2")
	}
}

func TestParseMalformedRuleDropsOnlyThatRule(t *testing.T) {
	doc := `{
	  "default": {
	    "rules": [
	      {
	        "__type__": "Rule",
	        "__contents__": {
	          "variables": ["x"],
	          "application": {"__type__": "Bogus", "__contents__": {}},
	          "adjustment": {"__type__": "ConstExpression", "__contents__": {"value": 1}},
	          "max_applications": -1
	        }
	      },
	      {
	        "__type__": "Rule",
	        "__contents__": {
	          "variables": ["x"],
	          "application": {"__type__": "LogicalConstant", "__contents__": {"value": true}},
	          "adjustment": {"__type__": "ConstExpression", "__contents__": {"value": 2}},
	          "max_applications": -1
	        }
	      }
	    ],
	    "constraints": []
	  }
	}`

	rs := ParseRuleConfig([]byte(doc), nil)
	rules := rs.Rules(0)
	if len(rules) != 1 {
		t.Fatalf("Rules(0) len = %d, want 1 (malformed sibling dropped)", len(rules))
	}

	_, adj := rs.Apply(0, types.AsdpList{asdpWithSize(1, 10)})
	if adj != 2.0 {
		t.Errorf("Apply() adjustment = %v, want 2.0 from surviving rule", adj)
	}
}

func TestParseMissingMaxApplicationsDefaultsUnbounded(t *testing.T) {
	doc := `{
	  "default": {
	    "rules": [
	      {
	        "__type__": "Rule",
	        "__contents__": {
	          "variables": ["x"],
	          "application": {"__type__": "LogicalConstant", "__contents__": {"value": true}},
	          "adjustment": {"__type__": "ConstExpression", "__contents__": {"value": 1}}
	        }
	      }
	    ],
	    "constraints": []
	  }
	}`

	rs := ParseRuleConfig([]byte(doc), nil)
	rules := rs.Rules(0)
	if len(rules) != 1 {
		t.Fatalf("Rules(0) len = %d, want 1", len(rules))
	}
	if rules[0].MaxApplications != -1 {
		t.Errorf("MaxApplications = %d, want -1", rules[0].MaxApplications)
	}
}

func TestParseNonIntegerBinKeySkipped(t *testing.T) {
	doc := `{
	  "high-priority": {"rules": [], "constraints": []},
	  "3": {"rules": [], "constraints": []}
	}`

	rs := ParseRuleConfig([]byte(doc), nil)
	if got := rs.Rules(3); got != nil && len(got) != 0 {
		t.Errorf("Rules(3) = %v, want empty list", got)
	}
	// Bin 3 parsed: its (empty) lists shadow the defaults
	if len(rs.ruleMap) != 1 {
		t.Errorf("ruleMap has %d bins, want 1 (non-integer key skipped)", len(rs.ruleMap))
	}
}

func TestParseRootNotObjectYieldsEmptyRuleSet(t *testing.T) {
	for _, doc := range []string{`[1, 2, 3]`, `"rules"`, `not json at all`} {
		rs := ParseRuleConfig([]byte(doc), nil)
		ok, adj := rs.Apply(0, types.AsdpList{asdpWithSize(1, 10)})
		if !ok || adj != 0.0 {
			t.Errorf("Apply() on empty set = (%v, %v), want (true, 0.0)", ok, adj)
		}
	}
}

func TestParseRuleConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	if err := os.WriteFile(path, []byte(orphanContextConfig), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	rs, err := ParseRuleConfigFile(path, nil)
	if err != nil {
		t.Fatalf("ParseRuleConfigFile() error = %v, want nil", err)
	}
	if len(rs.Rules(0)) != 1 {
		t.Errorf("Rules(0) len = %d, want 1", len(rs.Rules(0)))
	}

	empty, err := ParseRuleConfigFile("", nil)
	if err != nil {
		t.Fatalf("ParseRuleConfigFile(\"\") error = %v, want nil", err)
	}
	if len(empty.Rules(0)) != 0 {
		t.Errorf("empty config Rules(0) len = %d, want 0", len(empty.Rules(0)))
	}

	if _, err := ParseRuleConfigFile(filepath.Join(dir, "absent.json"), nil); err == nil {
		t.Errorf("ParseRuleConfigFile(absent) error = nil, want error")
	}
}
