// internal/rules/parse.go
package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/NASA-AMMOS/synopsis/internal/types"
)

/*
 * Rule configuration parsing.
 *
 * The JSON AST representation encodes every expression node as an object
 * with a __type__ key naming the variant and a __contents__ object holding
 * its arguments; arguments that are themselves expressions are decoded
 * recursively.
 *
 * Error containment: a malformed rule or constraint is dropped with a
 * logged error and its siblings continue to parse; a top-level structural
 * failure (root is not a JSON object) yields an empty RuleSet. Bin keys
 * must be decimal integer strings or the literal "default"; anything else
 * is logged and skipped. A rule whose max_applications is missing or
 * malformed defaults to -1 (unbounded).
 */

// astNode is the wire shape of a single expression node.
type astNode struct {
	Type     string                     `json:"__type__"`
	Contents map[string]json.RawMessage `json:"__contents__"`
}

// binConfig is the wire shape of one priority bin entry.
type binConfig struct {
	Rules       []json.RawMessage `json:"rules"`
	Constraints []json.RawMessage `json:"constraints"`
}

// ParseRuleConfigFile loads a rule configuration from a JSON file.
// An empty path selects the empty configuration, matching the behavior of
// an unconfigured deployment.
func ParseRuleConfigFile(path string, log *zap.Logger) (*RuleSet, error) {
	if path == "" {
		return EmptyRuleSet(log), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule config: %w", err)
	}
	return ParseRuleConfig(data, log), nil
}

// ParseRuleConfig decodes a rule configuration document.
// Structural failure at the root degrades to an empty RuleSet.
func ParseRuleConfig(data []byte, log *zap.Logger) *RuleSet {
	log = logOr(log)

	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		log.Error("rule config root is not an object, using empty rule set",
			zap.Error(err))
		return EmptyRuleSet(log)
	}

	ruleMap := map[int][]Rule{}
	constraintMap := map[int][]Constraint{}
	var defaultRules []Rule
	var defaultConstraints []Constraint

	for key, raw := range root {
		rules, constraints := parseBin(raw, log)

		if key == "default" {
			defaultRules = rules
			defaultConstraints = constraints
			continue
		}
		bin, err := strconv.Atoi(key)
		if err != nil {
			log.Error("rule config key is neither integer nor default, skipped",
				zap.String("key", key))
			continue
		}
		ruleMap[bin] = rules
		constraintMap[bin] = constraints
	}

	return NewRuleSet(ruleMap, constraintMap, defaultRules, defaultConstraints, log)
}

// parseBin decodes the rule and constraint lists of one bin entry.
// Malformed entries are dropped individually; their siblings survive.
func parseBin(raw json.RawMessage, log *zap.Logger) ([]Rule, []Constraint) {
	var bin binConfig
	if err := json.Unmarshal(raw, &bin); err != nil {
		log.Error("malformed bin entry in rule config", zap.Error(err))
		return nil, nil
	}

	var rules []Rule
	for i, rawRule := range bin.Rules {
		rule, err := parseRule(rawRule, log)
		if err != nil {
			log.Error("dropping malformed rule",
				zap.Int("index", i), zap.Error(err))
			continue
		}
		rules = append(rules, rule)
	}

	var constraints []Constraint
	for i, rawConstraint := range bin.Constraints {
		constraint, err := parseConstraint(rawConstraint, log)
		if err != nil {
			log.Error("dropping malformed constraint",
				zap.Int("index", i), zap.Error(err))
			continue
		}
		constraints = append(constraints, constraint)
	}

	return rules, constraints
}

// parseRule decodes a Rule node.
func parseRule(raw json.RawMessage, log *zap.Logger) (Rule, error) {
	node, err := decodeNode(raw)
	if err != nil {
		return Rule{}, err
	}
	if node.Type != "Rule" {
		return Rule{}, fmt.Errorf("%w: expected Rule, got %q", types.ErrUnknownNodeType, node.Type)
	}

	variables, err := stringListArg(node, "variables")
	if err != nil {
		return Rule{}, err
	}
	application, err := boolExprArg(node, "application", 0, log)
	if err != nil {
		return Rule{}, err
	}
	adjustment, err := valueExprArg(node, "adjustment", 0, log)
	if err != nil {
		return Rule{}, err
	}
	if adjustment == nil {
		return Rule{}, fmt.Errorf("%w: adjustment", types.ErrMissingArgument)
	}

	maxApplications, err := intArg(node, "max_applications")
	if err != nil {
		// Unbounded when unspecified or malformed
		maxApplications = -1
	}

	return Rule{
		Variables:       variables,
		Application:     application,
		Adjustment:      adjustment,
		MaxApplications: maxApplications,
		Log:             log,
	}, nil
}

// parseConstraint decodes a Constraint node. A null sum_field selects
// count mode.
func parseConstraint(raw json.RawMessage, log *zap.Logger) (Constraint, error) {
	node, err := decodeNode(raw)
	if err != nil {
		return Constraint{}, err
	}
	if node.Type != "Constraint" {
		return Constraint{}, fmt.Errorf("%w: expected Constraint, got %q", types.ErrUnknownNodeType, node.Type)
	}

	variables, err := stringListArg(node, "variables")
	if err != nil {
		return Constraint{}, err
	}
	application, err := boolExprArg(node, "application", 0, log)
	if err != nil {
		return Constraint{}, err
	}
	sumField, err := valueExprArg(node, "sum_field", 0, log)
	if err != nil {
		return Constraint{}, err
	}
	bound, err := floatArg(node, "constraint_value")
	if err != nil {
		return Constraint{}, err
	}

	return Constraint{
		Variables:   variables,
		Application: application,
		SumField:    sumField,
		Bound:       bound,
		Log:         log,
	}, nil
}

// decodeNode unwraps the __type__/__contents__ envelope.
func decodeNode(raw json.RawMessage) (astNode, error) {
	var node astNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return astNode{}, fmt.Errorf("%w: %v", types.ErrMalformedNode, err)
	}
	if node.Type == "" || node.Contents == nil {
		return astNode{}, types.ErrMalformedNode
	}
	return node, nil
}

func argument(node astNode, name string) (json.RawMessage, error) {
	raw, ok := node.Contents[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrMissingArgument, name)
	}
	return raw, nil
}

func stringListArg(node astNode, name string) ([]string, error) {
	raw, err := argument(node, name)
	if err != nil {
		return nil, err
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrWrongArgumentType, name, err)
	}
	return list, nil
}

func stringArg(node astNode, name string) (string, error) {
	raw, err := argument(node, name)
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %s: %v", types.ErrWrongArgumentType, name, err)
	}
	return s, nil
}

func intArg(node astNode, name string) (int, error) {
	raw, err := argument(node, name)
	if err != nil {
		return 0, err
	}
	var i int
	if err := json.Unmarshal(raw, &i); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", types.ErrWrongArgumentType, name, err)
	}
	return i, nil
}

func floatArg(node astNode, name string) (float64, error) {
	raw, err := argument(node, name)
	if err != nil {
		return 0, err
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", types.ErrWrongArgumentType, name, err)
	}
	return f, nil
}

func boolArg(node astNode, name string) (bool, error) {
	raw, err := argument(node, name)
	if err != nil {
		return false, err
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, fmt.Errorf("%w: %s: %v", types.ErrWrongArgumentType, name, err)
	}
	return b, nil
}

// boolExprArg decodes a boolean-valued sub-expression argument.
func boolExprArg(node astNode, name string, depth int, log *zap.Logger) (BoolExpr, error) {
	raw, err := argument(node, name)
	if err != nil {
		return nil, err
	}
	return parseBoolExpr(raw, depth+1, log)
}

// valueExprArg decodes a metadata-valued sub-expression argument.
// JSON null is legal and yields nil, supporting count-mode sum_field.
func valueExprArg(node astNode, name string, depth int, log *zap.Logger) (ValueExpr, error) {
	raw, err := argument(node, name)
	if err != nil {
		return nil, err
	}
	if isJSONNull(raw) {
		return nil, nil
	}
	return parseValueExpr(raw, depth+1, log)
}

func isJSONNull(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	return v == nil
}

// parseBoolExpr decodes one boolean expression node recursively.
func parseBoolExpr(raw json.RawMessage, depth int, log *zap.Logger) (BoolExpr, error) {
	if depth > types.MaxExpressionDepth {
		return nil, types.ErrExpressionTooDeep
	}
	node, err := decodeNode(raw)
	if err != nil {
		return nil, err
	}

	switch node.Type {
	case "LogicalConstant":
		value, err := boolArg(node, "value")
		if err != nil {
			return nil, err
		}
		return &LogicalConstant{Value: value}, nil

	case "LogicalNot":
		expr, err := boolExprArg(node, "expression", depth, log)
		if err != nil {
			return nil, err
		}
		return &LogicalNot{Expr: expr}, nil

	case "BinaryLogicalExpression":
		op, err := stringArg(node, "operator")
		if err != nil {
			return nil, err
		}
		left, err := boolExprArg(node, "left_expression", depth, log)
		if err != nil {
			return nil, err
		}
		right, err := boolExprArg(node, "right_expression", depth, log)
		if err != nil {
			return nil, err
		}
		return &BinaryLogicalExpression{Op: op, Left: left, Right: right, Log: log}, nil

	case "ComparatorExpression":
		op, err := stringArg(node, "comparator")
		if err != nil {
			return nil, err
		}
		left, err := requiredValueExprArg(node, "left_expression", depth, log)
		if err != nil {
			return nil, err
		}
		right, err := requiredValueExprArg(node, "right_expression", depth, log)
		if err != nil {
			return nil, err
		}
		return &ComparatorExpression{Op: op, Left: left, Right: right, Log: log}, nil

	case "ExistentialExpression":
		variable, err := stringArg(node, "variable")
		if err != nil {
			return nil, err
		}
		expr, err := boolExprArg(node, "expression", depth, log)
		if err != nil {
			return nil, err
		}
		return &ExistentialExpression{Variable: variable, Expr: expr}, nil

	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownNodeType, node.Type)
	}
}

// parseValueExpr decodes one metadata-valued expression node recursively.
func parseValueExpr(raw json.RawMessage, depth int, log *zap.Logger) (ValueExpr, error) {
	if depth > types.MaxExpressionDepth {
		return nil, types.ErrExpressionTooDeep
	}
	node, err := decodeNode(raw)
	if err != nil {
		return nil, err
	}

	switch node.Type {
	case "ConstExpression":
		value, err := floatArg(node, "value")
		if err != nil {
			return nil, err
		}
		return &ConstExpression{Value: value}, nil

	case "StringConstant":
		value, err := stringArg(node, "value")
		if err != nil {
			return nil, err
		}
		return &StringConstant{Value: value}, nil

	case "MinusExpression":
		expr, err := requiredValueExprArg(node, "expression", depth, log)
		if err != nil {
			return nil, err
		}
		return &MinusExpression{Expr: expr, Log: log}, nil

	case "BinaryExpression":
		op, err := stringArg(node, "operator")
		if err != nil {
			return nil, err
		}
		left, err := requiredValueExprArg(node, "left_expression", depth, log)
		if err != nil {
			return nil, err
		}
		right, err := requiredValueExprArg(node, "right_expression", depth, log)
		if err != nil {
			return nil, err
		}
		return &BinaryExpression{Op: op, Left: left, Right: right, Log: log}, nil

	case "Field":
		variable, err := stringArg(node, "variable_name")
		if err != nil {
			return nil, err
		}
		field, err := stringArg(node, "field_name")
		if err != nil {
			return nil, err
		}
		return &Field{Variable: variable, Name: field, Log: log}, nil

	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownNodeType, node.Type)
	}
}

// requiredValueExprArg is valueExprArg with null rejected; only sum_field
// admits null.
func requiredValueExprArg(node astNode, name string, depth int, log *zap.Logger) (ValueExpr, error) {
	expr, err := valueExprArg(node, name, depth, log)
	if err != nil {
		return nil, err
	}
	if expr == nil {
		return nil, fmt.Errorf("%w: %s is null", types.ErrWrongArgumentType, name)
	}
	return expr, nil
}
