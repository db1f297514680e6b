// internal/rules/ast.go
package rules

import (
	"go.uber.org/zap"

	"github.com/NASA-AMMOS/synopsis/internal/types"
)

/*
 * Rule expression AST and evaluation.
 *
 * Expressions come in two evaluation arities: boolean-valued (BoolExpr)
 * and metadata-valued (ValueExpr). Both are pure functions of
 * (assignments, asdps); evaluation is stateless and re-entrant.
 *
 * Failure semantics are value-level, never errors: boolean expressions
 * degrade to false and value expressions to Float(NaN), each with a log
 * event. NaN then propagates through arithmetic and fails every
 * comparison, so a single bad field read cannot abort an evaluation.
 *
 * Short-circuit is mandatory for AND/OR: the right operand is not
 * evaluated when the left already decides the result. This is observable
 * through Field lookups, which log on missing variables.
 *
 * Node names match the __type__ strings of the JSON AST representation.
 */

// BoolExpr is a boolean-valued expression over ASDP assignments.
type BoolExpr interface {
	Eval(assignments types.AsdpAssignments, asdps types.AsdpList) bool
}

// ValueExpr is a metadata-valued expression over ASDP assignments.
type ValueExpr interface {
	Eval(assignments types.AsdpAssignments, asdps types.AsdpList) types.MetadataValue
}

var nop = zap.NewNop()

// logOr returns l, or a no-op logger when the node was built without one.
func logOr(l *zap.Logger) *zap.Logger {
	if l == nil {
		return nop
	}
	return l
}

// LogicalConstant evaluates to a fixed boolean.
type LogicalConstant struct {
	Value bool
}

func (e *LogicalConstant) Eval(_ types.AsdpAssignments, _ types.AsdpList) bool {
	return e.Value
}

// LogicalNot negates its operand.
type LogicalNot struct {
	Expr BoolExpr
}

func (e *LogicalNot) Eval(assignments types.AsdpAssignments, asdps types.AsdpList) bool {
	return !e.Expr.Eval(assignments, asdps)
}

// BinaryLogicalExpression combines two boolean expressions with AND or OR.
type BinaryLogicalExpression struct {
	Op    string
	Left  BoolExpr
	Right BoolExpr
	Log   *zap.Logger
}

func (e *BinaryLogicalExpression) Eval(assignments types.AsdpAssignments, asdps types.AsdpList) bool {
	left := e.Left.Eval(assignments, asdps)
	switch e.Op {
	case "AND":
		if !left {
			// Short circuit: right side must not be evaluated
			return false
		}
		return e.Right.Eval(assignments, asdps)
	case "OR":
		if left {
			return true
		}
		return e.Right.Eval(assignments, asdps)
	default:
		logOr(e.Log).Warn("unknown logical operator", zap.String("operator", e.Op))
		return false
	}
}

// ComparatorExpression compares two value expressions.
//
// Both sides numeric: double comparison for every operator. Both sides
// string: only == and != are defined; ordering operators log an error and
// return false. Mixed numeric/string sides are a type mismatch: logged,
// false.
type ComparatorExpression struct {
	Op    string
	Left  ValueExpr
	Right ValueExpr
	Log   *zap.Logger
}

func (e *ComparatorExpression) Eval(assignments types.AsdpAssignments, asdps types.AsdpList) bool {
	left := e.Left.Eval(assignments, asdps)
	right := e.Right.Eval(assignments, asdps)

	if left.IsNumeric() != right.IsNumeric() {
		logOr(e.Log).Warn("comparator type mismatch",
			zap.String("comparator", e.Op),
			zap.Bool("left_numeric", left.IsNumeric()),
			zap.Bool("right_numeric", right.IsNumeric()))
		return false
	}

	if left.IsNumeric() {
		l, r := left.Numeric(), right.Numeric()
		switch e.Op {
		case "==":
			return l == r
		case "!=":
			return l != r
		case ">":
			return l > r
		case ">=":
			return l >= r
		case "<":
			return l < r
		case "<=":
			return l <= r
		default:
			logOr(e.Log).Warn("unknown comparator", zap.String("comparator", e.Op))
			return false
		}
	}

	l, r := left.String, right.String
	switch e.Op {
	case "==":
		return l == r
	case "!=":
		return l != r
	default:
		logOr(e.Log).Error("comparator not defined for strings",
			zap.String("comparator", e.Op))
		return false
	}
}

// ExistentialExpression is true when the body holds for at least one ASDP
// in the full outer list. Each iteration evaluates under a clone of the
// assignments with the bound variable added, preserving outer bindings.
type ExistentialExpression struct {
	Variable string
	Expr     BoolExpr
}

func (e *ExistentialExpression) Eval(assignments types.AsdpAssignments, asdps types.AsdpList) bool {
	for _, asdp := range asdps {
		bound := assignments.Clone(e.Variable, asdp)
		if e.Expr.Eval(bound, asdps) {
			return true
		}
	}
	return false
}

// ConstExpression evaluates to a fixed float.
type ConstExpression struct {
	Value float64
}

func (e *ConstExpression) Eval(_ types.AsdpAssignments, _ types.AsdpList) types.MetadataValue {
	return types.FloatValue(e.Value)
}

// StringConstant evaluates to a fixed string.
type StringConstant struct {
	Value string
}

func (e *StringConstant) Eval(_ types.AsdpAssignments, _ types.AsdpList) types.MetadataValue {
	return types.StringValue(e.Value)
}

// MinusExpression negates a numeric operand; NaN for non-numeric.
type MinusExpression struct {
	Expr ValueExpr
	Log  *zap.Logger
}

func (e *MinusExpression) Eval(assignments types.AsdpAssignments, asdps types.AsdpList) types.MetadataValue {
	v := e.Expr.Eval(assignments, asdps)
	if !v.IsNumeric() {
		logOr(e.Log).Warn("minus operand is not numeric")
		return types.NaNValue()
	}
	return types.FloatValue(-v.Numeric())
}

// BinaryExpression applies *, +, or - to two numeric operands.
// Non-numeric operands or an unsupported operator yield NaN.
type BinaryExpression struct {
	Op    string
	Left  ValueExpr
	Right ValueExpr
	Log   *zap.Logger
}

func (e *BinaryExpression) Eval(assignments types.AsdpAssignments, asdps types.AsdpList) types.MetadataValue {
	left := e.Left.Eval(assignments, asdps)
	right := e.Right.Eval(assignments, asdps)
	if !left.IsNumeric() || !right.IsNumeric() {
		logOr(e.Log).Warn("arithmetic operand is not numeric", zap.String("operator", e.Op))
		return types.NaNValue()
	}
	l, r := left.Numeric(), right.Numeric()
	switch e.Op {
	case "*":
		return types.FloatValue(l * r)
	case "+":
		return types.FloatValue(l + r)
	case "-":
		return types.FloatValue(l - r)
	default:
		logOr(e.Log).Warn("unsupported arithmetic operator", zap.String("operator", e.Op))
		return types.NaNValue()
	}
}

// Field looks up assignments[Variable][Name].
//
// A missing variable is a configuration defect and logs at Warn; a missing
// field is routine (not every product carries every key) and logs at
// Debug. Both yield NaN.
type Field struct {
	Variable string
	Name     string
	Log      *zap.Logger
}

func (e *Field) Eval(assignments types.AsdpAssignments, _ types.AsdpList) types.MetadataValue {
	asdp, ok := assignments[e.Variable]
	if !ok {
		logOr(e.Log).Warn("unbound variable in field lookup",
			zap.String("variable", e.Variable),
			zap.String("field", e.Name))
		return types.NaNValue()
	}
	value, ok := asdp[e.Name]
	if !ok {
		logOr(e.Log).Debug("field not present on data product",
			zap.String("variable", e.Variable),
			zap.String("field", e.Name))
		return types.NaNValue()
	}
	return value
}
