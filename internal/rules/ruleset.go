// internal/rules/ruleset.go
package rules

import (
	"go.uber.org/zap"

	"github.com/NASA-AMMOS/synopsis/internal/types"
)

/*
 * Rule and Constraint application over candidate downlink queues.
 *
 * A Rule contributes an additive utility adjustment: its application
 * predicate is evaluated once per variable binding over the queue, and
 * each satisfied binding adds the adjustment expression's value.
 * MaxApplications caps the number of accumulations; negative means
 * unbounded. Arity one binds each ASDP in turn; arity two binds every
 * ordered pair, self-pairs included. Any other arity is inert.
 *
 * A Constraint aggregates over satisfied bindings (sum of SumField when
 * present, count otherwise) and holds while aggregate < Bound, strictly.
 *
 * RuleSet groups rules and constraints per priority bin, falling back to
 * default lists for bins with no explicit entry.
 */

// Rule is a conditional additive adjustment to queue utility.
type Rule struct {
	Variables       []string
	Application     BoolExpr
	Adjustment      ValueExpr
	MaxApplications int
	Log             *zap.Logger
}

// Apply evaluates the rule over a candidate queue and returns the total
// utility adjustment.
func (r *Rule) Apply(asdps types.AsdpList) float64 {
	applications := 0
	total := 0.0

	capped := func() bool {
		return r.MaxApplications >= 0 && applications >= r.MaxApplications
	}

	accumulate := func(assignments types.AsdpAssignments) {
		adj := r.Adjustment.Eval(assignments, asdps)
		if !adj.IsNumeric() {
			logOr(r.Log).Warn("non-numeric rule adjustment skipped")
			return
		}
		total += adj.Numeric()
		applications++
	}

	switch len(r.Variables) {
	case 1:
		for _, a := range asdps {
			if capped() {
				break
			}
			assignments := types.AsdpAssignments{r.Variables[0]: a}
			if r.Application.Eval(assignments, asdps) {
				accumulate(assignments)
			}
		}
		return total

	case 2:
		// The cap gates both loops so accumulations never exceed it
	pairs:
		for _, a := range asdps {
			if capped() {
				break
			}
			for _, b := range asdps {
				if capped() {
					break pairs
				}
				assignments := types.AsdpAssignments{
					r.Variables[0]: a,
					r.Variables[1]: b,
				}
				if r.Application.Eval(assignments, asdps) {
					accumulate(assignments)
				}
			}
		}
		return total

	default:
		logOr(r.Log).Error("rule arity not supported, rule is inert",
			zap.Int("variables", len(r.Variables)))
		return 0.0
	}
}

// Constraint is a declarative bound over a candidate queue.
type Constraint struct {
	Variables   []string
	Application BoolExpr
	SumField    ValueExpr // nil selects count mode
	Bound       float64
	Log         *zap.Logger
}

// Apply reports whether the constraint is satisfied by the queue.
// Only single-variable constraints are defined; any other arity is
// vacuously satisfied.
func (c *Constraint) Apply(asdps types.AsdpList) bool {
	if len(c.Variables) != 1 {
		logOr(c.Log).Warn("constraint arity not supported, vacuously satisfied",
			zap.Int("variables", len(c.Variables)))
		return true
	}

	aggregate := 0.0
	for _, a := range asdps {
		assignments := types.AsdpAssignments{c.Variables[0]: a}
		if !c.Application.Eval(assignments, asdps) {
			continue
		}
		if c.SumField == nil {
			aggregate += 1
			continue
		}
		v := c.SumField.Eval(assignments, asdps)
		if !v.IsNumeric() {
			logOr(c.Log).Warn("non-numeric constraint sum field skipped")
			continue
		}
		aggregate += v.Numeric()
	}

	return aggregate < c.Bound
}

// RuleSet holds per-bin rule and constraint lists with default fallbacks.
type RuleSet struct {
	ruleMap            map[int][]Rule
	constraintMap      map[int][]Constraint
	defaultRules       []Rule
	defaultConstraints []Constraint
	log                *zap.Logger
}

// NewRuleSet constructs a rule set from explicit per-bin and default lists.
func NewRuleSet(
	ruleMap map[int][]Rule,
	constraintMap map[int][]Constraint,
	defaultRules []Rule,
	defaultConstraints []Constraint,
	log *zap.Logger,
) *RuleSet {
	if ruleMap == nil {
		ruleMap = map[int][]Rule{}
	}
	if constraintMap == nil {
		constraintMap = map[int][]Constraint{}
	}
	return &RuleSet{
		ruleMap:            ruleMap,
		constraintMap:      constraintMap,
		defaultRules:       defaultRules,
		defaultConstraints: defaultConstraints,
		log:                log,
	}
}

// EmptyRuleSet returns a rule set with no rules and no constraints.
func EmptyRuleSet(log *zap.Logger) *RuleSet {
	return NewRuleSet(nil, nil, nil, nil, log)
}

// Rules returns the rule list for a bin, or the default list when the bin
// has no explicit entry.
func (rs *RuleSet) Rules(bin int) []Rule {
	if rules, ok := rs.ruleMap[bin]; ok {
		return rules
	}
	return rs.defaultRules
}

// Constraints returns the constraint list for a bin, or the default list
// when the bin has no explicit entry.
func (rs *RuleSet) Constraints(bin int) []Constraint {
	if constraints, ok := rs.constraintMap[bin]; ok {
		return constraints
	}
	return rs.defaultConstraints
}

// Apply checks all constraints for the bin against the queue and, when
// every constraint holds, sums the rule adjustments. The first violated
// constraint rejects the queue with a zero adjustment.
func (rs *RuleSet) Apply(bin int, queue types.AsdpList) (bool, float64) {
	for i, constraint := range rs.Constraints(bin) {
		if !constraint.Apply(queue) {
			logOr(rs.log).Debug("constraint violated",
				zap.Int("bin", bin),
				zap.Int("constraint_index", i))
			return false, 0.0
		}
	}

	utility := 0.0
	rules := rs.Rules(bin)
	for i := range rules {
		utility += rules[i].Apply(queue)
	}
	return true, utility
}
