// Package planner implements downlink prioritization over the ASDP
// catalog.
//
// A Planner consumes rule and similarity configurations and produces a
// totally ordered list of ASDP ids recommended for transmission. The only
// implementation is the max-marginal-relevance greedy planner in mmr.go.
package planner

import (
	"time"
)

// Planner produces a prioritized downlink queue.
//
// Configurations are referenced by file path. The time budget bounds the
// whole invocation and is checked after the catalog scan; on expiry the
// planner fails with types.ErrTimeout and no list is produced.
type Planner interface {
	Prioritize(ruleConfigPath, similarityConfigPath string, timeBudget time.Duration) ([]int64, error)
}
