// internal/planner/mmr.go
package planner

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/NASA-AMMOS/synopsis/internal/catalog"
	"github.com/NASA-AMMOS/synopsis/internal/clock"
	"github.com/NASA-AMMOS/synopsis/internal/rules"
	"github.com/NASA-AMMOS/synopsis/internal/similarity"
	"github.com/NASA-AMMOS/synopsis/internal/types"
)

/*
 * Max-marginal-relevance greedy downlink planner.
 *
 * Each prioritization run scans the catalog once, buckets untransmitted
 * products by priority bin, and then greedily builds each bin's queue:
 * at every step the remaining candidate with the highest relative utility
 * (candidate cumulative utility / candidate cumulative size) is appended,
 * subject to every constraint passing for the candidate queue.
 *
 * A candidate's utility contribution is its science utility estimate
 * discounted by similarity to already-queued products, plus the rule
 * program's adjustment over the whole candidate queue. The adjustment is
 * recomputed at every step (it may depend on the growing queue) and is
 * never folded into the accepted cumulative utility, which tracks only
 * discounted SUE values.
 *
 * Bins are processed in ascending order and their queues concatenated.
 * The single time-budget check happens immediately after the catalog
 * scan, before any scoring.
 */

// MMRPlanner is the similarity-discounted greedy Planner implementation.
type MMRPlanner struct {
	db    catalog.ASDPDB
	clock clock.Clock
	log   *zap.Logger
}

// NewMMRPlanner wires the planner's capability handles. The catalog is
// shared read-only with the caller; no handle outlives a Prioritize call.
func NewMMRPlanner(db catalog.ASDPDB, clk clock.Clock, log *zap.Logger) *MMRPlanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &MMRPlanner{db: db, clock: clk, log: log}
}

// Prioritize implements Planner.
func (p *MMRPlanner) Prioritize(
	ruleConfigPath, similarityConfigPath string,
	timeBudget time.Duration,
) ([]int64, error) {
	log := p.log.With(zap.String("run_id", string(types.NewRunID())))

	timer := clock.NewTimer(p.clock, timeBudget)
	timer.Start()

	ruleset, err := rules.ParseRuleConfigFile(ruleConfigPath, log)
	if err != nil {
		return nil, err
	}
	sim, err := similarity.ParseConfigFile(similarityConfigPath, log)
	if err != nil {
		return nil, err
	}

	binned, transmitted, err := p.scanCatalog(log)
	if err != nil {
		return nil, err
	}
	log.Debug("catalog scan complete",
		zap.Int("bins", len(binned)),
		zap.Int("transmitted", len(transmitted)))

	if timer.Expired() {
		log.Warn("time budget expired after catalog scan",
			zap.Duration("budget", timeBudget))
		return nil, types.ErrTimeout
	}

	bins := make([]int, 0, len(binned))
	for bin := range binned {
		bins = append(bins, bin)
	}
	sort.Ints(bins)

	var prioritized []int64
	for _, bin := range bins {
		ids := prioritizeBin(bin, binned[bin], ruleset, sim, log)
		log.Debug("bin prioritized",
			zap.Int("bin", bin),
			zap.Int("selected", len(ids)),
			zap.Int("candidates", len(binned[bin])))
		prioritized = append(prioritized, ids...)
	}

	return prioritized, nil
}

// scanCatalog materializes every non-downlinked ASDP, routing rows to the
// transmitted set or a per-bin candidate bucket in catalog id order.
func (p *MMRPlanner) scanCatalog(log *zap.Logger) (map[int]types.AsdpList, types.AsdpList, error) {
	ids, err := p.db.ListIDs()
	if err != nil {
		return nil, nil, fmt.Errorf("scanning catalog: %w", err)
	}

	binned := map[int]types.AsdpList{}
	var transmitted types.AsdpList

	for _, id := range ids {
		row, err := p.db.Get(id)
		if err != nil {
			log.Error("failed to load data product",
				zap.Int64("asdp_id", id), zap.Error(err))
			return nil, nil, err
		}

		if row.DownlinkState == types.Downlinked {
			continue
		}

		asdp := populateEntry(row)
		if row.DownlinkState == types.Transmitted {
			transmitted = append(transmitted, asdp)
			continue
		}
		binned[row.PriorityBin] = append(binned[row.PriorityBin], asdp)
	}

	return binned, transmitted, nil
}

// populateEntry builds the in-memory ASDP entry: the row's metadata bag
// plus the promoted first-class fields.
func populateEntry(row catalog.Row) types.AsdpEntry {
	asdp := make(types.AsdpEntry, len(row.Metadata)+6)
	for k, v := range row.Metadata {
		asdp[k] = v
	}
	asdp[types.FieldID] = types.IntValue(row.ID)
	asdp[types.FieldInstrument] = types.StringValue(row.InstrumentName)
	asdp[types.FieldType] = types.StringValue(row.Type)
	asdp[types.FieldSize] = types.IntValue(row.Size)
	asdp[types.FieldSUE] = types.FloatValue(row.ScienceUtilityEstimate)
	asdp[types.FieldBin] = types.IntValue(int64(row.PriorityBin))
	return asdp
}

// prioritizeBin greedily orders one bin's candidates.
//
// Ties break toward the first-encountered candidate (strict greater-than).
// The similarity discount is computed against the queue before the
// candidate is appended. A step with no constraint-satisfying candidate
// ends the bin's queue.
func prioritizeBin(
	bin int,
	candidates types.AsdpList,
	ruleset *rules.RuleSet,
	sim *similarity.Similarity,
	log *zap.Logger,
) []int64 {
	remaining := append(types.AsdpList{}, candidates...)
	queue := make(types.AsdpList, 0, len(remaining))

	cumulativeSize := int64(0)
	cumulativeSUE := 0.0

	for step := 0; step < len(candidates); step++ {
		bestIdx := -1
		bestScore := 0.0

		for idx, asdp := range remaining {
			discount := sim.DiscountFactor(bin, queue, asdp)
			finalSUE := discount * asdp[types.FieldSUE].Numeric()
			asdp[types.FieldFinalSUE] = types.FloatValue(finalSUE)

			candidateQueue := append(append(types.AsdpList{}, queue...), asdp)
			candidateUtility := cumulativeSUE + finalSUE
			candidateSize := cumulativeSize + asdp.Size()

			ok, adjustment := ruleset.Apply(bin, candidateQueue)
			if !ok {
				// Constraints violated
				continue
			}
			candidateUtility += adjustment

			if candidateSize <= 0 {
				// Zero-size products rank by raw utility instead of
				// dividing by zero
				log.Warn("candidate has non-positive cumulative size, scoring with size 1",
					zap.Int64("asdp_id", asdp.ID()))
				candidateSize = 1
			}

			score := candidateUtility / float64(candidateSize)
			if bestIdx < 0 || score > bestScore {
				bestIdx = idx
				bestScore = score
			}
		}

		// No valid successor was found
		if bestIdx < 0 {
			break
		}

		best := remaining[bestIdx]
		queue = append(queue, best)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
		cumulativeSize += best.Size()
		cumulativeSUE += best[types.FieldFinalSUE].Numeric()
	}

	ids := make([]int64, len(queue))
	for i, asdp := range queue {
		ids[i] = asdp.ID()
	}
	return ids
}
