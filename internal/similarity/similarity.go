// internal/similarity/similarity.go
package similarity

import (
	"go.uber.org/zap"

	"github.com/NASA-AMMOS/synopsis/internal/types"
)

/*
 * Diversity-aware utility discounting.
 *
 * Similarity holds the per-bin configuration (mixing coefficient α and
 * per-(instrument, type) similarity functions, each with a default
 * fallback) and a memo cache of pairwise similarities. The cache is keyed
 * by the sorted pair of ASDP ids, so lookups commute in argument order; it
 * lives as long as the Similarity value and is never evicted within a
 * prioritization run.
 *
 * The discount factor applied to a candidate's science utility estimate is
 *
 *   (1 - α) + α · (1 - max_similarity)
 *
 * where max_similarity ranges over queued ASDPs sharing the candidate's
 * (instrument, type). At α = 1 the discount is (1 - sim); at α = 0 the
 * diversity term vanishes.
 */

// FunctionKey selects a similarity function by instrument and product type.
type FunctionKey struct {
	Instrument string
	Type       string
}

// FunctionMap maps (instrument, type) pairs to similarity functions.
type FunctionMap map[FunctionKey]*Function

// DefaultAlpha applies when no alpha is configured for a bin.
const DefaultAlpha = 1.0

type cacheKey struct {
	lo, hi int64
}

// Similarity is the configured diversity discount engine for one
// prioritization run.
type Similarity struct {
	alpha            map[int]float64
	defaultAlpha     float64
	functions        map[int]FunctionMap
	defaultFunctions FunctionMap
	cache            map[cacheKey]float64
	log              *zap.Logger
}

var nop = zap.NewNop()

func logOr(l *zap.Logger) *zap.Logger {
	if l == nil {
		return nop
	}
	return l
}

// New constructs a similarity engine from parsed configuration.
func New(
	alpha map[int]float64,
	defaultAlpha float64,
	functions map[int]FunctionMap,
	defaultFunctions FunctionMap,
	log *zap.Logger,
) *Similarity {
	if alpha == nil {
		alpha = map[int]float64{}
	}
	if functions == nil {
		functions = map[int]FunctionMap{}
	}
	if defaultFunctions == nil {
		defaultFunctions = FunctionMap{}
	}
	return &Similarity{
		alpha:            alpha,
		defaultAlpha:     defaultAlpha,
		functions:        functions,
		defaultFunctions: defaultFunctions,
		cache:            map[cacheKey]float64{},
		log:              log,
	}
}

// Default returns an engine with no configured functions: every discount
// factor is 1.0.
func Default(log *zap.Logger) *Similarity {
	return New(nil, DefaultAlpha, nil, nil, log)
}

// cachedSimilarity memoizes fn(a, b) under the unordered id pair.
func (s *Similarity) cachedSimilarity(fn *Function, a, b types.AsdpEntry) float64 {
	ida, idb := a.ID(), b.ID()
	key := cacheKey{lo: ida, hi: idb}
	if idb < ida {
		key = cacheKey{lo: idb, hi: ida}
	}
	if sim, ok := s.cache[key]; ok {
		return sim
	}
	sim := fn.Similarity(a, b)
	s.cache[key] = sim
	return sim
}

// MaxSimilarity is the largest pairwise similarity between the candidate
// and any queued ASDP of the same (instrument, type). An empty queue, a
// bin without a matching function, or a queue with no type peers all yield
// 0.0.
func (s *Similarity) MaxSimilarity(bin int, queue types.AsdpList, asdp types.AsdpEntry) float64 {
	if len(queue) == 0 {
		return 0.0
	}

	key := FunctionKey{
		Instrument: asdp[types.FieldInstrument].String,
		Type:       asdp[types.FieldType].String,
	}

	functions, ok := s.functions[bin]
	if !ok {
		functions = s.defaultFunctions
	}
	fn, ok := functions[key]
	if !ok {
		// No similarity function specified for this ASDP
		return 0.0
	}

	maxSimilarity := 0.0
	for _, queued := range queue {
		peer := FunctionKey{
			Instrument: queued[types.FieldInstrument].String,
			Type:       queued[types.FieldType].String,
		}
		if peer != key {
			continue
		}
		if sim := s.cachedSimilarity(fn, asdp, queued); sim > maxSimilarity {
			maxSimilarity = sim
		}
	}
	return maxSimilarity
}

// DiscountFactor is the diversity discount applied to the candidate's
// science utility estimate given the current queue.
func (s *Similarity) DiscountFactor(bin int, queue types.AsdpList, asdp types.AsdpEntry) float64 {
	maxSimilarity := s.MaxSimilarity(bin, queue, asdp)
	alpha := s.defaultAlpha
	if a, ok := s.alpha[bin]; ok {
		alpha = a
	}
	return (1.0 - alpha) + alpha*(1.0-maxSimilarity)
}
