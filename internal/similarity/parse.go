// internal/similarity/parse.go
package similarity

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"
)

/*
 * Similarity configuration parsing.
 *
 * Document layout:
 *
 *   {
 *     "alphas":    { ("default"|<bin>): <number>, ... },
 *     "functions": { ("default"|<bin>): [ <entry>, ... ], ... }
 *   }
 *
 * where each function entry is
 *
 *   { "key": [<instrument>, <type>],
 *     "function": { "diversity_descriptor": [...], "weights": [...],
 *                   "similarity_type": <kernel>,
 *                   "similarity_parameters": { <name>: <number> } } }
 *
 * Error containment mirrors the rule parser: malformed entries are
 * dropped with a logged error and siblings survive; a structural failure
 * at the root yields the default configuration.
 */

type functionEntry struct {
	Key      []string    `json:"key"`
	Function rawFunction `json:"function"`
}

type rawFunction struct {
	DiversityDescriptor []string           `json:"diversity_descriptor"`
	Weights             []float64          `json:"weights"`
	SimilarityType      string             `json:"similarity_type"`
	SimilarityParams    map[string]float64 `json:"similarity_parameters"`
}

type rawConfig struct {
	Alphas    map[string]json.RawMessage `json:"alphas"`
	Functions map[string]json.RawMessage `json:"functions"`
}

// ParseConfigFile loads a similarity configuration from a JSON file.
// An empty path selects the default configuration.
func ParseConfigFile(path string, log *zap.Logger) (*Similarity, error) {
	if path == "" {
		return Default(log), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading similarity config: %w", err)
	}
	return ParseConfig(data, log), nil
}

// ParseConfig decodes a similarity configuration document.
// Structural failure at the root degrades to the default configuration.
func ParseConfig(data []byte, log *zap.Logger) *Similarity {
	log = logOr(log)

	var root rawConfig
	if err := json.Unmarshal(data, &root); err != nil {
		log.Error("similarity config root is not an object, using defaults",
			zap.Error(err))
		return Default(log)
	}

	alpha := map[int]float64{}
	defaultAlpha := DefaultAlpha
	for key, raw := range root.Alphas {
		var value float64
		if err := json.Unmarshal(raw, &value); err != nil {
			log.Error("non-numeric alpha entry skipped",
				zap.String("key", key), zap.Error(err))
			continue
		}
		if key == "default" {
			defaultAlpha = value
			continue
		}
		bin, err := strconv.Atoi(key)
		if err != nil {
			log.Error("alpha key is neither integer nor default, skipped",
				zap.String("key", key))
			continue
		}
		alpha[bin] = value
	}

	functions := map[int]FunctionMap{}
	defaultFunctions := FunctionMap{}
	for key, raw := range root.Functions {
		var entries []json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			log.Error("function list entry is not an array, skipped",
				zap.String("key", key), zap.Error(err))
			continue
		}
		fm := parseFunctionList(entries, log)

		if key == "default" {
			defaultFunctions = fm
			continue
		}
		bin, err := strconv.Atoi(key)
		if err != nil {
			log.Error("function key is neither integer nor default, skipped",
				zap.String("key", key))
			continue
		}
		functions[bin] = fm
	}

	return New(alpha, defaultAlpha, functions, defaultFunctions, log)
}

// parseFunctionList decodes the function entries of one bin.
func parseFunctionList(entries []json.RawMessage, log *zap.Logger) FunctionMap {
	functions := FunctionMap{}

	for i, raw := range entries {
		var entry functionEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			log.Error("malformed similarity function entry skipped",
				zap.Int("index", i), zap.Error(err))
			continue
		}
		if len(entry.Key) != 2 {
			log.Error("similarity function key must be [instrument, type]",
				zap.Int("index", i), zap.Int("key_len", len(entry.Key)))
			continue
		}
		if len(entry.Function.DiversityDescriptor) != len(entry.Function.Weights) {
			log.Error("diversity descriptor and weight counts differ, entry skipped",
				zap.Int("index", i),
				zap.Int("descriptors", len(entry.Function.DiversityDescriptor)),
				zap.Int("weights", len(entry.Function.Weights)))
			continue
		}
		if entry.Function.SimilarityType == "" {
			log.Error("similarity function missing similarity_type, entry skipped",
				zap.Int("index", i))
			continue
		}

		params := entry.Function.SimilarityParams
		if params == nil {
			params = map[string]float64{}
		}

		key := FunctionKey{Instrument: entry.Key[0], Type: entry.Key[1]}
		functions[key] = &Function{
			DiversityDescriptors: entry.Function.DiversityDescriptor,
			Weights:              entry.Function.Weights,
			Kernel:               entry.Function.SimilarityType,
			Params:               params,
			Log:                  log,
		}
	}

	return functions
}
