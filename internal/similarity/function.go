// internal/similarity/function.go
package similarity

import (
	"math"

	"go.uber.org/zap"

	"github.com/NASA-AMMOS/synopsis/internal/types"
)

/*
 * Similarity functions over diversity descriptors.
 *
 * A diversity descriptor is a numeric vector extracted from an ASDP's
 * metadata: one component per configured field name, scaled by the weight
 * at the same index when one is provided. A missing or non-numeric field
 * contributes 0.0 and logs a warning.
 *
 * Kernels map a pair of descriptors to a similarity in [0, 1]. The only
 * defined kernel is "gaussian": exp(-dist²/σ²) with σ taken from the
 * "sigma" parameter, defaulting to 1.0. The squared Euclidean distance
 * truncates to the shorter descriptor when lengths differ. Unknown kernels
 * yield 0.0 with a warning.
 */

// KernelGaussian is the only kernel with defined semantics.
const KernelGaussian = "gaussian"

// Function computes pairwise ASDP similarity from diversity descriptors.
type Function struct {
	DiversityDescriptors []string
	Weights              []float64
	Kernel               string
	Params               map[string]float64
	Log                  *zap.Logger
}

// extractDescriptor reads the configured descriptor fields of one ASDP.
func (f *Function) extractDescriptor(asdp types.AsdpEntry) []float64 {
	dd := make([]float64, 0, len(f.DiversityDescriptors))
	for i, key := range f.DiversityDescriptors {
		component := 0.0
		value, ok := asdp[key]
		switch {
		case !ok:
			logOr(f.Log).Warn("diversity descriptor field missing, using 0.0",
				zap.String("field", key),
				zap.Int64("asdp_id", asdp.ID()))
		case !value.IsNumeric():
			logOr(f.Log).Warn("diversity descriptor field not numeric, using 0.0",
				zap.String("field", key),
				zap.Int64("asdp_id", asdp.ID()))
		default:
			component = value.Numeric()
		}
		if i < len(f.Weights) {
			component *= f.Weights[i]
		}
		dd = append(dd, component)
	}
	return dd
}

// Similarity computes the kernel similarity of two ASDPs.
func (f *Function) Similarity(a, b types.AsdpEntry) float64 {
	dd1 := f.extractDescriptor(a)
	dd2 := f.extractDescriptor(b)

	switch f.Kernel {
	case KernelGaussian:
		sigma, ok := f.Params["sigma"]
		if !ok {
			sigma = 1.0
			logOr(f.Log).Warn("gaussian kernel missing sigma parameter, using 1.0")
		}
		return gaussianSimilarity(sigma, dd1, dd2)
	default:
		logOr(f.Log).Warn("unknown similarity kernel",
			zap.String("kernel", f.Kernel))
		return 0.0
	}
}

// sqEuclideanDist is the squared Euclidean distance over the shared prefix
// of two descriptors.
func sqEuclideanDist(dd1, dd2 []float64) float64 {
	n := len(dd1)
	if len(dd2) < n {
		n = len(dd2)
	}
	acc := 0.0
	for i := 0; i < n; i++ {
		diff := dd1[i] - dd2[i]
		acc += diff * diff
	}
	return acc
}

func gaussianSimilarity(sigma float64, dd1, dd2 []float64) float64 {
	return math.Exp(-(sqEuclideanDist(dd1, dd2) / (sigma * sigma)))
}
