package grouping

import (
	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// NearMiss is a pair of leftover nodes that are interchangeable and have similar names, but whose names do not
// differ by a single version token. Operators review them by hand.
type NearMiss struct {
	First      string  `bson:"first" json:"first"`
	Second     string  `bson:"second" json:"second"`
	Similarity float64 `bson:"similarity" json:"similarity"`
}

// Similarity returns the normalized Levenshtein similarity of two names, from 0 (unrelated) to 1 (identical).
func Similarity(a, b string) float64 {
	return strutil.Similarity(a, b, metrics.NewLevenshtein())
}

// NearMisses compares every pair of leftovers in natural order and returns the equivalent pairs whose name similarity
// is above Options.SimilarRatio. It returns nil when the ratio is not positive.
func (p *Partitioner) NearMisses(result *Result) []NearMiss {
	if result == nil || p.opts.SimilarRatio <= 0 {
		return nil
	}
	leftover := result.SortedLeftover()
	sigs := make([]signature, len(leftover))
	for i, n := range leftover {
		sigs[i] = p.signature(n)
	}

	var misses []NearMiss
	for i := 0; i < len(leftover)-1; i++ {
		for j := i + 1; j < len(leftover); j++ {
			if !sigs[i].equivalent(sigs[j], p.opts.ComparePolygons) {
				continue
			}
			similarity := Similarity(leftover[i].Name(), leftover[j].Name())
			if similarity <= p.opts.SimilarRatio {
				continue
			}
			misses = append(misses, NearMiss{First: leftover[i].Name(), Second: leftover[j].Name(), Similarity: similarity})
		}
	}
	return misses
}

// NearMisses runs the near-miss report with a Partitioner built from opts.
func NearMisses(result *Result, opts Options) []NearMiss {
	return NewPartitioner(opts).NearMisses(result)
}
