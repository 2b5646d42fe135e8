// This file contains the Partitioner, the single-pass sweep that folds candidate nodes into families.

package grouping

import (
	"slices"
	"strings"

	"github.com/jr-dreamview/ingest-bulk/internal/log"
	"github.com/jr-dreamview/ingest-bulk/internal/scenegraph"
)

// Partitioner groups nodes into families. It holds no state between calls and is safe for concurrent use.
type Partitioner struct {
	opts   Options
	logger *log.Logger
}

// NewPartitioner returns a Partitioner using opts. A nil opts.Logger disables logging.
func NewPartitioner(opts Options) *Partitioner {
	return &Partitioner{opts: opts, logger: log.OrNop(opts.Logger)}
}

// Options returns the options the Partitioner was built with.
func (p *Partitioner) Options() Options {
	return p.opts
}

// Partition sweeps nodes in the given order and returns the groups found plus the leftover nodes.
// Callers pass nodes in natural name order; the anchor of each comparison is always the earlier node.
//
// Every node ends up either in exactly one group or in Result.Leftover. Nil entries are ignored.
func (p *Partitioner) Partition(nodes []scenegraph.Node) *Result {
	nodes = slices.DeleteFunc(slices.Clone(nodes), func(n scenegraph.Node) bool { return n == nil })

	sigs := make([]signature, len(nodes))
	for i, n := range nodes {
		sigs[i] = p.signature(n)
	}

	result := NewResult()
	matched := make([]bool, len(nodes))
	groupOf := make([]string, len(nodes))

	for i := 0; i < len(nodes)-1; i++ {
		anchorMatched := matched[i]
		if anchorMatched && p.opts.Anchors == SkipMatchedAnchors {
			continue
		}

		anchorName := nodes[i].Name()
		var anchorTokens []string
		index := -1

		for j := i + 1; j < len(nodes); j++ {
			if matched[j] || !sigs[i].equivalent(sigs[j], p.opts.ComparePolygons) {
				continue
			}
			candidateIndex, ok := VersionMismatch(anchorName, nodes[j].Name())
			if !ok {
				continue
			}

			// The first hit fixes where this anchor's family differs. A matched anchor only fixes it once a
			// candidate joins its own group, so a hit from another family does not shut out later members.
			if index >= 0 && candidateIndex != index {
				continue
			}
			tokens := anchorTokens
			if index < 0 {
				tokens = CleanTokenAt(Tokenize(anchorName), candidateIndex, p.opts.PreserveTokenCase)
				if !anchorMatched {
					index, anchorTokens = candidateIndex, tokens
				}
			}
			candidateTokens := CleanTokenAt(Tokenize(nodes[j].Name()), candidateIndex, p.opts.PreserveTokenCase)
			if !slices.Equal(tokens, candidateTokens) {
				continue
			}

			key := strings.Join(tokens, Delimiter)
			if anchorMatched && groupOf[i] != key {
				continue
			}
			if index < 0 {
				index, anchorTokens = candidateIndex, tokens
			}
			if !matched[i] {
				result.Add(key, nodes[i])
				matched[i] = true
				groupOf[i] = key
			}
			result.Add(key, nodes[j])
			matched[j] = true
			groupOf[j] = key

			p.logger.Debugf("Nodes %q and %q match", anchorName, nodes[j].Name())
		}
	}

	for i, n := range nodes {
		if !matched[i] {
			result.Leftover = append(result.Leftover, n)
		}
	}
	return result
}
