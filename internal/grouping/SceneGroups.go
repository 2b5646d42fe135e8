package grouping

import (
	"github.com/jr-dreamview/ingest-bulk/internal/natsort"
	"github.com/jr-dreamview/ingest-bulk/internal/scenegraph"
)

// PartitionScene picks the asset candidates among the top-level nodes of a scene and partitions them.
//
// Candidates are filtered with rules, sorted in natural name order and split into geometry nodes and group nodes,
// which never match each other. Each half is partitioned on its own and the two results are merged by key.
// The audit dump is logged at info level.
func (p *Partitioner) PartitionScene(roots []scenegraph.Node, rules scenegraph.Rules) *Result {
	candidates := rules.Candidates(roots)
	natsort.Slice(candidates, scenegraph.Node.Name)

	var geometry, groups []scenegraph.Node
	for _, n := range candidates {
		switch {
		case !n.IsGroup():
			geometry = append(geometry, n)
		case len(n.Children()) > 0:
			groups = append(groups, n)
		}
	}

	result := p.Partition(geometry)
	result.Merge(p.Partition(groups))

	p.logger.Infof("Partitioned %d candidates of %d top-level nodes into %d groups and %d leftovers",
		len(geometry)+len(groups), len(roots), result.Len(), len(result.Leftover))
	p.logger.Info(result.String())
	return result
}

// PartitionScene partitions the top-level nodes of a scene with a Partitioner built from opts.
func PartitionScene(roots []scenegraph.Node, rules scenegraph.Rules, opts Options) *Result {
	return NewPartitioner(opts).PartitionScene(roots, rules)
}
