// This file contains the Result of a partitioning run and the views the export and audit code build from it.

package grouping

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"cogentcore.org/core/base/ordmap"

	"github.com/jr-dreamview/ingest-bulk/internal/natsort"
	"github.com/jr-dreamview/ingest-bulk/internal/scenegraph"
)

// LeftoverKey labels the leftover bucket in flat renderings (Names, WriteReport).
// Result keeps leftovers apart from the groups, so a node whose canonical key happens to equal LeftoverKey never
// mixes with them.
const LeftoverKey = "[LEFT_OVER]"

// Result is the output of a partitioning run: groups keyed by canonical name in discovery order, plus the leftover
// nodes that matched nothing.
type Result struct {
	groups ordmap.Map[string, []scenegraph.Node]
	// Leftover holds the unmatched nodes in input order.
	Leftover []scenegraph.Node
}

// Representative is the node exported on behalf of a group, or a leftover exported on its own (Key is empty).
type Representative struct {
	Key  string
	Node scenegraph.Node
	// Size is the number of nodes the export stands for.
	Size int
}

// NewResult returns an empty Result. The zero value is ready to use as well.
func NewResult() *Result {
	return &Result{}
}

// Add appends node to the group key, creating the group when needed.
func (r *Result) Add(key string, node scenegraph.Node) {
	members, _ := r.groups.ValueByKeyTry(key)
	r.groups.Add(key, append(members, node))
}

// Len returns the number of groups, not counting leftovers.
func (r *Result) Len() int {
	return r.groups.Len()
}

// Count returns the number of nodes held by the Result, leftovers included.
func (r *Result) Count() int {
	count := len(r.Leftover)
	for _, kv := range r.groups.Order {
		count += len(kv.Value)
	}
	return count
}

// DiscoveryKeys returns the group keys in the order the groups were found.
func (r *Result) DiscoveryKeys() []string {
	return r.groups.Keys()
}

// Keys returns the group keys in natural order.
func (r *Result) Keys() []string {
	keys := r.groups.Keys()
	natsort.Strings(keys)
	return keys
}

// Group returns the members of a group in the order they were added.
func (r *Result) Group(key string) ([]scenegraph.Node, bool) {
	members, ok := r.groups.ValueByKeyTry(key)
	if !ok {
		return nil, false
	}
	return slices.Clone(members), true
}

// Members returns the members of a group in natural name order, or nil for an unknown key.
func (r *Result) Members(key string) []scenegraph.Node {
	members, _ := r.Group(key)
	natsort.Slice(members, scenegraph.Node.Name)
	return members
}

// SortedLeftover returns the leftover nodes in natural name order.
func (r *Result) SortedLeftover() []scenegraph.Node {
	leftover := slices.Clone(r.Leftover)
	natsort.Slice(leftover, scenegraph.Node.Name)
	return leftover
}

// Merge folds other into r. Members of a key present in both are appended to r's group; leftovers are concatenated.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	for _, kv := range other.groups.Order {
		for _, node := range kv.Value {
			r.Add(kv.Key, node)
		}
	}
	r.Leftover = append(r.Leftover, other.Leftover...)
}

// Representatives returns the nodes to export: the first member of every group and every leftover, in natural order
// of node name.
func (r *Result) Representatives() []Representative {
	reps := make([]Representative, 0, r.groups.Len()+len(r.Leftover))
	for _, kv := range r.groups.Order {
		if len(kv.Value) == 0 {
			continue
		}
		reps = append(reps, Representative{Key: kv.Key, Node: kv.Value[0], Size: len(kv.Value)})
	}
	for _, node := range r.Leftover {
		reps = append(reps, Representative{Node: node, Size: 1})
	}
	natsort.Slice(reps, func(rep Representative) string { return rep.Node.Name() })
	return reps
}

// Names returns the member names of every group in natural order, with the leftovers under LeftoverKey.
func (r *Result) Names() map[string][]string {
	names := make(map[string][]string, r.groups.Len()+1)
	for _, key := range r.groups.Keys() {
		names[key] = nodeNames(r.Members(key))
	}
	if len(r.Leftover) > 0 {
		names[LeftoverKey] = nodeNames(r.SortedLeftover())
	}
	return names
}

// WriteReport writes the audit dump: every group key followed by its tab-indented members, groups and members in
// natural order, leftovers last.
func (r *Result) WriteReport(w io.Writer) error {
	var sb strings.Builder
	sb.WriteString("==========\n\nMatched nodes:\n\n")
	for _, key := range r.Keys() {
		writeGroup(&sb, key, r.Members(key))
	}
	if len(r.Leftover) > 0 {
		writeGroup(&sb, LeftoverKey, r.SortedLeftover())
	}
	sb.WriteString("==========\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func (r *Result) String() string {
	var sb strings.Builder
	_ = r.WriteReport(&sb)
	return sb.String()
}

func writeGroup(sb *strings.Builder, key string, members []scenegraph.Node) {
	sb.WriteString(key)
	sb.WriteByte('\n')
	for _, node := range members {
		fmt.Fprintf(sb, "\t%s\n", node.Name())
	}
}

func nodeNames(nodes []scenegraph.Node) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name()
	}
	return names
}
