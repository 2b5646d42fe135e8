// This file contains the equivalence oracle, which decides whether two nodes are geometrically interchangeable.
//
// Geometry nodes are compared by vertex count and material only. Group nodes are compared by their descendants as a
// whole: the number of descendants, the vertex (and optionally polygon) sums and the materials they use. Order does not
// matter, so the comparison works on a precomputed signature.

package grouping

import (
	"slices"

	"github.com/jr-dreamview/ingest-bulk/internal/scenegraph"
)

// signature holds everything the oracle looks at for one node.
type signature struct {
	group       bool
	descendants int
	vertices    int
	polygons    int
	// material of a geometry node, valid when hasMaterial is set
	material    string
	hasMaterial bool
	// materials used below a group node, sorted
	materials []string
}

func newSignature(node scenegraph.Node, multiset bool) signature {
	if !node.IsGroup() {
		material, ok := node.MaterialName()
		return signature{
			vertices:    node.VertexCount(),
			material:    material,
			hasMaterial: ok,
		}
	}

	sig := signature{group: true}
	descendants := scenegraph.Descendants(node)
	sig.descendants = len(descendants)
	for _, d := range descendants {
		sig.vertices += d.VertexCount()
		sig.polygons += d.PolygonCount()
		if material, ok := d.MaterialName(); ok {
			sig.materials = append(sig.materials, material)
		}
	}
	slices.Sort(sig.materials)
	if !multiset {
		sig.materials = slices.Compact(sig.materials)
	}
	return sig
}

// equivalent compares two signatures. A group is never equivalent to a geometry node.
func (s signature) equivalent(other signature, comparePolygons bool) bool {
	if s.group != other.group {
		return false
	}
	if s.vertices != other.vertices {
		return false
	}
	if !s.group {
		return s.hasMaterial && other.hasMaterial && s.material == other.material
	}
	if comparePolygons && s.polygons != other.polygons {
		return false
	}
	return s.descendants == other.descendants && slices.Equal(s.materials, other.materials)
}

// Equivalent reports whether two nodes are interchangeable under DefaultOptions.
func Equivalent(a, b scenegraph.Node) bool {
	return NewPartitioner(DefaultOptions()).Equivalent(a, b)
}

// Equivalent reports whether two nodes are interchangeable under the partitioner's options.
// Nil nodes are never equivalent to anything.
func (p *Partitioner) Equivalent(a, b scenegraph.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return p.signature(a).equivalent(p.signature(b), p.opts.ComparePolygons)
}

func (p *Partitioner) signature(node scenegraph.Node) signature {
	return newSignature(node, p.opts.MaterialMultiset)
}
