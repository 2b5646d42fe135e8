// This file contains the Scene type and the include rules that decide which top-level nodes are asset candidates.
//
// Stock scenes ship with lights, cameras, camera targets, particle flow views and renderer helpers next to the assets.
// None of those should be ingested, so they are filtered out before grouping.

package scenegraph

import (
	"slices"
	"strings"
)

// Scene is the root of a node graph.
type Scene struct {
	Path  string
	Roots []Node
}

// AllNodes returns every node in the scene at every depth, ordered by natural name.
func (s *Scene) AllNodes() []Node {
	return Flatten(s.Roots)
}

// Rules decide whether a top-level node qualifies as an asset candidate.
type Rules struct {
	// ExcludeClasses lists node classes that never qualify.
	ExcludeClasses []string `yaml:"exclude_classes" json:"exclude_classes"`
	// ExcludeNames lists substrings that disqualify a node name, matched case-sensitively.
	ExcludeNames []string `yaml:"exclude_names" json:"exclude_names"`
	// ExcludeNamesFold lists substrings that disqualify a node name, matched case-insensitively.
	ExcludeNamesFold []string `yaml:"exclude_names_fold" json:"exclude_names_fold"`
	// AllowHidden includes hidden and invisible nodes.
	AllowHidden bool `yaml:"allow_hidden" json:"allow_hidden"`
	// RequireGroupMaterial also drops group nodes that carry no material of their own.
	RequireGroupMaterial bool `yaml:"require_group_material" json:"require_group_material"`
}

// DefaultRules returns the rules used for stock scenes.
func DefaultRules() Rules {
	return Rules{
		ExcludeClasses:   []string{ClassLight, ClassCamera},
		ExcludeNames:     []string{".Target", "Particle View"},
		ExcludeNamesFold: []string{"vray"},
	}
}

// classed and visibility are optional capabilities of a Node.
type classed interface {
	Node
	ClassName() string
}

type visibility interface {
	Node
	Visible() bool
}

// ClassName returns the host class of the object.
func (o *Object) ClassName() string { return o.Class }

// Include reports whether node qualifies as an asset candidate.
func (r Rules) Include(node Node) bool {
	if node == nil {
		return false
	}
	if c, ok := node.(classed); ok && slices.Contains(r.ExcludeClasses, c.ClassName()) {
		return false
	}
	if node.IsGroup() && len(node.Children()) == 0 {
		return false
	}
	if !node.IsGroup() || r.RequireGroupMaterial {
		if _, ok := node.MaterialName(); !ok {
			return false
		}
	}
	if v, ok := node.(visibility); ok && !r.AllowHidden && !v.Visible() {
		return false
	}
	name := node.Name()
	for _, part := range r.ExcludeNames {
		if part != "" && strings.Contains(name, part) {
			return false
		}
	}
	lower := strings.ToLower(name)
	for _, part := range r.ExcludeNamesFold {
		if part != "" && strings.Contains(lower, strings.ToLower(part)) {
			return false
		}
	}
	return true
}

// Candidates returns the nodes that qualify, in input order.
func (r Rules) Candidates(nodes []Node) []Node {
	candidates := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if r.Include(n) {
			candidates = append(candidates, n)
		}
	}
	return candidates
}
