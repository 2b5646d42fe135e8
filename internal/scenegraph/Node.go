// This file contains the Node interface, the Object implementation and descendant flattening.

package scenegraph

import (
	"errors"
	"fmt"

	"github.com/jr-dreamview/ingest-bulk/internal/natsort"
)

var (
	// ErrUnnamedNode is returned by Validate when a node has an empty name.
	ErrUnnamedNode = errors.New("node has no name")
	// ErrMixedNode is returned by Validate when a node has both children and geometry.
	ErrMixedNode = errors.New("node has both children and geometry")
)

// Node is a handle to a scene element, either a group or a geometry leaf.
type Node interface {
	Name() string
	Children() []Node
	VertexCount() int
	PolygonCount() int
	// MaterialName returns false when the node has no material.
	MaterialName() (string, bool)
	IsGroup() bool
}

// Node classes reported by the host application.
const (
	ClassGeometry = "geometry"
	ClassHelper   = "helper"
	ClassLight    = "light"
	ClassCamera   = "camera"
)

// Object is a serializable Node. Manifests posted by the traversal plugin are lists of Objects.
//
// An Object with Class "helper" is a group. Any other class is treated as geometry.
type Object struct {
	ObjectName string    `bson:"name" json:"name"`
	Class      string    `bson:"class,omitempty" json:"class,omitempty"`
	Vertices   int       `bson:"vertex_count,omitempty" json:"vertex_count,omitempty"`
	Polygons   int       `bson:"polygon_count,omitempty" json:"polygon_count,omitempty"`
	Material   string    `bson:"material,omitempty" json:"material,omitempty"`
	Hidden     bool      `bson:"hidden,omitempty" json:"hidden,omitempty"`
	Invisible  bool      `bson:"invisible,omitempty" json:"invisible,omitempty"`
	Nodes      []*Object `bson:"children,omitempty" json:"children,omitempty"`
}

// NewGeometry returns a geometry leaf.
func NewGeometry(name string, vertices, polygons int, material string) *Object {
	return &Object{ObjectName: name, Class: ClassGeometry, Vertices: vertices, Polygons: polygons, Material: material}
}

// NewGroup returns a group node holding the given children.
func NewGroup(name string, children ...*Object) *Object {
	return &Object{ObjectName: name, Class: ClassHelper, Nodes: children}
}

func (o *Object) Name() string      { return o.ObjectName }
func (o *Object) VertexCount() int  { return o.Vertices }
func (o *Object) PolygonCount() int { return o.Polygons }
func (o *Object) IsGroup() bool     { return o.Class == ClassHelper }

func (o *Object) Children() []Node {
	children := make([]Node, 0, len(o.Nodes))
	for _, child := range o.Nodes {
		if child != nil {
			children = append(children, child)
		}
	}
	return children
}

func (o *Object) MaterialName() (string, bool) {
	return o.Material, o.Material != ""
}

// Visible reports whether the node would be rendered by the host application.
func (o *Object) Visible() bool {
	return !o.Hidden && !o.Invisible
}

// Objects converts a list of Objects into Nodes, dropping nil entries.
func Objects(objects []*Object) []Node {
	nodes := make([]Node, 0, len(objects))
	for _, o := range objects {
		if o != nil {
			nodes = append(nodes, o)
		}
	}
	return nodes
}

// Descendants returns every descendant of node at every depth, excluding node itself, ordered by natural name.
func Descendants(node Node) []Node {
	if node == nil {
		return nil
	}
	var all []Node
	collect(node.Children(), &all)
	natsort.Slice(all, Node.Name)
	return all
}

// Flatten returns the given nodes and all of their descendants, ordered by natural name.
func Flatten(nodes []Node) []Node {
	var all []Node
	collect(nodes, &all)
	natsort.Slice(all, Node.Name)
	return all
}

// collect appends children before their parent, depth first.
func collect(nodes []Node, all *[]Node) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if children := n.Children(); len(children) > 0 {
			collect(children, all)
		}
		*all = append(*all, n)
	}
}

// Validate checks the group/geometry dichotomy for node and every descendant.
// The grouping engine tolerates invalid nodes; callers that accept input from outside use Validate to reject it early.
func Validate(node Node) error {
	if node.Name() == "" {
		return ErrUnnamedNode
	}
	children := node.Children()
	if len(children) > 0 && !node.IsGroup() {
		return fmt.Errorf("%q: %w", node.Name(), ErrMixedNode)
	}
	if node.IsGroup() && (node.VertexCount() != 0 || node.PolygonCount() != 0) {
		return fmt.Errorf("%q: %w", node.Name(), ErrMixedNode)
	}
	for _, child := range children {
		if err := Validate(child); err != nil {
			return fmt.Errorf("%q: %w", node.Name(), err)
		}
	}
	return nil
}
