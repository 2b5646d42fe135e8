// This file contains the glTF adapter. It turns a glTF document into a Scene so the grouping engine can run on
// exported scenes without the host application.
//
// Nodes with a mesh become geometry leaves. Nodes without a mesh become groups. A glTF node may carry a mesh and
// children at the same time, which the node model does not allow; such a node becomes a group whose first child is a
// geometry leaf holding the node's own mesh.

package scenegraph

import (
	"fmt"

	"github.com/qmuntal/gltf"
)

type gltfNode struct {
	name     string
	group    bool
	vertices int
	polygons int
	material string
	children []Node
}

func (n *gltfNode) Name() string      { return n.name }
func (n *gltfNode) Children() []Node  { return n.children }
func (n *gltfNode) VertexCount() int  { return n.vertices }
func (n *gltfNode) PolygonCount() int { return n.polygons }
func (n *gltfNode) IsGroup() bool     { return n.group }

func (n *gltfNode) MaterialName() (string, bool) {
	return n.material, n.material != ""
}

// OpenGLTF reads a .gltf or .glb file into a Scene.
func OpenGLTF(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open glTF scene %s: %w", path, err)
	}
	scene := FromGLTF(doc)
	scene.Path = path
	return scene, nil
}

// FromGLTF builds a Scene from the document's default scene. Without a default scene the first scene is used, and
// without any scene every node that is nobody's child becomes a root.
func FromGLTF(doc *gltf.Document) *Scene {
	b := &gltfBuilder{doc: doc, visiting: make(map[int]bool)}

	var roots []int
	switch {
	case doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes):
		for _, idx := range doc.Scenes[*doc.Scene].Nodes {
			roots = append(roots, int(idx))
		}
	case len(doc.Scenes) > 0:
		for _, idx := range doc.Scenes[0].Nodes {
			roots = append(roots, int(idx))
		}
	default:
		isChild := make(map[int]bool)
		for _, n := range doc.Nodes {
			for _, idx := range n.Children {
				isChild[int(idx)] = true
			}
		}
		for idx := range doc.Nodes {
			if !isChild[idx] {
				roots = append(roots, idx)
			}
		}
	}

	scene := &Scene{}
	for _, idx := range roots {
		if n := b.build(idx); n != nil {
			scene.Roots = append(scene.Roots, n)
		}
	}
	return scene
}

type gltfBuilder struct {
	doc      *gltf.Document
	visiting map[int]bool
}

func (b *gltfBuilder) build(idx int) Node {
	if idx < 0 || idx >= len(b.doc.Nodes) || b.visiting[idx] {
		return nil
	}
	b.visiting[idx] = true
	defer delete(b.visiting, idx)

	src := b.doc.Nodes[idx]
	name := src.Name
	if name == "" {
		name = fmt.Sprintf("node_%d", idx)
	}

	var children []Node
	for _, c := range src.Children {
		if child := b.build(int(c)); child != nil {
			children = append(children, child)
		}
	}

	if src.Mesh == nil {
		return &gltfNode{name: name, group: true, children: children}
	}

	leaf := b.meshLeaf(name, int(*src.Mesh))
	if len(children) == 0 {
		return leaf
	}
	return &gltfNode{name: name, group: true, children: append([]Node{leaf}, children...)}
}

func (b *gltfBuilder) meshLeaf(name string, meshIdx int) *gltfNode {
	leaf := &gltfNode{name: name}
	if meshIdx < 0 || meshIdx >= len(b.doc.Meshes) {
		return leaf
	}
	for _, prim := range b.doc.Meshes[meshIdx].Primitives {
		positions := 0
		if idx, ok := prim.Attributes[gltf.POSITION]; ok {
			positions = b.accessorCount(int(idx))
		}
		leaf.vertices += positions

		elements := positions
		if prim.Indices != nil {
			elements = b.accessorCount(int(*prim.Indices))
		}
		switch prim.Mode {
		case gltf.PrimitiveTriangles:
			leaf.polygons += elements / 3
		case gltf.PrimitiveTriangleStrip, gltf.PrimitiveTriangleFan:
			if elements > 2 {
				leaf.polygons += elements - 2
			}
		}

		if leaf.material == "" && prim.Material != nil {
			leaf.material = b.materialName(int(*prim.Material))
		}
	}
	return leaf
}

func (b *gltfBuilder) accessorCount(idx int) int {
	if idx < 0 || idx >= len(b.doc.Accessors) || b.doc.Accessors[idx] == nil {
		return 0
	}
	return int(b.doc.Accessors[idx].Count)
}

// materialName falls back to the material index so unnamed materials still compare by identity.
func (b *gltfBuilder) materialName(idx int) string {
	if idx < 0 || idx >= len(b.doc.Materials) || b.doc.Materials[idx] == nil {
		return ""
	}
	if name := b.doc.Materials[idx].Name; name != "" {
		return name
	}
	return fmt.Sprintf("material_%d", idx)
}
