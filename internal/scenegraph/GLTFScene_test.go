package scenegraph

import (
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Accessors carry counts only; the adapter never reads buffer data.
const potScene = `{
	"asset": {"version": "2.0"},
	"scene": 0,
	"scenes": [{"nodes": [0, 3, 4]}],
	"nodes": [
		{"name": "AE34_002_pot_01", "children": [1, 2]},
		{"name": "pot_body", "mesh": 0},
		{"name": "pot_soil", "mesh": 1},
		{"name": "AE34_002_lamp", "mesh": 0, "children": [5]},
		{"mesh": 1},
		{"name": "lamp_shade", "mesh": 1}
	],
	"meshes": [
		{"primitives": [{"attributes": {"POSITION": 0}, "indices": 1, "material": 0}]},
		{"primitives": [{"attributes": {"POSITION": 2}, "material": 1}]}
	],
	"materials": [{"name": "Clay"}, {}],
	"accessors": [
		{"componentType": 5126, "type": "VEC3", "count": 120},
		{"componentType": 5123, "type": "SCALAR", "count": 600},
		{"componentType": 5126, "type": "VEC3", "count": 36}
	]
}`

func decodeScene(t *testing.T, src string) *Scene {
	t.Helper()
	doc := new(gltf.Document)
	require.NoError(t, gltf.NewDecoder(strings.NewReader(src)).Decode(doc))
	return FromGLTF(doc)
}

func TestFromGLTF(t *testing.T) {
	scene := decodeScene(t, potScene)
	require.Len(t, scene.Roots, 3)

	pot := scene.Roots[0]
	assert.Equal(t, "AE34_002_pot_01", pot.Name())
	assert.True(t, pot.IsGroup())
	require.Len(t, pot.Children(), 2)

	body := pot.Children()[0]
	assert.False(t, body.IsGroup())
	assert.Equal(t, 120, body.VertexCount())
	assert.Equal(t, 200, body.PolygonCount())
	material, ok := body.MaterialName()
	assert.True(t, ok)
	assert.Equal(t, "Clay", material)

	soil := pot.Children()[1]
	assert.Equal(t, 36, soil.VertexCount())
	assert.Equal(t, 12, soil.PolygonCount())
	material, _ = soil.MaterialName()
	assert.Equal(t, "material_1", material)
}

func TestFromGLTFMixedNode(t *testing.T) {
	scene := decodeScene(t, potScene)

	lamp := scene.Roots[1]
	assert.True(t, lamp.IsGroup())
	assert.Equal(t, []string{"AE34_002_lamp", "lamp_shade"}, names(lamp.Children()))
	assert.NoError(t, Validate(lamp))

	unnamed := scene.Roots[2]
	assert.Equal(t, "node_4", unnamed.Name())
}

func TestFromGLTFWithoutScenes(t *testing.T) {
	scene := decodeScene(t, `{
		"asset": {"version": "2.0"},
		"nodes": [
			{"name": "root", "children": [1]},
			{"name": "leaf"},
			{"name": "other"}
		]
	}`)
	assert.Equal(t, []string{"root", "other"}, names(scene.Roots))
}
