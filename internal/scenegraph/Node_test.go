package scenegraph

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name()
	}
	return out
}

func TestDescendants(t *testing.T) {
	tree := NewGroup("bench",
		NewGroup("legs_10",
			NewGeometry("leg_2", 8, 6, "Wood"),
			NewGeometry("leg_1", 8, 6, "Wood"),
		),
		NewGeometry("seat", 24, 12, "Wood"),
		NewGroup("legs_9", NewGeometry("leg_10", 8, 6, "Wood")),
	)

	got := Descendants(tree)
	assert.Equal(t, []string{"leg_1", "leg_2", "leg_10", "legs_9", "legs_10", "seat"}, names(got))
	assert.Empty(t, Descendants(NewGeometry("leaf", 3, 1, "A")))
	assert.Nil(t, Descendants(nil))
}

func TestFlattenIncludesRoots(t *testing.T) {
	scene := &Scene{Roots: Objects([]*Object{
		NewGroup("chair", NewGeometry("chair_seat", 10, 5, "Fabric")),
		NewGeometry("table", 40, 20, "Wood"),
		nil,
	})}
	assert.Equal(t, []string{"chair", "chair_seat", "table"}, names(scene.AllNodes()))
}

func TestObjectMaterial(t *testing.T) {
	_, ok := (&Object{ObjectName: "bare"}).MaterialName()
	assert.False(t, ok)

	name, ok := NewGeometry("lit", 1, 1, "Leaf").MaterialName()
	assert.True(t, ok)
	assert.Equal(t, "Leaf", name)
}

func TestObjectJSON(t *testing.T) {
	manifest := `[
		{"name": "AE34_002_lilly_01", "class": "geometry", "vertex_count": 500, "polygon_count": 480, "material": "Leaf"},
		{"name": "AE34_002_pot", "class": "helper", "children": [
			{"name": "pot_body", "vertex_count": 120, "material": "Clay"},
			{"name": "pot_soil", "vertex_count": 40, "material": "Soil"}
		]}
	]`
	var objects []*Object
	require.NoError(t, json.Unmarshal([]byte(manifest), &objects))
	require.Len(t, objects, 2)

	assert.False(t, objects[0].IsGroup())
	assert.Equal(t, 500, objects[0].VertexCount())
	assert.Equal(t, 480, objects[0].PolygonCount())
	assert.True(t, objects[1].IsGroup())
	assert.Len(t, objects[1].Children(), 2)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(NewGroup("grp", NewGeometry("a", 1, 1, "M"))))

	err := Validate(&Object{ObjectName: "mixed", Class: ClassGeometry, Vertices: 3, Nodes: []*Object{NewGeometry("a", 1, 1, "M")}})
	assert.True(t, errors.Is(err, ErrMixedNode))

	err = Validate(NewGroup("grp", NewGeometry("", 1, 1, "M")))
	assert.True(t, errors.Is(err, ErrUnnamedNode))

	err = Validate(&Object{ObjectName: "fat_group", Class: ClassHelper, Vertices: 4})
	assert.True(t, errors.Is(err, ErrMixedNode))
}
