package scenegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRulesInclude(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name string
		node *Object
		want bool
	}{
		{"geometry with material", NewGeometry("AE34_002_lilly_01", 500, 400, "Leaf"), true},
		{"geometry without material", NewGeometry("AE34_002_lilly_01", 500, 400, ""), false},
		{"group with children", NewGroup("AE34_002_pot", NewGeometry("pot", 1, 1, "Clay")), true},
		{"empty group", NewGroup("AE34_002_empty"), false},
		{"light", &Object{ObjectName: "Sun", Class: ClassLight, Material: "x"}, false},
		{"camera", &Object{ObjectName: "Camera001", Class: ClassCamera, Material: "x"}, false},
		{"camera target", NewGeometry("Camera001.Target", 1, 1, "x"), false},
		{"particle view", NewGeometry("Particle View 001", 1, 1, "x"), false},
		{"vray helper", NewGeometry("VRayPlane001", 4, 1, "x"), false},
		{"hidden", &Object{ObjectName: "hidden", Class: ClassGeometry, Material: "x", Hidden: true}, false},
		{"invisible", &Object{ObjectName: "ghost", Class: ClassGeometry, Material: "x", Invisible: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rules.Include(tt.node))
		})
	}
}

func TestRulesAllowHidden(t *testing.T) {
	rules := DefaultRules()
	rules.AllowHidden = true
	assert.True(t, rules.Include(&Object{ObjectName: "hidden", Class: ClassGeometry, Material: "x", Hidden: true}))
}

func TestRulesRequireGroupMaterial(t *testing.T) {
	rules := DefaultRules()
	bare := NewGroup("AE34_002_pot", NewGeometry("pot", 1, 1, "Clay"))
	painted := NewGroup("AE34_002_pot", NewGeometry("pot", 1, 1, "Clay"))
	painted.Material = "Multi"

	assert.True(t, rules.Include(bare))

	rules.RequireGroupMaterial = true
	assert.False(t, rules.Include(bare))
	assert.True(t, rules.Include(painted))
	assert.True(t, rules.Include(NewGeometry("AE34_002_lilly_01", 500, 400, "Leaf")))
}

func TestCandidatesKeepOrder(t *testing.T) {
	nodes := Objects([]*Object{
		NewGeometry("b", 1, 1, "M"),
		NewGeometry("Camera.Target", 1, 1, "M"),
		NewGeometry("a", 1, 1, "M"),
	})
	assert.Equal(t, []string{"b", "a"}, names(DefaultRules().Candidates(nodes)))
}
