package grouping

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jr-dreamview/ingest-bulk/internal/scenegraph"
)

func TestPartitionScene(t *testing.T) {
	hidden := geo("vase_3", 40, 20, "Glass")
	hidden.Hidden = true

	roots := objects(
		&scenegraph.Object{ObjectName: "Sun", Class: scenegraph.ClassLight},
		&scenegraph.Object{ObjectName: "Camera01", Class: scenegraph.ClassCamera},
		geo("Camera01.Target", 1, 1, "Default"),
		geo("VRayPhysicalCamera_helper", 1, 1, "Default"),
		chair("chair_02"),
		geo("vase_2", 40, 20, "Glass"),
		chair("chair_01"),
		geo("vase_1", 40, 20, "Glass"),
		hidden,
		geo("table", 400, 200, "Oak"),
		geo("untextured", 10, 5, ""),
		group("empty_helper"),
	)

	result := PartitionScene(roots, scenegraph.DefaultRules(), DefaultOptions())

	assert.Equal(t, []string{"chair", "vase"}, result.Keys())
	assert.Equal(t, []string{"chair_01", "chair_02"}, nodeNames(result.Members("chair")))
	assert.Equal(t, []string{"vase_1", "vase_2"}, nodeNames(result.Members("vase")))
	assert.Equal(t, []string{"table"}, nodeNames(result.Leftover))
}

func TestPartitionSceneMergesGeometryAndGroupKeys(t *testing.T) {
	roots := objects(
		geo("crate_1", 8, 6, "Wood"),
		geo("crate_2", 8, 6, "Wood"),
		group("crate_3", geo("lid", 8, 6, "Wood")),
		group("crate_4", geo("lid", 8, 6, "Wood")),
	)

	result := PartitionScene(roots, scenegraph.DefaultRules(), DefaultOptions())

	assert.Equal(t, 1, result.Len())
	assert.Equal(t, []string{"crate_1", "crate_2", "crate_3", "crate_4"}, nodeNames(result.Members("crate")))
	assert.Empty(t, result.Leftover)
}
