package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jr-dreamview/ingest-bulk/internal/grouping"
	"github.com/jr-dreamview/ingest-bulk/internal/scenegraph"
)

const gardenManifest = `{
	"scene_path": "garden.max",
	"nodes": [
		{"name": "garden_lamp_02", "vertex_count": 120, "polygon_count": 60, "material": "Metal"},
		{"name": "garden_lamp_01", "vertex_count": 120, "polygon_count": 60, "material": "Metal"},
		{"name": "bench", "class": "helper", "children": [
			{"name": "bench_seat", "vertex_count": 40, "material": "Wood"}
		]}
	]
}`

func TestReadManifest(t *testing.T) {
	scene, err := readManifest("garden.json", strings.NewReader(gardenManifest))
	require.NoError(t, err)
	assert.Equal(t, "garden.max", scene.Path)
	require.Len(t, scene.Roots, 3)
	assert.True(t, scene.Roots[2].IsGroup())
}

func TestReadManifestRejectsMixedNodes(t *testing.T) {
	_, err := readManifest("bad.json", strings.NewReader(`{"nodes": [
		{"name": "table", "vertex_count": 8, "children": [{"name": "leg", "vertex_count": 8}]}
	]}`))
	assert.ErrorIs(t, err, scenegraph.ErrMixedNode)
}

func TestLoadScene(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garden.json")
	require.NoError(t, os.WriteFile(path, []byte(gardenManifest), 0o644))

	scene, err := loadScene(path)
	require.NoError(t, err)
	assert.Len(t, scene.Roots, 3)

	_, err = loadScene(filepath.Join(dir, "garden.fbx"))
	assert.Error(t, err)
}

func TestSceneReport(t *testing.T) {
	scene, err := readManifest("garden.json", strings.NewReader(gardenManifest))
	require.NoError(t, err)

	result := grouping.PartitionScene(scene.Roots, scenegraph.DefaultRules(), grouping.DefaultOptions())
	nearMisses := []grouping.NearMiss{{First: "AE34_tree_big", Second: "AE34_tree_bigg", Similarity: 0.93}}
	report := newSceneReport(scene.Path, result, nearMisses)

	assert.Equal(t, map[string][]string{"garden_lamp": {"garden_lamp_01", "garden_lamp_02"}}, report.Groups)
	assert.Equal(t, []string{"bench"}, report.Leftover)

	var buf bytes.Buffer
	require.NoError(t, report.write(&buf))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "garden.max\n"))
	assert.Contains(t, out, "garden_lamp\n\tgarden_lamp_01\n\tgarden_lamp_02\n")
	assert.Contains(t, out, "Similar nodes:\n\tAE34_tree_big <-> AE34_tree_bigg (0.93)\n")
}
