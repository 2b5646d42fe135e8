package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jr-dreamview/ingest-bulk/internal/common"
	"github.com/jr-dreamview/ingest-bulk/internal/grouping"
	"github.com/jr-dreamview/ingest-bulk/internal/scenegraph"
)

// loadScene reads a scene manifest (.json) or a glTF file (.gltf, .glb).
func loadScene(path string) (*scenegraph.Scene, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		return scenegraph.OpenGLTF(path)
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return readManifest(path, f)
	default:
		return nil, fmt.Errorf("unsupported scene format %q", filepath.Ext(path))
	}
}

func readManifest(path string, r io.Reader) (*scenegraph.Scene, error) {
	var manifest common.SceneManifest
	if err := json.NewDecoder(r).Decode(&manifest); err != nil {
		return nil, err
	}
	roots := manifest.Roots()
	for _, root := range roots {
		if err := scenegraph.Validate(root); err != nil {
			return nil, err
		}
	}
	if manifest.ScenePath != "" {
		path = manifest.ScenePath
	}
	return &scenegraph.Scene{Path: path, Roots: roots}, nil
}

type sceneReport struct {
	Scene      string              `json:"scene"`
	Groups     map[string][]string `json:"groups"`
	Leftover   []string            `json:"leftover"`
	NearMisses []grouping.NearMiss `json:"near_misses,omitempty"`

	result *grouping.Result
}

func newSceneReport(scene string, result *grouping.Result, nearMisses []grouping.NearMiss) sceneReport {
	r := sceneReport{
		Scene:      scene,
		Groups:     map[string][]string{},
		Leftover:   []string{},
		NearMisses: nearMisses,
		result:     result,
	}
	for _, key := range result.Keys() {
		for _, n := range result.Members(key) {
			r.Groups[key] = append(r.Groups[key], n.Name())
		}
	}
	for _, n := range result.SortedLeftover() {
		r.Leftover = append(r.Leftover, n.Name())
	}
	return r
}

// write prints the audit dump, followed by the near misses.
func (r sceneReport) write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s\n", r.Scene); err != nil {
		return err
	}
	if err := r.result.WriteReport(w); err != nil {
		return err
	}
	if len(r.NearMisses) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Similar nodes:"); err != nil {
		return err
	}
	for _, m := range r.NearMisses {
		if _, err := fmt.Fprintf(w, "\t%s <-> %s (%.2f)\n", m.First, m.Second, m.Similarity); err != nil {
			return err
		}
	}
	return nil
}
