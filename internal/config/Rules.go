package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jr-dreamview/ingest-bulk/internal/grouping"
	"github.com/jr-dreamview/ingest-bulk/internal/scenegraph"
)

// Rules is the content of the ingest rules file:
//
//	include:
//	  exclude_classes: [light, camera]
//	  exclude_names: [".Target", "Particle View"]
//	  exclude_names_fold: [vray]
//	  require_group_material: false
//	grouping:
//	  compare_polygons: true
//	  anchors: skip
//	  similar_ratio: 0.8
//
// Sections or keys left out keep their defaults.
type Rules struct {
	Include  scenegraph.Rules `yaml:"include"`
	Grouping grouping.Options `yaml:"grouping"`
}

// DefaultRules returns the rules used when no rules file is configured.
func DefaultRules() Rules {
	return Rules{
		Include:  scenegraph.DefaultRules(),
		Grouping: grouping.DefaultOptions(),
	}
}

// LoadRules reads a rules file. An empty path returns DefaultRules.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("error reading rules file: %w", err)
	}
	if err := ParseRules(data, &rules); err != nil {
		return rules, fmt.Errorf("error parsing rules file %s: %w", path, err)
	}
	return rules, nil
}

// ParseRules decodes YAML into rules, overwriting only the keys present in data. Unknown keys are an error.
func ParseRules(data []byte, rules *Rules) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(rules); err != nil {
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		return err
	}
	if rules.Grouping.SimilarRatio < 0 || rules.Grouping.SimilarRatio > 1 {
		return fmt.Errorf("similar_ratio %v is outside [0, 1]", rules.Grouping.SimilarRatio)
	}
	return nil
}
