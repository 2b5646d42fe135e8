package grouping

import (
	"fmt"
	"strings"

	"github.com/jr-dreamview/ingest-bulk/internal/log"
)

// AnchorPolicy controls what the sweep does with an anchor that an earlier anchor already placed in a group.
type AnchorPolicy int

const (
	// SkipMatchedAnchors skips the anchor's comparisons entirely.
	SkipMatchedAnchors AnchorPolicy = iota
	// ExtendMatchedAnchors still compares the anchor against later nodes. It may pull further members into the group
	// it already belongs to, but never starts a new group.
	ExtendMatchedAnchors
)

func (a AnchorPolicy) String() string {
	switch a {
	case SkipMatchedAnchors:
		return "skip"
	case ExtendMatchedAnchors:
		return "extend"
	}
	return fmt.Sprintf("AnchorPolicy(%d)", int(a))
}

// MarshalText implements encoding.TextMarshaler.
func (a AnchorPolicy) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, accepting "skip" and "extend".
func (a *AnchorPolicy) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "skip":
		*a = SkipMatchedAnchors
	case "extend":
		*a = ExtendMatchedAnchors
	default:
		return fmt.Errorf("unknown anchor policy %q", text)
	}
	return nil
}

// Options configure a Partitioner. The zero value compares vertex counts and material sets only.
type Options struct {
	// ComparePolygons also requires equal polygon sums when comparing groups. Geometry nodes never compare polygons.
	ComparePolygons bool `yaml:"compare_polygons" json:"compare_polygons"`
	// MaterialMultiset compares group materials as sorted lists with duplicates instead of as sets.
	MaterialMultiset bool `yaml:"material_multiset" json:"material_multiset"`
	// PreserveTokenCase keeps the case of an alphanumeric mismatch token when its digits are stripped.
	// By default the stripped token is lower-cased: "Lamp001" -> "lamp".
	PreserveTokenCase bool `yaml:"preserve_token_case" json:"preserve_token_case"`
	// Anchors selects the handling of anchors that are already grouped.
	Anchors AnchorPolicy `yaml:"anchors" json:"anchors"`
	// SimilarRatio is the name similarity above which two equivalent leftovers are reported as a near miss.
	// Zero disables the near-miss report.
	SimilarRatio float64 `yaml:"similar_ratio" json:"similar_ratio"`

	Logger *log.Logger `yaml:"-" json:"-"`
}

// DefaultOptions returns the options used by the ingest service.
func DefaultOptions() Options {
	return Options{
		ComparePolygons: true,
		Anchors:         SkipMatchedAnchors,
		SimilarRatio:    0.80,
	}
}
