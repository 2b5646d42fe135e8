package grouping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearMisses(t *testing.T) {
	input := objects(
		geo("AE34_tree_big", 900, 450, "Bark"),
		geo("AE34_tree_bigg", 900, 450, "Bark"),
		geo("AE34_tree_bog", 300, 150, "Bark"),
		geo("AE34_rock", 900, 450, "Bark"),
	)
	p := NewPartitioner(DefaultOptions())
	result := p.Partition(input)
	require.Len(t, result.Leftover, 4)

	misses := p.NearMisses(result)
	require.Len(t, misses, 1)
	assert.Equal(t, "AE34_tree_big", misses[0].First)
	assert.Equal(t, "AE34_tree_bigg", misses[0].Second)
	assert.Greater(t, misses[0].Similarity, 0.8)
	assert.Less(t, misses[0].Similarity, 1.0)
}

func TestNearMissesDisabled(t *testing.T) {
	result := NewPartitioner(DefaultOptions()).Partition(objects(
		geo("AE34_tree_big", 900, 450, "Bark"),
		geo("AE34_tree_bigg", 900, 450, "Bark"),
	))

	opts := DefaultOptions()
	opts.SimilarRatio = 0
	assert.Nil(t, NearMisses(result, opts))
	assert.Nil(t, NearMisses(nil, DefaultOptions()))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("lamp", "lamp"))
	assert.Less(t, Similarity("lamp", "sofa"), 0.5)
}
