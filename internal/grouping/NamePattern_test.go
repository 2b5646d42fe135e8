package grouping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMismatchIndex(t *testing.T) {
	tests := []struct {
		name1, name2 string
		index        int
		ok           bool
	}{
		{"AE34_002_lilly_01", "AE34_002_lilly_02", 3, true},
		{"AE34_002_garden_lamp", "AE34_002_garden_lamp001", 3, true},
		{"AE34_002_lilly_02", "AE34_002_weed_02", 2, true},
		{"AE34_002_lilly_01", "AE34_002_lilly_01", 0, false},
		{"AE34_002_lilly_01", "AE34_002_lilly_leaf_01", 0, false},
		{"AE34_002_lilly_01", "AE34_003_lilly_02", 0, false},
		{"", "_", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name1+"/"+tt.name2, func(t *testing.T) {
			index, ok := MismatchIndex(tt.name1, tt.name2)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.index, index)
		})
	}
}

func TestVersionMismatch(t *testing.T) {
	index, ok := VersionMismatch("AE34_002_lilly_01", "AE34_002_lilly_02")
	assert.True(t, ok)
	assert.Equal(t, 3, index)

	index, ok = VersionMismatch("AE34_002_garden_lamp", "AE34_002_garden_lamp001")
	assert.True(t, ok)
	assert.Equal(t, 3, index)

	// Plain words name different things.
	_, ok = VersionMismatch("AE34_002_lilly_02", "AE34_002_weed_02")
	assert.False(t, ok)

	// Only the second name's token is checked.
	_, ok = VersionMismatch("AE34_002_garden_lamp001", "AE34_002_garden_lamp")
	assert.False(t, ok)
}

func TestCleanTokenAt(t *testing.T) {
	tests := []struct {
		name     string
		tokens   []string
		index    int
		expected []string
	}{
		{"numeric", []string{"AE34", "002", "lilly", "01"}, 3, []string{"AE34", "002", "lilly"}},
		{"alphanumeric", []string{"AE34", "002", "garden", "lamp001"}, 3, []string{"AE34", "002", "garden", "lamp"}},
		{"alpha", []string{"AE34", "002", "garden", "lamp"}, 3, []string{"AE34", "002", "garden", "lamp"}},
		{"numeric middle", []string{"chair", "02", "seat"}, 1, []string{"chair", "seat"}},
		{"single numeric token", []string{"01"}, 0, []string{"01"}},
		{"digits inside", []string{"v2b7"}, 0, []string{"vb"}},
		{"lower cased", []string{"Lamp001"}, 0, []string{"lamp"}},
		{"out of range", []string{"a", "b"}, 5, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanTokenAt(tt.tokens, tt.index, false))
		})
	}
}

func TestCleanTokenAtPreserveCase(t *testing.T) {
	assert.Equal(t, []string{"AE34", "Lamp"}, CleanTokenAt([]string{"AE34", "Lamp001"}, 1, true))
}

func TestCleanTokenAtDoesNotMutate(t *testing.T) {
	tokens := []string{"AE34", "002", "lilly", "01"}
	CleanTokenAt(tokens, 3, false)
	CleanTokenAt(tokens, 1, false)
	assert.Equal(t, []string{"AE34", "002", "lilly", "01"}, tokens)
}

func TestFamily(t *testing.T) {
	key, ok := Family("AE34_002_garden_lamp", "AE34_002_garden_lamp001", false)
	assert.True(t, ok)
	assert.Equal(t, "AE34_002_garden_lamp", key)

	key, ok = Family("AE34_002_lilly_01", "AE34_002_lilly_02", false)
	assert.True(t, ok)
	assert.Equal(t, "AE34_002_lilly", key)

	_, ok = Family("AE34_002_lilly_02", "AE34_002_weed_02", false)
	assert.False(t, ok)

	// "lamp" and "lamp2b" clean to "lamp" and "lampb".
	_, ok = Family("garden_lamp", "garden_lamp2b", false)
	assert.False(t, ok)
}

func TestTokenClasses(t *testing.T) {
	assert.True(t, isNumeric("042"))
	assert.False(t, isNumeric(""))
	assert.False(t, isNumeric("lamp001"))
	assert.False(t, isNumeric("٣"), "only ASCII digits")
	assert.False(t, isNumeric("０１"), "only ASCII digits")

	assert.True(t, isAlpha("lilly"))
	assert.True(t, isAlpha("Fenêtre"))
	assert.False(t, isAlpha(""))
	assert.False(t, isAlpha("lilly01"))
}
