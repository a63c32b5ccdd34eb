package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNestedSteps(t *testing.T) {
	md := "1. Let x be 1.\n\n    1. Let y be 2.\n    2. Return y.\n2. Return x."
	tree := Parse(md)
	require.Len(t, tree, 2, "expected 2 top-level steps")
	assert.Equal(t, "Let x be 1.", tree[0].Text)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, []int{1, 2}, tree[0].Children[1].Number)
}

func TestParseStripsInlineMarkdown(t *testing.T) {
	md := "1. Let [`x`](https://example.org/#x) be **1**."
	tree := Parse(md)
	assert.Equal(t, "Let x be 1.", tree[0].Text)
}

func TestParseContinuationLine(t *testing.T) {
	md := "1. Let x be 1,\n   continued here.\n2. Return x."
	tree := Parse(md)
	assert.Equal(t, "Let x be 1, continued here.", tree[0].Text)
}

func TestFindStepAndFlatten(t *testing.T) {
	md := "1. Top.\n\n    1. Nested.\n2. Second."
	tree := Parse(md)
	n := FindStep(tree, []int{1, 1})
	require.NotNil(t, n)
	assert.Equal(t, "Nested.", n.Text)

	flat := Flatten(tree)
	assert.Len(t, flat, 3, "expected 3 flattened steps")
}
