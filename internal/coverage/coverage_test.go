package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specindex/internal/match"
	"specindex/internal/steps"
)

func flatTree(n int) []*steps.Step {
	tree := make([]*steps.Step, n)
	for i := 0; i < n; i++ {
		tree[i] = &steps.Step{Number: []int{i + 1}, Text: "step"}
	}
	return tree
}

func exactAt(n int) Validation {
	return Validation{Number: []int{n}, Result: match.Result{Kind: match.Exact}}
}

func TestComputeFullCoverageNoReorder(t *testing.T) {
	r := Compute("#anchor", flatTree(3), []Validation{exactAt(1), exactAt(2), exactAt(3)})
	require.Equal(t, 3, r.Total)
	assert.Len(t, r.Implemented, 3)
	assert.Empty(t, r.Missing)
	assert.Zero(t, r.Warnings)
	assert.Zero(t, r.Reordered)
	assert.Equal(t, "#anchor: 3/3 steps", r.Summary())
}

func TestComputeReorderDistance(t *testing.T) {
	// spec steps [1,2,3]; document declares 3, 1, 2 (all Exact).
	r := Compute("#anchor", flatTree(3), []Validation{exactAt(3), exactAt(1), exactAt(2)})
	require.Len(t, r.Implemented, 3)
	assert.Empty(t, r.Missing)
	assert.Zero(t, r.Warnings)
	assert.Equal(t, 1, r.Reordered, "expected reordered=1 (LIS length 2 of [3,1,2])")
	assert.Equal(t, "#anchor: 3/3 steps | 1 reordered", r.Summary())
}

func TestComputeMismatchAndNotFoundWarnings(t *testing.T) {
	validations := []Validation{
		exactAt(1),
		{Number: []int{2}, Result: match.Result{Kind: match.Mismatch, ExpectedText: "Return y."}},
		{Number: []int{9}, Result: match.Result{Kind: match.NotFound}},
	}
	r := Compute("#anchor", flatTree(3), validations)
	assert.Equal(t, 2, r.Warnings)
	// A mismatch still counts as implemented: the comment refers to a real
	// step, it just doesn't restate the step text accurately.
	require.Len(t, r.Implemented, 2)
	require.Len(t, r.Missing, 1)
	assert.Equal(t, 3, r.Missing[0][0])
}

func TestMissingLabels(t *testing.T) {
	r := Compute("#anchor", flatTree(2), nil)
	labels := r.MissingLabels()
	require.Len(t, labels, 2)
	assert.Equal(t, "1", labels[0])
	assert.Equal(t, "2", labels[1])
}
