package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"specindex/internal/steps"
)

func TestClassifyExactEmptyComment(t *testing.T) {
	step := &steps.Step{Text: "Let x be 1."}
	assert.Equal(t, Exact, Classify("", step, DefaultThreshold).Kind)
}

func TestClassifyMismatchEmptySpecStep(t *testing.T) {
	step := &steps.Step{Text: ""}
	assert.Equal(t, Mismatch, Classify("do something", step, DefaultThreshold).Kind)
}

func TestClassifyExactAfterNormalization(t *testing.T) {
	step := &steps.Step{Text: "Let x be 1."}
	assert.Equal(t, Exact, Classify("let   x be 1", step, DefaultThreshold).Kind)
}

func TestClassifyFuzzySubstring(t *testing.T) {
	step := &steps.Step{Text: "Let x be the result of adding 1 and 2."}
	assert.Equal(t, Fuzzy, Classify("let x be the result of adding", step, DefaultThreshold).Kind)
}

func TestClassifyFuzzySimilar(t *testing.T) {
	step := &steps.Step{Text: "Return the value of computing the sum."}
	assert.Equal(t, Fuzzy, Classify("return value of computed sum", step, DefaultThreshold).Kind)
}

func TestClassifyMismatchUnrelated(t *testing.T) {
	step := &steps.Step{Text: "Let x be 1."}
	assert.Equal(t, Mismatch, Classify("initialize the network socket handler", step, DefaultThreshold).Kind)
}

func TestClassifyNotFound(t *testing.T) {
	assert.Equal(t, NotFound, Classify("anything", nil, DefaultThreshold).Kind)
}

func TestNormalizeStripsMarkdownAndPunctuation(t *testing.T) {
	assert.Equal(t, "let x be 1", Normalize("Let [`x`](https://example.org/#x) be **1**."))
}
