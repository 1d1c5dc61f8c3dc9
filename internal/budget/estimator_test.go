package budget

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type costedItem struct {
	Name    string
	Snippet string
}

func (c costedItem) TokenCost(ct *Costing) int {
	return ct.Overhead(2) + ct.Text(c.Name) + ct.Text(c.Snippet)
}

func TestEstimate_Nil(t *testing.T) {
	est := NewTokenEstimator()
	assert.Equal(t, 0, est.Estimate(nil))
}

func TestEstimate_Strings(t *testing.T) {
	est := NewTokenEstimator()

	tests := []struct {
		input    string
		expected int
	}{
		{"", 0},
		{"abc", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 400), 100},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, est.Estimate(tc.input))
		})
	}
}

func TestEstimate_Scalars(t *testing.T) {
	est := NewTokenEstimator()
	assert.Equal(t, ScalarTokens, est.Estimate(42))
	assert.Equal(t, ScalarTokens, est.Estimate(3.14))
	assert.Equal(t, ScalarTokens, est.Estimate(true))
	assert.Equal(t, ScalarTokens, est.Estimate(int64(-7)))
}

func TestEstimate_Costed(t *testing.T) {
	est := NewTokenEstimator()
	item := costedItem{Name: "UserService", Snippet: "public class UserService"}

	// 2 fields overhead + ceil(11/4) + ceil(24/4)
	expected := 2*DefaultElementOverhead + 3 + 6
	assert.Equal(t, expected, est.Estimate(item))
}

func TestEstimate_Deterministic(t *testing.T) {
	est := NewTokenEstimator()
	value := map[string]any{
		"symbol": "OrderProcessor",
		"count":  12,
		"files":  []string{"a.cs", "b.cs"},
	}

	first := est.Estimate(value)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, est.Estimate(value), "estimate must not vary across calls")
	}
}

func TestEstimate_MonotonicInSize(t *testing.T) {
	est := NewTokenEstimator()

	small := []string{"one", "two"}
	large := []string{"one", "two", "three", "four", "five"}
	assert.Less(t, est.Estimate(small), est.Estimate(large))

	assert.Less(t, est.Estimate("short"), est.Estimate("a considerably longer piece of text"))
}

func TestEstimate_DepthCap(t *testing.T) {
	est := NewTokenEstimatorWithOptions(0, 0, 2, 0)

	// Build nesting deeper than the cap. Past the cap each node costs the
	// flat deep-node constant, so the estimate stays bounded.
	deep := map[string]any{"k": strings.Repeat("v", 4000)}
	for i := 0; i < 50; i++ {
		deep = map[string]any{"k": deep}
	}

	got := est.Estimate(deep)
	assert.Greater(t, got, 0)
	assert.Less(t, got, 100, "deep nesting must be charged flat, not walked")
}

func TestEstimate_SerializedFallback(t *testing.T) {
	est := NewTokenEstimator()

	type plain struct {
		Symbol string `json:"symbol"`
		Line   int    `json:"line"`
	}

	got := est.Estimate(plain{Symbol: "Handle", Line: 10})
	assert.Greater(t, got, 0)
	assert.Equal(t, got, est.Estimate(plain{Symbol: "Handle", Line: 10}))
}

func TestSliceCost(t *testing.T) {
	est := NewTokenEstimator()
	items := []costedItem{
		{Name: "A", Snippet: "aaaa"},
		{Name: "B", Snippet: "bbbb"},
	}

	c := &Costing{est: est}
	perItem := est.Estimate(items[0])
	assert.Equal(t, 2*DefaultElementOverhead+2*perItem, SliceCost(c, items))
}
