package budget

import (
	"encoding/json"
	"fmt"
	"math"
)

// Default estimator tuning.
const (
	// DefaultCharsPerToken approximates English/JSON text at 4 characters
	// per token. Only monotonicity and cross-call consistency matter here;
	// this is not an exact tokenizer.
	DefaultCharsPerToken = 4.0

	// DefaultJSONOverheadFactor accounts for JSON structure (quotes, keys,
	// braces) when falling back to serialized-length estimation.
	DefaultJSONOverheadFactor = 1.2

	// DefaultElementOverhead is charged once per field or sequence element
	// to cover separators and key names.
	DefaultElementOverhead = 2

	// DefaultMaxDepth caps structural recursion. Beyond the cap each node
	// is charged DefaultDeepNodeTokens instead of being walked, which
	// bounds work and stack depth on degenerate inputs.
	DefaultMaxDepth = 8

	// DefaultDeepNodeTokens is the flat estimate for a node past MaxDepth.
	DefaultDeepNodeTokens = 12

	// ScalarTokens is the cost of a number or boolean.
	ScalarTokens = 1
)

// Costed is implemented by values that report their own structural token
// cost. Implementations must be pure and deterministic: the same value
// always yields the same estimate.
type Costed interface {
	TokenCost(c *Costing) int
}

// TokenEstimator approximates the serialized size of structured values in
// tokens. Estimates are deterministic and non-negative; they are suitable
// for budget decisions, not billing.
type TokenEstimator struct {
	charsPerToken   float64
	jsonOverhead    float64
	elementOverhead int
	maxDepth        int
	deepNodeTokens  int
}

// NewTokenEstimator creates an estimator with default tuning.
func NewTokenEstimator() *TokenEstimator {
	return &TokenEstimator{
		charsPerToken:   DefaultCharsPerToken,
		jsonOverhead:    DefaultJSONOverheadFactor,
		elementOverhead: DefaultElementOverhead,
		maxDepth:        DefaultMaxDepth,
		deepNodeTokens:  DefaultDeepNodeTokens,
	}
}

// NewTokenEstimatorWithOptions creates an estimator with explicit tuning.
// Zero or negative values fall back to the defaults.
func NewTokenEstimatorWithOptions(charsPerToken float64, elementOverhead, maxDepth, deepNodeTokens int) *TokenEstimator {
	e := NewTokenEstimator()
	if charsPerToken > 0 {
		e.charsPerToken = charsPerToken
	}
	if elementOverhead > 0 {
		e.elementOverhead = elementOverhead
	}
	if maxDepth > 0 {
		e.maxDepth = maxDepth
	}
	if deepNodeTokens > 0 {
		e.deepNodeTokens = deepNodeTokens
	}
	return e
}

// Estimate returns the token cost of v. Nil costs 0. Values implementing
// Costed are measured structurally; generic JSON shapes (string, numbers,
// []string, []any, map[string]any) are walked with the depth cap; anything
// else falls back to serialized-length estimation.
func (e *TokenEstimator) Estimate(v any) int {
	return e.estimate(v, 0)
}

// Costing carries the recursion state for one structural estimate. It is
// handed to Costed implementations so nested values share the depth cap.
type Costing struct {
	est   *TokenEstimator
	depth int
}

func (e *TokenEstimator) estimate(v any, depth int) int {
	if v == nil {
		return 0
	}
	switch x := v.(type) {
	case Costed:
		return x.TokenCost(&Costing{est: e, depth: depth})
	case string:
		return e.textTokens(x)
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return ScalarTokens
	case []string:
		total := e.elementOverhead * len(x)
		for _, s := range x {
			total += e.textTokens(s)
		}
		return total
	case []any:
		if depth >= e.maxDepth {
			return e.deepNodeTokens * len(x)
		}
		total := e.elementOverhead * len(x)
		for _, el := range x {
			total += e.estimate(el, depth+1)
		}
		return total
	case map[string]any:
		if depth >= e.maxDepth {
			return e.deepNodeTokens
		}
		total := e.elementOverhead * len(x)
		for k, el := range x {
			total += e.textTokens(k)
			total += e.estimate(el, depth+1)
		}
		return total
	default:
		return e.serializedTokens(v)
	}
}

// serializedTokens estimates via JSON length. This is the fallback for
// values with no structural cost function; it stays deterministic because
// json.Marshal output is stable for a given value.
func (e *TokenEstimator) serializedTokens(v any) int {
	data, err := json.Marshal(v)
	if err != nil {
		return e.textTokens(fmt.Sprint(v))
	}
	return int(float64(len(data)) / e.charsPerToken * e.jsonOverhead)
}

func (e *TokenEstimator) textTokens(s string) int {
	if s == "" {
		return 0
	}
	return int(math.Ceil(float64(len(s)) / e.charsPerToken))
}

// Text returns the cost of a string field.
func (c *Costing) Text(s string) int {
	return c.est.textTokens(s)
}

// Scalar returns the cost of a numeric or boolean field.
func (c *Costing) Scalar() int {
	return ScalarTokens
}

// Overhead charges the per-field/per-element structural overhead n times.
func (c *Costing) Overhead(n int) int {
	if n < 0 {
		return 0
	}
	return c.est.elementOverhead * n
}

// Child returns the cost of a nested Costed value, incrementing depth.
// Past the estimator's depth cap the child is charged a flat per-node
// constant instead of being walked.
func (c *Costing) Child(v Costed) int {
	if v == nil {
		return 0
	}
	if c.depth+1 >= c.est.maxDepth {
		return c.est.deepNodeTokens
	}
	return v.TokenCost(&Costing{est: c.est, depth: c.depth + 1})
}

// Value returns the cost of an arbitrary nested value, incrementing depth.
func (c *Costing) Value(v any) int {
	if c.depth+1 >= c.est.maxDepth {
		if v == nil {
			return 0
		}
		return c.est.deepNodeTokens
	}
	return c.est.estimate(v, c.depth+1)
}

// SliceCost sums the cost of a slice of Costed values plus per-element
// overhead, sharing the Costing's depth state.
func SliceCost[T Costed](c *Costing, items []T) int {
	total := c.Overhead(len(items))
	for _, it := range items {
		total += c.Child(it)
	}
	return total
}
