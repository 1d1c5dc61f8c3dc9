package budget

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNegativeCost reports a cost function contract violation. The engine
// cannot guess a usable cost, so the error is surfaced unmodified and the
// reduction is never retried.
var ErrNegativeCost = errors.New("cost function returned a negative value")

// Request describes one flat reduction. Cost, Priority and TieBreak must
// be pure; a panicking function propagates to the caller unrecovered.
type Request[T any] struct {
	// Items is the ordered input sequence.
	Items []T

	// Cost returns the token cost of one item. Negative results are a
	// contract violation.
	Cost func(T) int

	// Budget is the usable token allowance for the selection.
	Budget int

	// Priority ranks items; higher survives longer.
	Priority func(T) int

	// TieBreak yields a deterministic key ordering equal priorities
	// ascending. Selection never depends on input collection order alone.
	TieBreak func(T) string

	// Shrink, when set, produces the reduced representation used by the
	// single-item escape hatch (drop large optional sub-fields). When nil
	// the top item is kept unmodified.
	Shrink func(T) T
}

// Result is the outcome of a flat reduction.
type Result[T any] struct {
	// Selected holds the survivors in descending-priority order.
	Selected []T

	OriginalCount   int
	SelectedCount   int
	EstimatedTokens int

	// Truncated is true when anything was discarded, including the
	// single-item escape hatch (the only documented budget overflow).
	Truncated bool
}

// Reduce greedily selects items under the budget: stable-sort by
// (priority desc, tie-break asc), accumulate until the first item that
// would overflow, stop. If nothing fits from a non-empty input the single
// top-priority item is kept anyway, shrunk when possible. Already-fitting
// input passes through unchanged, so reduction is idempotent. O(n log n).
func Reduce[T any](req Request[T]) (Result[T], error) {
	if len(req.Items) == 0 {
		return Result[T]{Selected: []T{}}, nil
	}

	type ranked struct {
		item     T
		cost     int
		priority int
		key      string
	}

	rows := make([]ranked, len(req.Items))
	for i, it := range req.Items {
		cost := req.Cost(it)
		if cost < 0 {
			return Result[T]{}, fmt.Errorf("item %d: %w", i, ErrNegativeCost)
		}
		rows[i] = ranked{
			item:     it,
			cost:     cost,
			priority: req.Priority(it),
			key:      req.TieBreak(it),
		}
	}

	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].priority != rows[b].priority {
			return rows[a].priority > rows[b].priority
		}
		return rows[a].key < rows[b].key
	})

	selected := make([]T, 0, len(rows))
	running := 0
	for _, row := range rows {
		if running+row.cost > req.Budget {
			break
		}
		selected = append(selected, row.item)
		running += row.cost
	}

	if len(selected) == 0 {
		// Escape hatch: keep the single highest-priority item in a shrunk
		// form rather than return nothing.
		top := rows[0].item
		cost := rows[0].cost
		if req.Shrink != nil {
			top = req.Shrink(top)
			cost = req.Cost(top)
			if cost < 0 {
				return Result[T]{}, fmt.Errorf("shrunk item: %w", ErrNegativeCost)
			}
		}
		return Result[T]{
			Selected:        []T{top},
			OriginalCount:   len(req.Items),
			SelectedCount:   1,
			EstimatedTokens: cost,
			Truncated:       true,
		}, nil
	}

	return Result[T]{
		Selected:        selected,
		OriginalCount:   len(req.Items),
		SelectedCount:   len(selected),
		EstimatedTokens: running,
		Truncated:       len(selected) < len(req.Items),
	}, nil
}
