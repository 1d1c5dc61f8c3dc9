package budget

import (
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxFanout caps siblings kept per grouping when reducing a tree.
// Rationale: three children per side keeps call/type trees legible while
// bounding growth at every level.
const DefaultMaxFanout = 3

// Group is one conceptual child grouping of a hierarchical node, such as
// "incoming" and "outgoing" callers. Groupings receive independent budget
// shares.
type Group[N any] struct {
	Name     string
	Children []N
}

// GroupInfo describes a grouping to a SplitPolicy without exposing the
// node type.
type GroupInfo struct {
	Name          string
	Count         int
	TotalPriority int
}

// SplitPolicy divides a node's remaining budget across its child
// groupings. It must return one non-negative share per grouping; shares
// need not sum to the input.
type SplitPolicy func(remaining int, groups []GroupInfo) []int

// EvenSplit divides the budget equally across groupings regardless of
// size. This is a deliberate, named simplification: every grouping gets
// an equal chance to be represented, and the default behavior stays
// predictable.
func EvenSplit(remaining int, groups []GroupInfo) []int {
	shares := make([]int, len(groups))
	if len(groups) == 0 || remaining <= 0 {
		return shares
	}
	per := remaining / len(groups)
	for i := range shares {
		shares[i] = per
	}
	return shares
}

// CountWeightedSplit divides the budget proportionally to each grouping's
// item count. Provided as a swappable alternative to EvenSplit; not the
// default.
func CountWeightedSplit(remaining int, groups []GroupInfo) []int {
	shares := make([]int, len(groups))
	if len(groups) == 0 || remaining <= 0 {
		return shares
	}
	total := 0
	for _, g := range groups {
		total += g.Count
	}
	if total == 0 {
		return EvenSplit(remaining, groups)
	}
	for i, g := range groups {
		shares[i] = remaining * g.Count / total
	}
	return shares
}

// TreeRequest describes one hierarchical reduction.
type TreeRequest[N any] struct {
	Root   N
	Budget int

	// MaxFanout caps children kept per grouping; 0 means DefaultMaxFanout.
	MaxFanout int

	// ShallowCost returns the payload-only cost of a node, excluding
	// children. Results below 1 are treated as 1 so every level consumes
	// budget and recursion terminates.
	ShallowCost func(N) int

	// Groups returns the node's child groupings in declaration order.
	Groups func(N) []Group[N]

	// Rebuild returns a copy of n carrying the reduced groupings. The
	// original node must not be mutated.
	Rebuild func(n N, groups []Group[N]) N

	// Stub returns the minimal identity-only form of a node (no children,
	// large optional fields dropped). Used when a node's own payload
	// cannot fit its budget: the node is shrunk, never dropped.
	Stub func(N) N

	Priority func(N) int
	TieBreak func(N) string

	// Split divides a node budget across groupings; nil means EvenSplit.
	Split SplitPolicy

	// Parallel reduces sibling subtrees concurrently. Results are
	// recombined in deterministic priority order, never completion order.
	Parallel bool
}

// ReduceTree recursively shrinks a hierarchical result to fit the budget.
// The root is never dropped: when even its shallow payload exceeds the
// budget a stub is returned. Fan-out capping plus strictly decreasing
// per-level budgets bound the recursion by the tree's own depth.
// The returned flag reports whether anything was stubbed or discarded;
// stubbing a single-node tree is still a reduction even though the node
// count does not change.
func ReduceTree[N any](req TreeRequest[N]) (N, bool, error) {
	if req.MaxFanout <= 0 {
		req.MaxFanout = DefaultMaxFanout
	}
	if req.Split == nil {
		req.Split = EvenSplit
	}
	return reduceNode(&req, req.Root, req.Budget)
}

func reduceNode[N any](req *TreeRequest[N], node N, nodeBudget int) (N, bool, error) {
	var zero N

	shallow := req.ShallowCost(node)
	if shallow < 0 {
		return zero, false, fmt.Errorf("shallow cost: %w", ErrNegativeCost)
	}
	if shallow < 1 {
		shallow = 1
	}
	if shallow > nodeBudget {
		return req.Stub(node), true, nil
	}

	groups := req.Groups(node)
	kept := make([]Group[N], 0, len(groups))
	infos := make([]GroupInfo, 0, len(groups))
	nonEmpty := make([]Group[N], 0, len(groups))
	for _, g := range groups {
		if len(g.Children) == 0 {
			continue
		}
		info := GroupInfo{Name: g.Name, Count: len(g.Children)}
		for _, child := range g.Children {
			info.TotalPriority += req.Priority(child)
		}
		infos = append(infos, info)
		nonEmpty = append(nonEmpty, g)
	}

	remaining := nodeBudget - shallow
	shares := req.Split(remaining, infos)

	truncated := false
	for i, g := range nonEmpty {
		share := shares[i]
		if share <= 0 {
			// A grouping that cannot be funded is dropped whole rather
			// than emitting corrupted partial children.
			truncated = true
			continue
		}

		children := rankChildren(req, g.Children)
		if len(children) > req.MaxFanout {
			children = children[:req.MaxFanout]
			truncated = true
		}

		perChild := share / len(children)
		if perChild <= 0 {
			truncated = true
			continue
		}

		reduced, childTruncated, err := reduceChildren(req, children, perChild)
		if err != nil {
			return zero, false, err
		}
		truncated = truncated || childTruncated
		kept = append(kept, Group[N]{Name: g.Name, Children: reduced})
	}

	return req.Rebuild(node, kept), truncated, nil
}

// rankChildren orders children by (priority desc, tie-break asc) without
// mutating the input slice.
func rankChildren[N any](req *TreeRequest[N], children []N) []N {
	type ranked struct {
		node     N
		priority int
		key      string
	}
	rows := make([]ranked, len(children))
	for i, c := range children {
		rows[i] = ranked{node: c, priority: req.Priority(c), key: req.TieBreak(c)}
	}
	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].priority != rows[b].priority {
			return rows[a].priority > rows[b].priority
		}
		return rows[a].key < rows[b].key
	})
	out := make([]N, len(rows))
	for i, r := range rows {
		out[i] = r.node
	}
	return out
}

// reduceChildren recurses into each kept child with its budget share.
// Sibling subtrees are mutually independent pure computations; with
// Parallel set they run concurrently and are recombined by index so the
// output order stays deterministic.
func reduceChildren[N any](req *TreeRequest[N], children []N, perChild int) ([]N, bool, error) {
	out := make([]N, len(children))
	flags := make([]bool, len(children))

	if !req.Parallel || len(children) < 2 {
		for i, c := range children {
			reduced, truncated, err := reduceNode(req, c, perChild)
			if err != nil {
				return nil, false, err
			}
			out[i] = reduced
			flags[i] = truncated
		}
		return out, anyFlag(flags), nil
	}

	var g errgroup.Group
	for i, c := range children {
		g.Go(func() error {
			reduced, truncated, err := reduceNode(req, c, perChild)
			if err != nil {
				return err
			}
			out[i] = reduced
			flags[i] = truncated
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}
	return out, anyFlag(flags), nil
}

func anyFlag(flags []bool) bool {
	for _, f := range flags {
		if f {
			return true
		}
	}
	return false
}
