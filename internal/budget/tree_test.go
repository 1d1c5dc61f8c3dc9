package budget

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callSite struct {
	name     string
	priority int
	cost     int
	snippet  string
	incoming []*callSite
	outgoing []*callSite
}

func (c *callSite) clone() *callSite {
	dup := *c
	return &dup
}

func callRequest(root *callSite, budget int) TreeRequest[*callSite] {
	return TreeRequest[*callSite]{
		Root:        root,
		Budget:      budget,
		ShallowCost: func(n *callSite) int { return n.cost },
		Groups: func(n *callSite) []Group[*callSite] {
			return []Group[*callSite]{
				{Name: "incoming", Children: n.incoming},
				{Name: "outgoing", Children: n.outgoing},
			}
		},
		Rebuild: func(n *callSite, groups []Group[*callSite]) *callSite {
			dup := n.clone()
			dup.incoming = nil
			dup.outgoing = nil
			for _, g := range groups {
				switch g.Name {
				case "incoming":
					dup.incoming = g.Children
				case "outgoing":
					dup.outgoing = g.Children
				}
			}
			return dup
		},
		Stub: func(n *callSite) *callSite {
			dup := n.clone()
			dup.snippet = ""
			dup.incoming = nil
			dup.outgoing = nil
			return dup
		},
		Priority: func(n *callSite) int { return n.priority },
		TieBreak: func(n *callSite) string { return n.name },
	}
}

func fanNodes(prefix string, n int) []*callSite {
	nodes := make([]*callSite, n)
	for i := range nodes {
		nodes[i] = &callSite{
			name:     fmt.Sprintf("%s%03d", prefix, i),
			priority: 100 + i,
			cost:     10,
			snippet:  "call site",
		}
	}
	return nodes
}

func names(nodes []*callSite) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.name
	}
	return out
}

func TestReduceTree_RootStubbedNeverDropped(t *testing.T) {
	root := &callSite{
		name:     "Main",
		cost:     500,
		snippet:  "a very large snippet",
		incoming: fanNodes("in", 5),
	}

	got, truncated, err := ReduceTree(callRequest(root, 20))
	require.NoError(t, err)

	require.NotNil(t, got, "root must survive as a stub")
	assert.True(t, truncated, "stubbing is a reduction")
	assert.Equal(t, "Main", got.name)
	assert.Empty(t, got.snippet)
	assert.Empty(t, got.incoming)
	assert.Empty(t, got.outgoing)
}

func TestReduceTree_FanoutCapped(t *testing.T) {
	root := &callSite{
		name:     "Dispatch",
		cost:     10,
		incoming: fanNodes("in", 20),
		outgoing: fanNodes("out", 20),
	}

	got, truncated, err := ReduceTree(callRequest(root, 400))
	require.NoError(t, err)

	assert.True(t, truncated)
	assert.LessOrEqual(t, len(got.incoming), DefaultMaxFanout)
	assert.LessOrEqual(t, len(got.outgoing), DefaultMaxFanout)

	// Highest-priority children survive, ranked descending.
	assert.Equal(t, []string{"in019", "in018", "in017"}, names(got.incoming))
	assert.Equal(t, []string{"out019", "out018", "out017"}, names(got.outgoing))
}

func TestReduceTree_CustomFanout(t *testing.T) {
	root := &callSite{
		name:     "Dispatch",
		cost:     10,
		incoming: fanNodes("in", 20),
	}

	req := callRequest(root, 400)
	req.MaxFanout = 5

	got, _, err := ReduceTree(req)
	require.NoError(t, err)
	assert.Len(t, got.incoming, 5)
}

func TestReduceTree_SmallTreeUntouched(t *testing.T) {
	child := &callSite{name: "Helper", cost: 10, priority: 50, snippet: "helper body"}
	root := &callSite{name: "Main", cost: 10, outgoing: []*callSite{child}}

	got, truncated, err := ReduceTree(callRequest(root, 10000))
	require.NoError(t, err)

	assert.False(t, truncated)
	require.Len(t, got.outgoing, 1)
	assert.Equal(t, "Helper", got.outgoing[0].name)
	assert.Equal(t, "helper body", got.outgoing[0].snippet)
}

func TestReduceTree_DeepChildrenStubbed(t *testing.T) {
	// Grandchildren get a fraction of the child's share; with a tight
	// budget they come back stubbed rather than dropped.
	grand := fanNodes("g", 2)
	child := &callSite{name: "Child", cost: 10, priority: 100, snippet: "child", incoming: grand}
	root := &callSite{name: "Root", cost: 10, incoming: []*callSite{child}}

	got, truncated, err := ReduceTree(callRequest(root, 26))
	require.NoError(t, err)

	assert.True(t, truncated)
	require.Len(t, got.incoming, 1)
	kept := got.incoming[0]
	assert.Equal(t, "Child", kept.name)
	for _, g := range kept.incoming {
		assert.Empty(t, g.snippet, "underfunded grandchildren are stubs")
		assert.Empty(t, g.incoming)
	}
}

func TestReduceTree_UnfundedGroupDroppedWhole(t *testing.T) {
	root := &callSite{
		name:     "Root",
		cost:     10,
		incoming: fanNodes("in", 3),
		outgoing: fanNodes("out", 3),
	}

	// Budget exactly covers the root: nothing remains for either grouping.
	got, truncated, err := ReduceTree(callRequest(root, 10))
	require.NoError(t, err)

	assert.True(t, truncated, "dropped groupings count as truncation")
	assert.Equal(t, "Root", got.name)
	assert.Empty(t, got.incoming)
	assert.Empty(t, got.outgoing)
}

func TestReduceTree_SingleNodeStubReportsTruncation(t *testing.T) {
	root := &callSite{name: "Main", cost: 80, snippet: "a snippet that cannot fit"}

	got, truncated, err := ReduceTree(callRequest(root, 20))
	require.NoError(t, err)

	// The node count is unchanged, but the payload was degraded; callers
	// must still learn that a reduction happened.
	assert.True(t, truncated)
	assert.Empty(t, got.snippet)
}

func TestReduceTree_OriginalNotMutated(t *testing.T) {
	root := &callSite{
		name:     "Root",
		cost:     10,
		incoming: fanNodes("in", 20),
	}

	_, _, err := ReduceTree(callRequest(root, 100))
	require.NoError(t, err)

	assert.Len(t, root.incoming, 20, "reduction must build a copy")
}

func TestReduceTree_NegativeShallowCost(t *testing.T) {
	req := callRequest(&callSite{name: "Root", cost: -5}, 100)

	_, _, err := ReduceTree(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNegativeCost)
}

func TestReduceTree_ParallelMatchesSequential(t *testing.T) {
	build := func() *callSite {
		root := &callSite{name: "Root", cost: 10}
		for _, in := range fanNodes("in", 10) {
			in.incoming = fanNodes(in.name+"-g", 4)
			root.incoming = append(root.incoming, in)
		}
		root.outgoing = fanNodes("out", 10)
		return root
	}

	seqReq := callRequest(build(), 500)
	seq, seqTruncated, err := ReduceTree(seqReq)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		parReq := callRequest(build(), 500)
		parReq.Parallel = true
		par, parTruncated, err := ReduceTree(parReq)
		require.NoError(t, err)
		assert.Equal(t, seq, par, "parallel reduction must be deterministic")
		assert.Equal(t, seqTruncated, parTruncated)
	}
}

func TestEvenSplit(t *testing.T) {
	groups := []GroupInfo{{Name: "a", Count: 1}, {Name: "b", Count: 99}}

	assert.Equal(t, []int{50, 50}, EvenSplit(100, groups))
	assert.Equal(t, []int{0, 0}, EvenSplit(0, groups))
	assert.Empty(t, EvenSplit(100, nil))
}

func TestCountWeightedSplit(t *testing.T) {
	groups := []GroupInfo{{Name: "a", Count: 1}, {Name: "b", Count: 3}}

	assert.Equal(t, []int{25, 75}, CountWeightedSplit(100, groups))

	// Zero counts degrade to an even split.
	empty := []GroupInfo{{Name: "a"}, {Name: "b"}}
	assert.Equal(t, []int{50, 50}, CountWeightedSplit(100, empty))
}
