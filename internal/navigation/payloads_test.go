package navigation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anortham/coa-codenav-mcp-sub005/internal/budget"
)

func TestReferencesPayload_ReduceTo(t *testing.T) {
	est := budget.NewTokenEstimator()

	refs := make([]Reference, 40)
	for i := range refs {
		kind := "read"
		if i < 2 {
			kind = "declaration"
		}
		refs[i] = Reference{
			FilePath: fmt.Sprintf("src/file%02d.cs", i),
			Line:     10 + i,
			Kind:     kind,
			Snippet:  "var svc = new UserService();",
		}
	}

	p := NewReferencesPayload(est, "UserService", refs, nil)
	require.Equal(t, 40, p.Len())
	full := est.Estimate(p)

	reduced, kept, truncated, err := p.ReduceTo(full / 4)
	require.NoError(t, err)
	assert.True(t, truncated)

	rp := reduced.(*ReferencesPayload)
	assert.Equal(t, kept, rp.Shown)
	assert.Equal(t, 40, rp.Total, "total reports the pre-reduction count")
	assert.Less(t, kept, 40)
	assert.Greater(t, kept, 0)

	// Declarations outrank reads, so both survive the cut.
	declarations := 0
	for _, r := range rp.References {
		if r.Kind == "declaration" {
			declarations++
		}
	}
	assert.Equal(t, 2, declarations)

	assert.Less(t, est.Estimate(rp), full/2)
	assert.Len(t, p.References, 40, "input payload must not be mutated")
}

func TestReferencesPayload_EscapeHatchShrinksSnippet(t *testing.T) {
	est := budget.NewTokenEstimator()

	refs := []Reference{{
		FilePath:         "src/a.cs",
		Line:             1,
		Kind:             "declaration",
		ContainingSymbol: "UserService",
		Snippet:          "public class UserService : IUserService, IDisposable { /* ... */ }",
	}}

	p := NewReferencesPayload(est, "UserService", refs, nil)
	reduced, kept, truncated, err := p.ReduceTo(5)
	require.NoError(t, err)

	require.Equal(t, 1, kept, "a non-empty result never reduces to zero items")
	assert.True(t, truncated, "a shrunk 1-of-1 result still reports reduction")
	rp := reduced.(*ReferencesPayload)
	assert.Empty(t, rp.References[0].Snippet)
	assert.Empty(t, rp.References[0].ContainingSymbol)
	assert.Equal(t, "src/a.cs", rp.References[0].FilePath)
}

func TestDiagnosticsPayload_ErrorsSurvive(t *testing.T) {
	est := budget.NewTokenEstimator()

	diags := make([]Diagnostic, 30)
	for i := range diags {
		severity := "warning"
		if i >= 27 {
			severity = "error"
		}
		diags[i] = Diagnostic{
			ID:       fmt.Sprintf("CS%04d", i),
			Severity: severity,
			Message:  "something looks wrong here",
			FilePath: fmt.Sprintf("src/file%02d.cs", i),
			Line:     i,
		}
	}

	p := NewDiagnosticsPayload(est, "workspace", diags, nil)
	full := est.Estimate(p)

	reduced, kept, truncated, err := p.ReduceTo(full / 4)
	require.NoError(t, err)
	require.Less(t, kept, 30)
	assert.True(t, truncated)

	dp := reduced.(*DiagnosticsPayload)
	for i, d := range dp.Diagnostics[:3] {
		assert.Equal(t, "error", d.Severity, "position %d", i)
	}
}

func TestCallTreePayload_ReduceTo(t *testing.T) {
	est := budget.NewTokenEstimator()

	root := &CallNode{Symbol: "Dispatch", FilePath: "src/d.cs", Line: 1, Visibility: "public"}
	for i := 0; i < 15; i++ {
		root.Incoming = append(root.Incoming, &CallNode{
			Symbol:   fmt.Sprintf("Caller%02d", i),
			FilePath: "src/c.cs",
			Line:     i,
			Snippet:  "Dispatch(request);",
		})
		root.Outgoing = append(root.Outgoing, &CallNode{
			Symbol:   fmt.Sprintf("Callee%02d", i),
			FilePath: "src/e.cs",
			Line:     i,
		})
	}

	p := NewCallTreePayload(est, "Dispatch", root, nil, 3, false)
	require.Equal(t, 31, p.Len())

	reduced, kept, truncated, err := p.ReduceTo(est.Estimate(p) / 3)
	require.NoError(t, err)
	assert.True(t, truncated)

	cp := reduced.(*CallTreePayload)
	assert.Equal(t, "Dispatch", cp.Root.Symbol, "root is never dropped")
	assert.LessOrEqual(t, len(cp.Root.Incoming), 3)
	assert.LessOrEqual(t, len(cp.Root.Outgoing), 3)
	assert.Equal(t, kept, cp.Shown)
	assert.Equal(t, 31, cp.Total)
	assert.Len(t, root.Incoming, 15, "input tree must not be mutated")
}

func TestCallTreePayload_TinyBudgetYieldsRootStub(t *testing.T) {
	est := budget.NewTokenEstimator()

	root := &CallNode{
		Symbol:   "Dispatch",
		FilePath: "src/d.cs",
		Line:     1,
		Snippet:  "public void Dispatch(Request request) { /* routing table */ }",
		Incoming: []*CallNode{{Symbol: "A", FilePath: "src/a.cs"}},
	}

	p := NewCallTreePayload(est, "Dispatch", root, nil, 3, false)
	reduced, kept, truncated, err := p.ReduceTo(3)
	require.NoError(t, err)

	cp := reduced.(*CallTreePayload)
	assert.Equal(t, 1, kept)
	assert.True(t, truncated, "a stubbed root still reports reduction")
	assert.Equal(t, "Dispatch", cp.Root.Symbol)
	assert.Empty(t, cp.Root.Snippet)
	assert.Empty(t, cp.Root.Incoming)
}

func TestCallTreePayload_ParallelDeterministic(t *testing.T) {
	est := budget.NewTokenEstimator()

	build := func() *CallNode {
		root := &CallNode{Symbol: "Root", FilePath: "src/r.cs"}
		for i := 0; i < 8; i++ {
			child := &CallNode{Symbol: fmt.Sprintf("C%02d", i), FilePath: "src/c.cs", Line: i}
			for j := 0; j < 3; j++ {
				child.Incoming = append(child.Incoming, &CallNode{
					Symbol: fmt.Sprintf("C%02d-G%d", i, j), FilePath: "src/g.cs", Line: j,
				})
			}
			root.Incoming = append(root.Incoming, child)
		}
		return root
	}

	seq, _, _, err := NewCallTreePayload(est, "Root", build(), nil, 3, false).ReduceTo(200)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		par, _, _, err := NewCallTreePayload(est, "Root", build(), nil, 3, true).ReduceTo(200)
		require.NoError(t, err)
		assert.Equal(t, seq.(*CallTreePayload).Root, par.(*CallTreePayload).Root)
	}
}

func TestOutlinePayload_PublicContainersSurvive(t *testing.T) {
	est := budget.NewTokenEstimator()

	root := &OutlineNode{Name: "OrderProcessor", Kind: "class", Visibility: "public", Line: 1}
	for i := 0; i < 12; i++ {
		visibility := "private"
		if i < 3 {
			visibility = "public"
		}
		root.Children = append(root.Children, &OutlineNode{
			Name:       fmt.Sprintf("Member%02d", i),
			Kind:       "method",
			Visibility: visibility,
			Line:       10 + i,
			Signature:  "void Member()",
		})
	}

	p := NewOutlinePayload(est, "OrderProcessor", root, 3, false)
	require.Equal(t, 13, p.Len())

	reduced, kept, truncated, err := p.ReduceTo(est.Estimate(p) / 2)
	require.NoError(t, err)
	assert.True(t, truncated)

	op := reduced.(*OutlinePayload)
	assert.Equal(t, "OrderProcessor", op.Root.Name)
	require.LessOrEqual(t, len(op.Root.Children), 3)
	for _, child := range op.Root.Children {
		assert.Equal(t, "public", child.Visibility, "public members outlive private ones")
	}
	assert.Equal(t, kept, op.Shown)
}

func TestRenamePayload_BusiestFilesSurvive(t *testing.T) {
	est := budget.NewTokenEstimator()

	result := &RenameResult{Symbol: "Old", NewName: "New"}
	for i := 0; i < 25; i++ {
		result.ChangedFiles = append(result.ChangedFiles, FileChange{
			FilePath: fmt.Sprintf("src/file%02d.cs", i),
			Edits:    i + 1,
		})
	}

	p := NewRenamePayload(est, result)
	reduced, kept, truncated, err := p.ReduceTo(40)
	require.NoError(t, err)
	require.Less(t, kept, 25)
	assert.True(t, truncated)
	require.Greater(t, kept, 0)

	rp := reduced.(*RenamePayload)
	assert.Equal(t, 25, rp.Result.ChangedFiles[0].Edits, "most-edited file first")
	assert.Len(t, result.ChangedFiles, 25, "input must not be mutated")
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", truncateText("short", 80))
	assert.Equal(t, "abcdefg", truncateText("abcdefg", 3))

	got := truncateText("a very long diagnostic message that keeps going", 20)
	assert.Len(t, got, 20)
	assert.Equal(t, "...", got[17:])
}
