package navigation

import (
	"github.com/anortham/coa-codenav-mcp-sub005/internal/budget"
	"github.com/anortham/coa-codenav-mcp-sub005/internal/response"
)

// Reducible payload adapters. Each tool supplies only its scorer and this
// data→envelope mapping; the reduction machinery is shared. The unexported
// fields (estimator, scorer) are deliberately excluded from JSON.

// ReferencesPayload is the data section for find-all-references.
type ReferencesPayload struct {
	Symbol     string      `json:"symbol"`
	Shown      int         `json:"shown"`
	Total      int         `json:"total"`
	References []Reference `json:"references"`

	est   *budget.TokenEstimator
	score func(Reference) int
}

// NewReferencesPayload wraps materialized references for reduction.
func NewReferencesPayload(est *budget.TokenEstimator, symbol string, refs []Reference, generatedGlobs []string) *ReferencesPayload {
	return &ReferencesPayload{
		Symbol:     symbol,
		Shown:      len(refs),
		Total:      len(refs),
		References: refs,
		est:        est,
		score:      ReferenceScorer(symbol, generatedGlobs),
	}
}

// TokenCost reports the structural cost of the payload.
func (p *ReferencesPayload) TokenCost(c *budget.Costing) int {
	total := c.Overhead(4) + c.Text(p.Symbol) + c.Scalar()*2
	total += budget.SliceCost(c, p.References)
	return total
}

// Len reports the number of references held.
func (p *ReferencesPayload) Len() int { return len(p.References) }

// ReduceTo shrinks the reference list to fit the budget.
func (p *ReferencesPayload) ReduceTo(tokens int) (response.Reducible, int, bool, error) {
	res, err := budget.Reduce(budget.Request[Reference]{
		Items:    p.References,
		Cost:     func(r Reference) int { return p.est.Estimate(r) },
		Budget:   tokens,
		Priority: p.score,
		TieBreak: Reference.Location,
		Shrink: func(r Reference) Reference {
			r.Snippet = ""
			r.ContainingSymbol = ""
			return r
		},
	})
	if err != nil {
		return nil, 0, false, err
	}
	reduced := *p
	reduced.References = res.Selected
	reduced.Shown = res.SelectedCount
	return &reduced, res.SelectedCount, res.Truncated, nil
}

// DiagnosticsPayload is the data section for get-diagnostics.
type DiagnosticsPayload struct {
	Scope       string       `json:"scope"`
	Shown       int          `json:"shown"`
	Total       int          `json:"total"`
	Diagnostics []Diagnostic `json:"diagnostics"`

	est   *budget.TokenEstimator
	score func(Diagnostic) int
}

// NewDiagnosticsPayload wraps materialized diagnostics for reduction.
func NewDiagnosticsPayload(est *budget.TokenEstimator, scope string, diags []Diagnostic, generatedGlobs []string) *DiagnosticsPayload {
	return &DiagnosticsPayload{
		Scope:       scope,
		Shown:       len(diags),
		Total:       len(diags),
		Diagnostics: diags,
		est:         est,
		score:       DiagnosticScorer(generatedGlobs),
	}
}

// TokenCost reports the structural cost of the payload.
func (p *DiagnosticsPayload) TokenCost(c *budget.Costing) int {
	total := c.Overhead(4) + c.Text(p.Scope) + c.Scalar()*2
	total += budget.SliceCost(c, p.Diagnostics)
	return total
}

// Len reports the number of diagnostics held.
func (p *DiagnosticsPayload) Len() int { return len(p.Diagnostics) }

// ReduceTo shrinks the diagnostic list to fit the budget.
func (p *DiagnosticsPayload) ReduceTo(tokens int) (response.Reducible, int, bool, error) {
	res, err := budget.Reduce(budget.Request[Diagnostic]{
		Items:    p.Diagnostics,
		Cost:     func(d Diagnostic) int { return p.est.Estimate(d) },
		Budget:   tokens,
		Priority: p.score,
		TieBreak: Diagnostic.Location,
		Shrink: func(d Diagnostic) Diagnostic {
			d.Message = truncateText(d.Message, 80)
			d.Category = ""
			return d
		},
	})
	if err != nil {
		return nil, 0, false, err
	}
	reduced := *p
	reduced.Diagnostics = res.Selected
	reduced.Shown = res.SelectedCount
	return &reduced, res.SelectedCount, res.Truncated, nil
}

// CallTreePayload is the data section for trace-call-stack.
type CallTreePayload struct {
	Symbol string    `json:"symbol"`
	Shown  int       `json:"shown"`
	Total  int       `json:"total"`
	Root   *CallNode `json:"root"`

	est       *budget.TokenEstimator
	score     func(*CallNode) int
	maxFanout int
	parallel  bool
}

// NewCallTreePayload wraps a materialized call hierarchy for reduction.
func NewCallTreePayload(est *budget.TokenEstimator, symbol string, root *CallNode, generatedGlobs []string, maxFanout int, parallel bool) *CallTreePayload {
	return &CallTreePayload{
		Symbol:    symbol,
		Shown:     root.CountNodes(),
		Total:     root.CountNodes(),
		Root:      root,
		est:       est,
		score:     CallNodeScorer(symbol, generatedGlobs),
		maxFanout: maxFanout,
		parallel:  parallel,
	}
}

// TokenCost reports the structural cost of the payload.
func (p *CallTreePayload) TokenCost(c *budget.Costing) int {
	return c.Overhead(4) + c.Text(p.Symbol) + c.Scalar()*2 + c.Child(p.Root)
}

// Len reports the total number of nodes in the tree.
func (p *CallTreePayload) Len() int { return p.Root.CountNodes() }

// ReduceTo shrinks the call tree to fit the budget: incoming and outgoing
// callers are independent groupings, fan-out capped per level.
func (p *CallTreePayload) ReduceTo(tokens int) (response.Reducible, int, bool, error) {
	root, truncated, err := budget.ReduceTree(budget.TreeRequest[*CallNode]{
		Root:        p.Root,
		Budget:      tokens,
		MaxFanout:   p.maxFanout,
		ShallowCost: p.shallowEstimate,
		Groups: func(n *CallNode) []budget.Group[*CallNode] {
			return []budget.Group[*CallNode]{
				{Name: GroupIncoming, Children: n.Incoming},
				{Name: GroupOutgoing, Children: n.Outgoing},
			}
		},
		Rebuild: func(n *CallNode, groups []budget.Group[*CallNode]) *CallNode {
			rebuilt := *n
			rebuilt.Incoming = nil
			rebuilt.Outgoing = nil
			for _, g := range groups {
				switch g.Name {
				case GroupIncoming:
					rebuilt.Incoming = g.Children
				case GroupOutgoing:
					rebuilt.Outgoing = g.Children
				}
			}
			return &rebuilt
		},
		Stub: func(n *CallNode) *CallNode {
			return &CallNode{Symbol: n.Symbol, FilePath: n.FilePath, Line: n.Line}
		},
		Priority: p.score,
		TieBreak: CallNodeTieBreak,
		Parallel: p.parallel,
	})
	if err != nil {
		return nil, 0, false, err
	}
	reduced := *p
	reduced.Root = root
	reduced.Shown = root.CountNodes()
	return &reduced, reduced.Shown, truncated, nil
}

// shallowEstimate measures a node's payload without its children.
func (p *CallTreePayload) shallowEstimate(n *CallNode) int {
	flat := *n
	flat.Incoming = nil
	flat.Outgoing = nil
	return p.est.Estimate(&flat)
}

// OutlinePayload is the data section for type-members / document outline.
type OutlinePayload struct {
	Target string       `json:"target"`
	Shown  int          `json:"shown"`
	Total  int          `json:"total"`
	Root   *OutlineNode `json:"root"`

	est       *budget.TokenEstimator
	score     func(*OutlineNode) int
	maxFanout int
	parallel  bool
}

// NewOutlinePayload wraps a materialized outline for reduction.
func NewOutlinePayload(est *budget.TokenEstimator, target string, root *OutlineNode, maxFanout int, parallel bool) *OutlinePayload {
	return &OutlinePayload{
		Target:    target,
		Shown:     root.CountNodes(),
		Total:     root.CountNodes(),
		Root:      root,
		est:       est,
		score:     OutlineScorer(),
		maxFanout: maxFanout,
		parallel:  parallel,
	}
}

// TokenCost reports the structural cost of the payload.
func (p *OutlinePayload) TokenCost(c *budget.Costing) int {
	return c.Overhead(4) + c.Text(p.Target) + c.Scalar()*2 + c.Child(p.Root)
}

// Len reports the total number of outline nodes.
func (p *OutlinePayload) Len() int { return p.Root.CountNodes() }

// ReduceTo shrinks the outline to fit the budget. Member lists form a
// single grouping per node.
func (p *OutlinePayload) ReduceTo(tokens int) (response.Reducible, int, bool, error) {
	root, truncated, err := budget.ReduceTree(budget.TreeRequest[*OutlineNode]{
		Root:      p.Root,
		Budget:    tokens,
		MaxFanout: p.maxFanout,
		ShallowCost: func(n *OutlineNode) int {
			flat := *n
			flat.Children = nil
			return p.est.Estimate(&flat)
		},
		Groups: func(n *OutlineNode) []budget.Group[*OutlineNode] {
			return []budget.Group[*OutlineNode]{{Name: GroupMembers, Children: n.Children}}
		},
		Rebuild: func(n *OutlineNode, groups []budget.Group[*OutlineNode]) *OutlineNode {
			rebuilt := *n
			rebuilt.Children = nil
			for _, g := range groups {
				if g.Name == GroupMembers {
					rebuilt.Children = g.Children
				}
			}
			return &rebuilt
		},
		Stub: func(n *OutlineNode) *OutlineNode {
			return &OutlineNode{Name: n.Name, Kind: n.Kind, Line: n.Line}
		},
		Priority: p.score,
		TieBreak: OutlineTieBreak,
		Parallel: p.parallel,
	})
	if err != nil {
		return nil, 0, false, err
	}
	reduced := *p
	reduced.Root = root
	reduced.Shown = root.CountNodes()
	return &reduced, reduced.Shown, truncated, nil
}

// RenamePayload is the data section for rename-symbol. The changed-file
// list is the only part that can grow without bound.
type RenamePayload struct {
	Result *RenameResult `json:"result"`
	Shown  int           `json:"shown"`
	Total  int           `json:"total"`

	est *budget.TokenEstimator
}

// NewRenamePayload wraps a rename outcome for reduction.
func NewRenamePayload(est *budget.TokenEstimator, result *RenameResult) *RenamePayload {
	return &RenamePayload{
		Result: result,
		Shown:  len(result.ChangedFiles),
		Total:  len(result.ChangedFiles),
		est:    est,
	}
}

// TokenCost reports the structural cost of the payload.
func (p *RenamePayload) TokenCost(c *budget.Costing) int {
	return c.Overhead(3) + c.Scalar()*2 + c.Child(p.Result)
}

// Len reports the number of changed files.
func (p *RenamePayload) Len() int { return len(p.Result.ChangedFiles) }

// ReduceTo shrinks the changed-file list; files with more edits survive.
func (p *RenamePayload) ReduceTo(tokens int) (response.Reducible, int, bool, error) {
	res, err := budget.Reduce(budget.Request[FileChange]{
		Items:    p.Result.ChangedFiles,
		Cost:     func(fc FileChange) int { return p.est.Estimate(fc.FilePath) + budget.ScalarTokens },
		Budget:   tokens,
		Priority: func(fc FileChange) int { return fc.Edits },
		TieBreak: func(fc FileChange) string { return fc.FilePath },
	})
	if err != nil {
		return nil, 0, false, err
	}
	result := *p.Result
	result.ChangedFiles = res.Selected
	reduced := *p
	reduced.Result = &result
	reduced.Shown = res.SelectedCount
	return &reduced, res.SelectedCount, res.Truncated, nil
}

// truncateText hard-caps a string, marking the cut.
func truncateText(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
