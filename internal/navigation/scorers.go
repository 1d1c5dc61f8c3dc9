package navigation

import (
	"fmt"
	"strings"

	"github.com/anortham/coa-codenav-mcp-sub005/internal/budget"
)

// Per-domain priority scorers. Each is pure and, combined with its
// declared tie-break key, yields a strict total order over its items.

// Reference kind weights: declarations anchor the result, writes matter
// more than reads when deciding what survives truncation.
const (
	refDeclarationWeight = 400
	refWriteWeight       = 300
	refInvocationWeight  = 250
	refReadWeight        = 200
)

// referenceKindWeight maps a reference kind to its base score.
func referenceKindWeight(kind string) int {
	switch strings.ToLower(kind) {
	case "declaration", "definition":
		return refDeclarationWeight
	case "write":
		return refWriteWeight
	case "invocation", "call":
		return refInvocationWeight
	default:
		return refReadWeight
	}
}

// ReferenceScorer ranks references for a query symbol: kind, visibility,
// containing-symbol affinity to the query, and a penalty for generated
// files.
func ReferenceScorer(query string, generatedGlobs []string) func(Reference) int {
	return func(r Reference) int {
		score := referenceKindWeight(r.Kind)
		score += budget.VisibilityWeight(r.Visibility)
		score += budget.NameSimilarity(query, r.ContainingSymbol)
		score += budget.TermOverlap(query, r.ContainingSymbol)
		score += budget.PathPenalty(r.FilePath, generatedGlobs)
		return score
	}
}

// Diagnostic severity weights: errors always outlive style hints.
const (
	diagErrorWeight   = 400
	diagWarningWeight = 300
	diagInfoWeight    = 200
	diagHiddenWeight  = 100
)

// DiagnosticScorer ranks diagnostics by severity with a generated-file
// penalty; noise in generated code is rarely actionable.
func DiagnosticScorer(generatedGlobs []string) func(Diagnostic) int {
	return func(d Diagnostic) int {
		var score int
		switch strings.ToLower(d.Severity) {
		case "error":
			score = diagErrorWeight
		case "warning":
			score = diagWarningWeight
		case "info", "information":
			score = diagInfoWeight
		default:
			score = diagHiddenWeight
		}
		score += budget.PathPenalty(d.FilePath, generatedGlobs)
		return score
	}
}

// CallNodeScorer ranks call-tree nodes by structural richness (fan-in and
// fan-out), visibility, kind, query affinity and generated-file penalty.
func CallNodeScorer(query string, generatedGlobs []string) func(*CallNode) int {
	return func(n *CallNode) int {
		score := budget.StructureWeight(len(n.Incoming), len(n.Outgoing), 0)
		score += budget.VisibilityWeight(n.Visibility)
		score += budget.KindWeight(n.Kind)
		score += budget.NameSimilarity(query, n.Symbol)
		score += budget.TermOverlap(query, n.Symbol)
		score += budget.PathPenalty(n.FilePath, generatedGlobs)
		return score
	}
}

// CallNodeTieBreak is the declared deterministic key for call nodes.
func CallNodeTieBreak(n *CallNode) string {
	return fmt.Sprintf("%s:%s:%06d", n.Symbol, n.FilePath, n.Line)
}

// OutlineScorer ranks outline nodes: containers before leaves, public
// before private, richer subtrees first.
func OutlineScorer() func(*OutlineNode) int {
	return func(n *OutlineNode) int {
		score := budget.KindWeight(n.Kind)
		score += budget.VisibilityWeight(n.Visibility)
		score += budget.StructureWeight(0, 0, len(n.Children))
		return score
	}
}

// OutlineTieBreak is the declared deterministic key for outline nodes.
func OutlineTieBreak(n *OutlineNode) string {
	return fmt.Sprintf("%s:%06d", n.Name, n.Line)
}
