// Package navigation holds the materialized result types produced by the
// external language services, their structural cost functions, and the
// per-tool adapters that map them onto the reduction engine. It never
// models code semantics itself; everything here is already-computed data.
package navigation

import (
	"fmt"

	"github.com/anortham/coa-codenav-mcp-sub005/internal/budget"
)

// Reference is one usage location of a symbol.
type Reference struct {
	FilePath         string `json:"filePath"`
	Line             int    `json:"line"`
	Column           int    `json:"column"`
	Kind             string `json:"kind"` // declaration, write, invocation, read
	ContainingSymbol string `json:"containingSymbol,omitempty"`
	Visibility       string `json:"visibility,omitempty"`
	Snippet          string `json:"snippet,omitempty"`
}

// TokenCost reports the structural cost of one reference.
func (r Reference) TokenCost(c *budget.Costing) int {
	total := c.Overhead(7)
	total += c.Text(r.FilePath)
	total += c.Scalar() * 2 // line, column
	total += c.Text(r.Kind)
	total += c.Text(r.ContainingSymbol)
	total += c.Text(r.Visibility)
	total += c.Text(r.Snippet)
	return total
}

// Location is the deterministic tie-break key for a reference.
func (r Reference) Location() string {
	return fmt.Sprintf("%s:%06d:%04d", r.FilePath, r.Line, r.Column)
}

// Diagnostic is one compiler diagnostic.
type Diagnostic struct {
	ID       string `json:"id"`
	Severity string `json:"severity"` // error, warning, info, hidden
	Message  string `json:"message"`
	FilePath string `json:"filePath"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Category string `json:"category,omitempty"`
}

// TokenCost reports the structural cost of one diagnostic.
func (d Diagnostic) TokenCost(c *budget.Costing) int {
	total := c.Overhead(7)
	total += c.Text(d.ID)
	total += c.Text(d.Severity)
	total += c.Text(d.Message)
	total += c.Text(d.FilePath)
	total += c.Scalar() * 2
	total += c.Text(d.Category)
	return total
}

// Location is the deterministic tie-break key for a diagnostic.
func (d Diagnostic) Location() string {
	return fmt.Sprintf("%s:%06d:%04d:%s", d.FilePath, d.Line, d.Column, d.ID)
}

// CallNode is one node of a call hierarchy. Incoming and outgoing callers
// are independent child groupings for budget allocation.
type CallNode struct {
	Symbol     string      `json:"symbol"`
	FilePath   string      `json:"filePath"`
	Line       int         `json:"line"`
	Kind       string      `json:"kind,omitempty"`
	Visibility string      `json:"visibility,omitempty"`
	Snippet    string      `json:"snippet,omitempty"`
	Incoming   []*CallNode `json:"incoming,omitempty"`
	Outgoing   []*CallNode `json:"outgoing,omitempty"`
}

// Grouping names for call hierarchies.
const (
	GroupIncoming = "incoming"
	GroupOutgoing = "outgoing"
	GroupMembers  = "members"
)

// TokenCost reports the full recursive cost of a call subtree, depth
// capped by the estimator.
func (n *CallNode) TokenCost(c *budget.Costing) int {
	total := n.shallowCost(c)
	total += budget.SliceCost(c, n.Incoming)
	total += budget.SliceCost(c, n.Outgoing)
	return total
}

// shallowCost measures only the node payload, excluding children.
func (n *CallNode) shallowCost(c *budget.Costing) int {
	total := c.Overhead(6)
	total += c.Text(n.Symbol)
	total += c.Text(n.FilePath)
	total += c.Scalar()
	total += c.Text(n.Kind)
	total += c.Text(n.Visibility)
	total += c.Text(n.Snippet)
	return total
}

// CountNodes reports the total number of nodes in the subtree.
func (n *CallNode) CountNodes() int {
	if n == nil {
		return 0
	}
	count := 1
	for _, child := range n.Incoming {
		count += child.CountNodes()
	}
	for _, child := range n.Outgoing {
		count += child.CountNodes()
	}
	return count
}

// OutlineNode is one node of a type-member or document outline hierarchy.
type OutlineNode struct {
	Name       string         `json:"name"`
	Kind       string         `json:"kind"`
	Visibility string         `json:"visibility,omitempty"`
	Line       int            `json:"line"`
	Signature  string         `json:"signature,omitempty"`
	Children   []*OutlineNode `json:"children,omitempty"`
}

// TokenCost reports the full recursive cost of an outline subtree.
func (n *OutlineNode) TokenCost(c *budget.Costing) int {
	total := n.shallowCost(c)
	total += budget.SliceCost(c, n.Children)
	return total
}

func (n *OutlineNode) shallowCost(c *budget.Costing) int {
	total := c.Overhead(5)
	total += c.Text(n.Name)
	total += c.Text(n.Kind)
	total += c.Text(n.Visibility)
	total += c.Scalar()
	total += c.Text(n.Signature)
	return total
}

// CountNodes reports the total number of nodes in the subtree.
func (n *OutlineNode) CountNodes() int {
	if n == nil {
		return 0
	}
	count := 1
	for _, child := range n.Children {
		count += child.CountNodes()
	}
	return count
}

// FileChange summarizes edits applied to one file by a refactoring.
type FileChange struct {
	FilePath string `json:"filePath"`
	Edits    int    `json:"edits"`
}

// RenameResult is the outcome of a safe rename performed by the language
// service.
type RenameResult struct {
	Symbol       string       `json:"symbol"`
	NewName      string       `json:"newName"`
	ChangedFiles []FileChange `json:"changedFiles"`
}

// TokenCost reports the structural cost of a rename result.
func (r *RenameResult) TokenCost(c *budget.Costing) int {
	total := c.Overhead(3)
	total += c.Text(r.Symbol)
	total += c.Text(r.NewName)
	for _, fc := range r.ChangedFiles {
		total += c.Overhead(2) + c.Text(fc.FilePath) + c.Scalar()
	}
	return total
}
